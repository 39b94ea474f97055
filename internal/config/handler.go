package config

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"taeu.kr/kirosumi/internal/platform/web"
)

// Handler는 config API 핸들러입니다
type Handler struct {
	save func() error
}

type PublicConfigResponse struct {
	Server Server `json:"server"`
	Redis  Redis  `json:"redis"`
	Search Search `json:"search"`
	Export Export `json:"export"`
}

type UpdateConfigRequest struct {
	Server Server `json:"server"`
}

func NewHandler() *Handler {
	return &Handler{save: SaveConfig}
}

// RegisterRoutes는 라우트를 등록합니다
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /api/config", web.Handler(h.GetConfig))
	mux.Handle("PUT /api/config", web.Handler(h.UpdateConfig))
}

// GetConfig는 현재 설정을 반환합니다
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) *web.Error {
	response := PublicConfigResponse{
		Server: Conf.Server,
		Redis:  Conf.Redis,
		Search: Conf.Search,
		Export: Conf.Export,
	}
	return web.WriteJSON(w, http.StatusOK, response)
}

// UpdateConfig는 서버 설정을 검증한 뒤 파일에 저장합니다
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) *web.Error {
	var req UpdateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &web.Error{Err: err, Code: http.StatusBadRequest, Message: "Invalid config format"}
	}

	req.Server.Port = strings.TrimSpace(req.Server.Port)
	if werr := validateServerConfig(req.Server); werr != nil {
		return werr
	}

	// datasource, auth 등 민감한 섹션은 API로 변경하지 않음
	Conf.Server = req.Server

	if err := h.save(); err != nil {
		return &web.Error{Err: err, Code: http.StatusInternalServerError, Message: "Failed to save config"}
	}

	return web.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Configuration updated successfully",
	})
}

func validateServerConfig(server Server) *web.Error {
	port := strings.TrimSpace(server.Port)
	if port == "" {
		return badConfig("server.port is required")
	}
	webPort, err := strconv.Atoi(port)
	if err != nil || !validPort(webPort) {
		return badConfig("server.port must be an integer between 1 and 65535")
	}

	if server.SftpEnabled {
		if !validPort(server.SftpPort) {
			return badConfig("server.sftpPort must be an integer between 1 and 65535 when sftp is enabled")
		}
		if server.SftpPort == webPort {
			return badConfig("server.sftpPort must be different from server.port")
		}
	}

	if dir := strings.TrimSpace(server.WebDir); dir != "" && strings.Contains(dir, "..") {
		return badConfig("server.webDir must not contain '..'")
	}
	return nil
}

func validPort(port int) bool {
	return port >= 1 && port <= 65535
}

func badConfig(message string) *web.Error {
	return &web.Error{Code: http.StatusBadRequest, Message: message}
}
