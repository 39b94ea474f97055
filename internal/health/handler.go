package health

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"taeu.kr/kirosumi/internal/platform/web"
	"taeu.kr/kirosumi/internal/rpc"
)

// ComponentStatus는 의존 구성요소 하나의 상태입니다
type ComponentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Port    string `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
}

type StatusResponse struct {
	Components map[string]ComponentStatus `json:"components"`
	Hosts      []string                   `json:"hosts"`
}

// Check는 등록된 구성요소를 점검합니다. nil 에러면 healthy.
type Check struct {
	Name    string
	Port    string
	Path    string
	Enabled bool
	Ping    func(ctx context.Context) error
}

type Handler struct {
	checks []Check
	port   string
}

func NewHandler(port string, checks ...Check) *Handler {
	return &Handler{
		checks: checks,
		port:   port,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /api/health", web.Handler(h.handleHealth))
	mux.Handle("GET /api/status", web.Handler(h.handleStatus))
}

// RegisterProcedures는 공개 healthCheck procedure를 등록합니다
func (h *Handler) RegisterProcedures(r *rpc.Router) {
	rpc.PublicQuery(r, "healthCheck", func(context.Context, rpc.Empty) (string, error) {
		return "OK", nil
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) *web.Error {
	return web.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) *web.Error {
	components := make(map[string]ComponentStatus, len(h.checks))
	for _, c := range h.checks {
		components[c.Name] = h.run(r.Context(), c)
	}

	return web.WriteJSON(w, http.StatusOK, StatusResponse{
		Components: components,
		Hosts:      h.getAccessibleHosts(),
	})
}

func (h *Handler) run(ctx context.Context, c Check) ComponentStatus {
	status := ComponentStatus{Port: c.Port, Path: c.Path}
	if !c.Enabled {
		status.Status = "unavailable"
		status.Message = "비활성화됨"
		return status
	}
	if c.Ping == nil {
		status.Status = "healthy"
		status.Message = "정상"
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		status.Status = "unhealthy"
		status.Message = err.Error()
		return status
	}
	status.Status = "healthy"
	status.Message = "정상"
	return status
}

func (h *Handler) getAccessibleHosts() []string {
	hosts := []string{fmt.Sprintf("localhost:%s", h.port)}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return hosts
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() || ipNet.IP.To4() == nil {
			continue
		}
		hosts = append(hosts, fmt.Sprintf("%s:%s", ipNet.IP.String(), h.port))
	}

	return hosts
}
