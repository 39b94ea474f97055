package system

import (
	"context"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"taeu.kr/kirosumi/internal/platform/web"
)

type Meta struct {
	Version   string
	Commit    string
	BuildDate string
}

// Probe는 호스트 정보를 수집합니다. 테스트에서 대체한다.
type Probe interface {
	Collect(ctx context.Context, dataDir string) (*HostInfo, error)
}

type HostInfo struct {
	Hostname      string  `json:"hostname"`
	OS            string  `json:"os"`
	Platform      string  `json:"platform"`
	KernelVersion string  `json:"kernelVersion"`
	HostUptime    uint64  `json:"hostUptimeSeconds"`
	CPUs          int     `json:"cpus"`
	MemoryTotal   uint64  `json:"memoryTotal"`
	MemoryUsed    uint64  `json:"memoryUsed"`
	DiskTotal     uint64  `json:"diskTotal"`
	DiskFree      uint64  `json:"diskFree"`
	DiskUsedPct   float64 `json:"diskUsedPercent"`
}

type InfoResponse struct {
	*HostInfo
	GoVersion     string `json:"goVersion"`
	Goroutines    int    `json:"goroutines"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

// Handler는 system API 핸들러입니다
type Handler struct {
	meta    Meta
	dataDir string
	probe   Probe
	started time.Time
}

func NewHandler(meta Meta, dataDir string) *Handler {
	version := strings.TrimSpace(meta.Version)
	if version == "" {
		version = "dev"
	}
	if dataDir == "" {
		dataDir = "."
	}

	return &Handler{
		meta: Meta{
			Version:   version,
			Commit:    strings.TrimSpace(meta.Commit),
			BuildDate: strings.TrimSpace(meta.BuildDate),
		},
		dataDir: dataDir,
		probe:   gopsutilProbe{},
		started: time.Now(),
	}
}

// RegisterRoutes는 라우트를 등록합니다
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /api/system/version", web.Handler(h.GetVersion))
	mux.Handle("GET /api/system/info", web.Handler(h.GetInfo))
}

func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) *web.Error {
	return web.WriteJSON(w, http.StatusOK, map[string]string{
		"version":   h.meta.Version,
		"commit":    h.meta.Commit,
		"buildDate": h.meta.BuildDate,
	})
}

func (h *Handler) GetInfo(w http.ResponseWriter, r *http.Request) *web.Error {
	info, err := h.probe.Collect(r.Context(), h.dataDir)
	if err != nil {
		return &web.Error{Err: err, Code: http.StatusInternalServerError, Message: "Failed to collect system info"}
	}

	return web.WriteJSON(w, http.StatusOK, InfoResponse{
		HostInfo:      info,
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

type gopsutilProbe struct{}

// Collect는 호스트 정보가 필수이고 나머지는 실패해도 비워 둡니다
func (gopsutilProbe) Collect(ctx context.Context, dataDir string) (*HostInfo, error) {
	hostInfo, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, err
	}

	info := &HostInfo{
		Hostname:      hostInfo.Hostname,
		OS:            hostInfo.OS,
		Platform:      hostInfo.Platform,
		KernelVersion: hostInfo.KernelVersion,
		HostUptime:    hostInfo.Uptime,
	}

	if cpus, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.CPUs = cpus
	} else {
		log.Warn().Err(err).Msg("[System] cpu count unavailable")
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemoryTotal = vm.Total
		info.MemoryUsed = vm.Used
	} else {
		log.Warn().Err(err).Msg("[System] memory stats unavailable")
	}

	if usage, err := disk.UsageWithContext(ctx, dataDir); err == nil {
		info.DiskTotal = usage.Total
		info.DiskFree = usage.Free
		info.DiskUsedPct = usage.UsedPercent
	} else {
		log.Warn().Err(err).Str("path", dataDir).Msg("[System] disk usage unavailable")
	}

	return info, nil
}
