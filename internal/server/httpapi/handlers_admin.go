package httpapi

import (
	"net/http"
	"runtime"
	"time"

	"github.com/dmitrijs2005/pagekeeper/internal/server/services"
)

type systemInfo struct {
	GoVersion     string `json:"goVersion"`
	Platform      string `json:"platform"`
	UptimeSeconds int64  `json:"uptime"`
	Goroutines    int    `json:"goroutines"`
	MemoryAlloc   uint64 `json:"memoryAlloc"`
	MemorySys     uint64 `json:"memorySys"`
	Timestamp     string `json:"timestamp"`
}

type databaseInfo struct {
	Driver string `json:"driver"`
}

type dashboard struct {
	SystemInfo systemInfo          `json:"systemInfo"`
	Website    services.SiteStatus `json:"website"`
	Database   databaseInfo        `json:"database"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	now := s.now()

	writeOK(w, http.StatusOK, "Dashboard data retrieved successfully", dashboard{
		SystemInfo: systemInfo{
			GoVersion:     runtime.Version(),
			Platform:      runtime.GOOS + "/" + runtime.GOARCH,
			UptimeSeconds: int64(now.Sub(s.started) / time.Second),
			Goroutines:    runtime.NumGoroutine(),
			MemoryAlloc:   mem.Alloc,
			MemorySys:     mem.Sys,
			Timestamp:     now.Format(time.RFC3339),
		},
		Website:  s.site.Status(r.Context()),
		Database: databaseInfo{Driver: s.settings.DatabaseDriver},
	})
}
