package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/deps"
)

type buildInfo struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

type healthzResponse struct {
	Status        string    `json:"status"`
	Service       string    `json:"service"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Build         buildInfo `json:"build"`
}

// Healthz reports liveness. It never touches a backing service.
func Healthz(d deps.Deps) http.HandlerFunc {
	now := d.TimeNow
	if now == nil {
		now = time.Now
	}
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			Service:       "bookmarkpack",
			UptimeSeconds: int64(now().Sub(d.StartTime) / time.Second),
			Build:         build,
		})
	}
}
