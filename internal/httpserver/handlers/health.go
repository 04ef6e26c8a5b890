package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/yaelah/internal/httpserver/deps"
)

const probeTimeout = 2 * time.Second

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

// Healthz is a liveness probe: it never touches a dependency.
func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: time.Since(start).Seconds(),
		})
	}
}

type componentStatus struct {
	OK         bool   `json:"ok"`
	Mode       string `json:"mode,omitempty"`
	Impact     string `json:"impact,omitempty"`
	LastImport string `json:"last_import,omitempty"`
	Created    *int   `json:"created,omitempty"`
	Error      string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz probes the database and the cache. Only the database decides
// readiness; a missing cache degrades the service without stopping it.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		components := map[string]componentStatus{
			"database": checkDatabase(ctx, d),
			"cache":    checkCache(ctx, d),
			"history":  {OK: true, Mode: d.HistoryBackend},
		}
		if d.Seed != nil {
			components["seed"] = seedStatus(d)
		}

		resp := readyzResponse{
			Ready:      components["database"].OK,
			Mode:       determineMode(components),
			Components: components,
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

func determineMode(components map[string]componentStatus) string {
	if !components["database"].OK {
		return "down"
	}
	if cache := components["cache"]; !cache.OK && cache.Mode != "disabled" {
		return "degraded"
	}
	return "ok"
}

func checkDatabase(ctx context.Context, d deps.Deps) componentStatus {
	if err := d.Database.Ping(ctx); err != nil {
		return componentStatus{OK: false, Impact: "shortener-unavailable", Error: err.Error()}
	}
	return componentStatus{OK: true}
}

func checkCache(ctx context.Context, d deps.Deps) componentStatus {
	if d.Cache == nil {
		return componentStatus{OK: false, Mode: "disabled", Impact: "lookups-hit-database"}
	}
	if err := d.Cache.Ping(ctx); err != nil {
		return componentStatus{OK: false, Mode: "degraded", Impact: "lookups-hit-database", Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: "redis"}
}

func seedStatus(d deps.Deps) componentStatus {
	last := d.Seed.Last()
	if last.At.IsZero() {
		return componentStatus{OK: false, LastImport: "never"}
	}
	created := last.Created
	return componentStatus{
		OK:         true,
		LastImport: last.At.Format(time.RFC3339),
		Created:    &created,
	}
}
