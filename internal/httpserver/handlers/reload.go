package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/yaelah/internal/httpserver/deps"
	"github.com/MrSnakeDoc/yaelah/internal/logger"
)

// Reload asks the seed importer to re-read its file now.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ReloadTrigger == nil {
			fail(w, http.StatusNotFound, "no seed file configured", nil)
			return
		}

		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual seed import triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			ok(w, http.StatusAccepted, "Reload triggered", nil)
		default:
			d.Logger.Warn("seed import already pending",
				logger.String("remote_ip", r.RemoteAddr))
			fail(w, http.StatusTooManyRequests, "Reload already in progress, please wait", nil)
		}
	}
}
