package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/yaelah/internal/httpserver/deps"
	"github.com/MrSnakeDoc/yaelah/internal/logger"
)

// History lists the mappings the calling client created, most recent first.
func History(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := d.History.List(r.Context(), clientID(w, r))
		if err != nil {
			d.Logger.Warn("failed to load history", logger.Error(err))
			fail(w, http.StatusServiceUnavailable, "History unavailable", nil)
			return
		}
		ok(w, http.StatusOK, "History loaded", items)
	}
}
