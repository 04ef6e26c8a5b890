package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/yaelah/internal/httpserver/deps"
)

// Lookup reports whether an alias is taken. Both outcomes are successful
// responses; only a store failure is an error.
func Lookup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alias := chi.URLParam(r, "alias")

		m, err := d.Shortener.Lookup(r.Context(), alias)
		if err != nil {
			failErr(w, r, d, err)
			return
		}
		if m == nil {
			ok(w, http.StatusOK, msgAliasMissing, nil)
			return
		}
		ok(w, http.StatusOK, msgAliasTaken, m)
	}
}
