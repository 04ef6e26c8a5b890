package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/yaelah/internal/httpserver/deps"
	"github.com/MrSnakeDoc/yaelah/internal/logger"
)

const invalidPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Yaelah</title></head>
<body><h1>URL NO LONGER VALID</h1></body></html>
`

const errorPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Yaelah</title></head>
<body><h1>Something went wrong</h1></body></html>
`

// Redirect sends visitors of /{alias} to the mapped long URL.
// An unknown alias is answered with 200 and a static page, not 404.
func Redirect(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alias := chi.URLParam(r, "alias")

		m, err := d.Shortener.Lookup(r.Context(), alias)
		if err != nil {
			d.Logger.Error("alias resolution failed",
				logger.String("alias", alias),
				logger.Error(err))
			writeHTML(w, http.StatusInternalServerError, errorPage)
			return
		}

		if m == nil {
			d.Logger.Debug("unknown alias", logger.String("alias", alias))
			writeHTML(w, http.StatusOK, invalidPage)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, m.LongURL, http.StatusFound)
	}
}

func writeHTML(w http.ResponseWriter, status int, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(page))
}
