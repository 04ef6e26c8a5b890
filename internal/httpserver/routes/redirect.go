package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/yaelah/internal/httpserver/deps"
	"github.com/MrSnakeDoc/yaelah/internal/httpserver/handlers"
)

func init() { Register("redirect", registerRedirect) }

// Static routes take precedence over /{alias} in chi, so /healthz and
// friends are never treated as aliases.
func registerRedirect(r chi.Router, d deps.Deps) {
	r.Get("/{alias}", handlers.Redirect(d))
}
