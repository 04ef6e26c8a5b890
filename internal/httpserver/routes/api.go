package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/yaelah/internal/httpserver/deps"
	"github.com/MrSnakeDoc/yaelah/internal/httpserver/handlers"
)

func init() { Register("api", registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(api chi.Router) {
		api.Post("/urls", handlers.CreateURL(d))
		api.Get("/urls/{id}", handlers.GetURL(d))
		api.Delete("/urls/{id}", handlers.DeleteURL(d))
		api.Get("/lookup/{alias}", handlers.Lookup(d))
		api.Get("/history", handlers.History(d))
		api.Get("/encode", handlers.Encode(d))
	})
}
