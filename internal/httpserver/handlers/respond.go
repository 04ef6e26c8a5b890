package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/yaelah/internal/domain"
	"github.com/MrSnakeDoc/yaelah/internal/httpserver/deps"
	"github.com/MrSnakeDoc/yaelah/internal/logger"
)

// Messages shared with the web client.
const (
	msgCreated      = "Url created"
	msgDeleted      = "Url deleted"
	msgAliasTaken   = "Alias already created"
	msgAliasMissing = "Alias not found"
	msgNotFound     = "Url not found"
	msgInternal     = "Something went wrong, please try again later"
	msgExhausted    = "Could not generate a free alias, please try again"
)

// envelope is the response body of every JSON API endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func ok(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: msg, Data: data})
}

func fail(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, envelope{Success: false, Message: msg, Data: data})
}

// failErr maps a service error onto the API error contract. Store failures
// are logged with their cause and answered with a generic message.
func failErr(w http.ResponseWriter, r *http.Request, d deps.Deps, err error) {
	if taken, isTaken := domain.IsAliasTaken(err); isTaken {
		fail(w, http.StatusConflict, msgAliasTaken, taken.Existing)
		return
	}
	if v, isInvalid := domain.IsValidation(err); isInvalid {
		fail(w, http.StatusBadRequest, v.Error(), nil)
		return
	}
	if errors.Is(err, domain.ErrAliasExhausted) {
		fail(w, http.StatusServiceUnavailable, msgExhausted, nil)
		return
	}

	d.Logger.Error("request failed",
		logger.String("method", r.Method),
		logger.String("path", r.URL.Path),
		logger.Error(err))
	fail(w, http.StatusInternalServerError, msgInternal, nil)
}
