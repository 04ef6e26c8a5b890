package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/yaelah/internal/httpserver/deps"
	"github.com/MrSnakeDoc/yaelah/internal/logger"
	"github.com/MrSnakeDoc/yaelah/internal/shortener"
)

const maxBodyBytes = 1 << 20

// CreateURL registers a mapping from a {longUrl, alias} body.
func CreateURL(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req shortener.Request
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil {
			fail(w, http.StatusBadRequest, "invalid request body", nil)
			return
		}

		m, err := d.Shortener.Register(r.Context(), req)
		if err != nil {
			failErr(w, r, d, err)
			return
		}

		if err := d.History.Record(r.Context(), clientID(w, r), m); err != nil {
			d.Logger.Warn("failed to record history", logger.Int64("id", m.ID), logger.Error(err))
		}

		ok(w, http.StatusCreated, msgCreated, m)
	}
}

// DeleteURL removes the mapping with the {id} path parameter. Unknown ids
// succeed too.
func DeleteURL(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, valid := parseID(w, r)
		if !valid {
			return
		}

		if err := d.Shortener.Delete(r.Context(), id); err != nil {
			failErr(w, r, d, err)
			return
		}

		if err := d.History.Forget(r.Context(), clientID(w, r), id); err != nil {
			d.Logger.Warn("failed to update history", logger.Int64("id", id), logger.Error(err))
		}

		ok(w, http.StatusOK, msgDeleted, nil)
	}
}

// GetURL returns the mapping with the {id} path parameter.
func GetURL(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, valid := parseID(w, r)
		if !valid {
			return
		}

		m, err := d.Shortener.Get(r.Context(), id)
		if err != nil {
			failErr(w, r, d, err)
			return
		}
		if m == nil {
			fail(w, http.StatusNotFound, msgNotFound, nil)
			return
		}
		ok(w, http.StatusOK, "Url found", m)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		fail(w, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return id, true
}
