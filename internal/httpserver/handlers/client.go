package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	ClientCookie = "yaelah_client"
	ClientHeader = "X-Client-ID"

	clientCookieMaxAge = 365 * 24 * time.Hour
)

// clientID identifies the caller's history. The header wins over the cookie;
// a caller with neither gets a fresh id in a cookie.
func clientID(w http.ResponseWriter, r *http.Request) string {
	if id, err := uuid.Parse(r.Header.Get(ClientHeader)); err == nil {
		return id.String()
	}
	if c, err := r.Cookie(ClientCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     ClientCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(clientCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
