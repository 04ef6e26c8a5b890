package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/yaelah/internal/logger"
	"github.com/MrSnakeDoc/yaelah/internal/utils"
)

// AllowOnlyCIDRS restricts a route to the given IPs/CIDRs. An empty list
// disables filtering; a list with only unreadable entries rejects everyone.
// trustProxy should be true when running behind a trusted reverse
// proxy/tunnel (e.g., cloudflared).
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m, invalid := utils.NewIPMatcher(allowed)
	for _, entry := range invalid {
		log.Warn("ignoring invalid allowed ip entry", logger.String("entry", entry))
	}
	if m.IsEmpty() && len(invalid) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Warn("rejected request from disallowed ip",
					logger.String("ip", ip),
					logger.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
