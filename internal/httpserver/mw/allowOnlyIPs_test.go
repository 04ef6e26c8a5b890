package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrSnakeDoc/yaelah/internal/logger"
)

func TestAllowOnlyCIDRS(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		remote  string
		want    int
	}{
		{name: "no list lets everyone in", remote: "203.0.113.1:1", want: http.StatusOK},
		{name: "listed network", allowed: []string{"10.0.0.0/8"}, remote: "10.2.3.4:1", want: http.StatusOK},
		{name: "unlisted address", allowed: []string{"10.0.0.0/8"}, remote: "203.0.113.1:1", want: http.StatusForbidden},
		{name: "only invalid entries rejects everyone", allowed: []string{"10.0.0.0/99"}, remote: "10.2.3.4:1", want: http.StatusForbidden},
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AllowOnlyCIDRS(tt.allowed, false, logger.New("error", false))(next)
			r := httptest.NewRequest(http.MethodGet, "/readyz", nil)
			r.RemoteAddr = tt.remote
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
