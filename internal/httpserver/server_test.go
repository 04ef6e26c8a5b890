package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/yaelah/internal/domain"
	"github.com/MrSnakeDoc/yaelah/internal/history"
	"github.com/MrSnakeDoc/yaelah/internal/httpserver/deps"
	"github.com/MrSnakeDoc/yaelah/internal/logger"
	"github.com/MrSnakeDoc/yaelah/internal/resolver"
	"github.com/MrSnakeDoc/yaelah/internal/shortener"
	sqlstore "github.com/MrSnakeDoc/yaelah/internal/store/sql"
)

const testBaseURL = "https://yae.la"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	db     *sqlstore.Store
}

func newHarness(t *testing.T, mutate func(*deps.Deps)) *harness {
	t.Helper()
	log := logger.New("error", false)

	db, err := sqlstore.Open(context.Background(), sqlstore.Options{
		Driver:      sqlstore.DriverSQLite,
		DSN:         ":memory:",
		UniqueAlias: true,
	}, log)
	if err != nil {
		t.Fatalf("sqlstore.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	svc := shortener.NewService(db, resolver.New(db, nil, log), log, shortener.Options{BaseURL: testBaseURL})
	d := deps.Deps{
		Logger:         log,
		StartTime:      time.Now(),
		Version:        "test",
		Shortener:      svc,
		History:        history.NewCache(history.NewMemoryStore(), 10),
		HistoryBackend: "memory",
		Database:       db,
	}
	if mutate != nil {
		mutate(&d)
	}

	srv := httptest.NewServer(NewRouter(5*time.Second, d))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New() error = %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &harness{t: t, srv: srv, client: client, db: db}
}

func (h *harness) do(method, path string, body any) *http.Response {
	h.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rdr)
	if err != nil {
		h.t.Fatalf("NewRequest() error = %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s error = %v", method, path, err)
	}
	h.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (h *harness) envelope(resp *http.Response) envelope {
	h.t.Helper()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		h.t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func decodeMapping(t *testing.T, raw json.RawMessage) domain.Mapping {
	t.Helper()
	var m domain.Mapping
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode mapping: %v", err)
	}
	return m
}

func TestShortenRedirectDeleteFlow(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(http.MethodPost, "/api/urls", map[string]string{
		"longUrl": "https://example.com/documentation",
		"alias":   "docs",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	env := h.envelope(resp)
	if !env.Success || env.Message != "Url created" {
		t.Errorf("create envelope = %+v", env)
	}
	created := decodeMapping(t, env.Data)
	if created.ShortURL != testBaseURL+"/docs" {
		t.Errorf("shortUrl = %q, want %q", created.ShortURL, testBaseURL+"/docs")
	}

	resp = h.do(http.MethodGet, "/docs", nil)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("redirect status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "https://example.com/documentation" {
		t.Errorf("Location = %q", loc)
	}

	resp = h.do(http.MethodGet, "/api/lookup/docs", nil)
	env = h.envelope(resp)
	if resp.StatusCode != http.StatusOK || !env.Success || env.Message != "Alias already created" {
		t.Errorf("lookup = %d %+v", resp.StatusCode, env)
	}

	resp = h.do(http.MethodGet, "/api/history", nil)
	env = h.envelope(resp)
	var items []domain.Mapping
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(items) != 1 || items[0].ID != created.ID {
		t.Errorf("history = %+v, want the created mapping", items)
	}

	resp = h.do(http.MethodDelete, "/api/urls/"+itoa(created.ID), nil)
	env = h.envelope(resp)
	if resp.StatusCode != http.StatusOK || !env.Success || env.Message != "Url deleted" {
		t.Errorf("delete = %d %+v", resp.StatusCode, env)
	}

	resp = h.do(http.MethodGet, "/docs", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status after delete = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "URL NO LONGER VALID") {
		t.Errorf("body after delete = %q", body)
	}

	resp = h.do(http.MethodGet, "/api/history", nil)
	env = h.envelope(resp)
	items = nil
	_ = json.Unmarshal(env.Data, &items)
	if len(items) != 0 {
		t.Errorf("history after delete = %+v, want empty", items)
	}
}

func TestCreateConflictReturnsExisting(t *testing.T) {
	h := newHarness(t, nil)

	h.do(http.MethodPost, "/api/urls", map[string]string{"longUrl": "https://a.example", "alias": "team"})
	resp := h.do(http.MethodPost, "/api/urls", map[string]string{"longUrl": "https://b.example", "alias": "team"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	env := h.envelope(resp)
	if env.Success || env.Message != "Alias already created" {
		t.Errorf("envelope = %+v", env)
	}
	if existing := decodeMapping(t, env.Data); existing.LongURL != "https://a.example" {
		t.Errorf("conflict data longUrl = %q, want existing mapping", existing.LongURL)
	}

	resp = h.do(http.MethodGet, "/team", nil)
	if loc := resp.Header.Get("Location"); loc != "https://a.example" {
		t.Errorf("redirect after conflict = %q, want original target", loc)
	}
}

func TestCreateGeneratesAlias(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(http.MethodPost, "/api/urls", map[string]string{"longUrl": "https://example.com"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	m := decodeMapping(t, h.envelope(resp).Data)
	if len(m.Alias) != domain.DefaultAliasLength {
		t.Errorf("generated alias %q, want length %d", m.Alias, domain.DefaultAliasLength)
	}
	if m.ShortURL != testBaseURL+"/"+m.Alias {
		t.Errorf("shortUrl = %q", m.ShortURL)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	h := newHarness(t, nil)

	tests := []struct {
		name string
		body any
	}{
		{name: "missing url", body: map[string]string{"alias": "x"}},
		{name: "not http", body: map[string]string{"longUrl": "mailto:a@b.c"}},
		{name: "bad alias", body: map[string]string{"longUrl": "https://example.com", "alias": "a b"}},
		{name: "not json", body: "just a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.do(http.MethodPost, "/api/urls", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			if env := h.envelope(resp); env.Success {
				t.Errorf("envelope success = true for invalid input")
			}
		})
	}
}

func TestLookupMissingIsSuccess(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(http.MethodGet, "/api/lookup/nothing", nil)
	env := h.envelope(resp)
	if resp.StatusCode != http.StatusOK || !env.Success || env.Message != "Alias not found" {
		t.Errorf("lookup = %d %+v", resp.StatusCode, env)
	}
	if len(env.Data) != 0 && string(env.Data) != "null" {
		t.Errorf("data = %s, want null", env.Data)
	}
}

func TestUnknownAliasShowsInvalidPage(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(http.MethodGet, "/neverexisted", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "URL NO LONGER VALID") {
		t.Errorf("body = %q", body)
	}
}

func TestDeleteAndGetByID(t *testing.T) {
	h := newHarness(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{name: "delete non numeric", method: http.MethodDelete, path: "/api/urls/abc", status: http.StatusBadRequest},
		{name: "delete unknown", method: http.MethodDelete, path: "/api/urls/9999", status: http.StatusOK},
		{name: "get unknown", method: http.MethodGet, path: "/api/urls/9999", status: http.StatusNotFound},
		{name: "get zero", method: http.MethodGet, path: "/api/urls/0", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.do(tt.method, tt.path, nil)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}

	resp := h.do(http.MethodPost, "/api/urls", map[string]string{"longUrl": "https://example.com", "alias": "byid"})
	m := decodeMapping(t, h.envelope(resp).Data)
	resp = h.do(http.MethodGet, "/api/urls/"+itoa(m.ID), nil)
	if got := decodeMapping(t, h.envelope(resp).Data); got.Alias != "byid" {
		t.Errorf("get by id alias = %q, want byid", got.Alias)
	}
}

func TestStoreOutage(t *testing.T) {
	h := newHarness(t, nil)
	_ = h.db.Close()

	resp := h.do(http.MethodGet, "/docs", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("redirect status with store down = %d, want 500", resp.StatusCode)
	}

	resp = h.do(http.MethodPost, "/api/urls", map[string]string{"longUrl": "https://example.com", "alias": "down"})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("create status with store down = %d, want 500", resp.StatusCode)
	}
	env := h.envelope(resp)
	if env.Success || strings.Contains(env.Message, "closed") {
		t.Errorf("create envelope leaks internals: %+v", env)
	}

	resp = h.do(http.MethodGet, "/readyz", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("readyz with store down = %d, want 503", resp.StatusCode)
	}
}

func TestEncodeEndpoint(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(http.MethodGet, "/api/encode?text=https%3A%2F%2Fyae.la%2Fdocs&format=qr&size=256", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}

	resp = h.do(http.MethodGet, "/api/encode?text=03600029145&format=upc", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upc status = %d, want 200", resp.StatusCode)
	}
	if cd := resp.Header.Get("X-Check-Digit"); cd != "2" {
		t.Errorf("X-Check-Digit = %q, want 2", cd)
	}

	for _, q := range []string{"?text=x&format=pdf417", "?text=123&format=ean13", "?format=qr", "?text=x&size=big"} {
		resp = h.do(http.MethodGet, "/api/encode"+q, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("GET /api/encode%s status = %d, want 400", q, resp.StatusCode)
		}
	}
}

func TestOpsEndpoints(t *testing.T) {
	h := newHarness(t, nil)

	if resp := h.do(http.MethodGet, "/healthz", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	resp := h.do(http.MethodGet, "/readyz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz status = %d", resp.StatusCode)
	}
	var ready struct {
		Ready      bool `json:"ready"`
		Components map[string]struct {
			OK   bool   `json:"ok"`
			Mode string `json:"mode"`
		} `json:"components"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ready); err != nil {
		t.Fatalf("decode readyz: %v", err)
	}
	if !ready.Ready || !ready.Components["database"].OK || ready.Components["cache"].Mode != "disabled" {
		t.Errorf("readyz = %+v", ready)
	}

	if resp := h.do(http.MethodPost, "/reload", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("reload without seed file status = %d, want 404", resp.StatusCode)
	}
}

func TestReloadTrigger(t *testing.T) {
	trigger := make(chan struct{}, 1)
	h := newHarness(t, func(d *deps.Deps) { d.ReloadTrigger = trigger })

	if resp := h.do(http.MethodPost, "/reload", nil); resp.StatusCode != http.StatusAccepted {
		t.Errorf("first reload status = %d, want 202", resp.StatusCode)
	}
	if resp := h.do(http.MethodPost, "/reload", nil); resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("pending reload status = %d, want 429", resp.StatusCode)
	}
}

func TestOpsRestrictedByCIDR(t *testing.T) {
	h := newHarness(t, func(d *deps.Deps) {
		d.AllowedCIDRS = []string{"10.0.0.0/8"}
		d.TrustProxy = false
	})

	if resp := h.do(http.MethodGet, "/readyz", nil); resp.StatusCode != http.StatusForbidden {
		t.Errorf("readyz from loopback status = %d, want 403", resp.StatusCode)
	}
	if resp := h.do(http.MethodGet, "/healthz", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("healthz must stay public, status = %d", resp.StatusCode)
	}
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
