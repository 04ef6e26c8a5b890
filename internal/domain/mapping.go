package domain

import (
	"strings"
	"time"
)

// Mapping is a persisted association between a short alias and a long URL.
//
// Once stored, a Mapping is never updated. It only disappears through an
// explicit delete, which frees its alias for reuse.
type Mapping struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is assigned by the store on insert.
	ID int64 `json:"id"`

	// Alias is the path segment after the base URL.
	// Example: "x7k2pq" in https://yae.la/x7k2pq
	Alias string `json:"alias"`

	// ─────────────────────────────
	// Target
	// ─────────────────────────────

	// LongURL is the redirect destination.
	LongURL string `json:"longUrl"`

	// ShortURL is BaseURL + "/" + Alias, computed once at creation and
	// stored as-is. A later change of the configured base URL does not
	// rewrite existing rows.
	ShortURL string `json:"shortUrl"`

	// CreatedAt is set by the store at insertion time.
	CreatedAt time.Time `json:"createdAt"`
}

// ShortURL joins a base URL and an alias with exactly one slash.
func ShortURL(baseURL, alias string) string {
	return strings.TrimRight(baseURL, "/") + "/" + alias
}
