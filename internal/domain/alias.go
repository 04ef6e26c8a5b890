package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"strings"
)

const (
	// DefaultAliasLength matches the six base-36 characters the web client
	// has always produced.
	DefaultAliasLength = 6

	MaxAliasLength   = 64
	MaxLongURLLength = 2048

	aliasAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// reservedAliases collide with fixed routes of the HTTP server.
var reservedAliases = map[string]struct{}{
	"api":     {},
	"healthz": {},
	"readyz":  {},
	"reload":  {},
}

// AliasGenerator produces candidate aliases when the caller supplies none.
type AliasGenerator interface {
	Generate() (string, error)
}

// RandomAlias draws base-36 aliases from crypto/rand.
type RandomAlias struct {
	Length int
}

func (g RandomAlias) Generate() (string, error) {
	n := g.Length
	if n <= 0 {
		n = DefaultAliasLength
	}

	max := big.NewInt(int64(len(aliasAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to draw alias character: %w", err)
		}
		b.WriteByte(aliasAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

// ValidateAlias checks that a caller-supplied alias is a single path-safe
// segment that does not shadow a server route.
func ValidateAlias(alias string) error {
	if alias == "" {
		return &ValidationError{Field: "alias", Reason: "must not be empty"}
	}
	if len(alias) > MaxAliasLength {
		return &ValidationError{Field: "alias", Reason: fmt.Sprintf("must be at most %d characters", MaxAliasLength)}
	}
	for _, r := range alias {
		if !isAliasRune(r) {
			return &ValidationError{Field: "alias", Reason: fmt.Sprintf("character %q is not allowed", r)}
		}
	}
	if _, ok := reservedAliases[strings.ToLower(alias)]; ok {
		return &ValidationError{Field: "alias", Reason: "is reserved"}
	}
	return nil
}

func isAliasRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_':
		return true
	}
	return false
}

// ValidateLongURL checks the redirect target is an absolute http(s) URL.
func ValidateLongURL(raw string) error {
	if raw == "" {
		return &ValidationError{Field: "longUrl", Reason: "must not be empty"}
	}
	if len(raw) > MaxLongURLLength {
		return &ValidationError{Field: "longUrl", Reason: fmt.Sprintf("must be at most %d characters", MaxLongURLLength)}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: "longUrl", Reason: "is not a valid URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "longUrl", Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ValidationError{Field: "longUrl", Reason: "host is missing"}
	}
	return nil
}
