package seed

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/yaelah/internal/domain"
	"github.com/MrSnakeDoc/yaelah/internal/shortener"
)

// Mapper turns seed links into registration requests
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapLinks validates every link and returns the usable requests plus one
// error per rejected link. A repeated alias keeps its first occurrence.
func (m *Mapper) MapLinks(f File) ([]shortener.Request, []error) {
	reqs := make([]shortener.Request, 0, len(f.Links))
	var rejected []error
	seen := make(map[string]struct{}, len(f.Links))

	for i, link := range f.Links {
		alias := strings.TrimSpace(link.Alias)
		target := strings.TrimSpace(link.URL)

		if err := domain.ValidateAlias(alias); err != nil {
			rejected = append(rejected, fmt.Errorf("link #%d: %w", i+1, err))
			continue
		}
		if err := domain.ValidateLongURL(target); err != nil {
			rejected = append(rejected, fmt.Errorf("link #%d (%s): %w", i+1, alias, err))
			continue
		}
		if _, dup := seen[alias]; dup {
			rejected = append(rejected, fmt.Errorf("link #%d: alias %q repeated in seed file", i+1, alias))
			continue
		}
		seen[alias] = struct{}{}

		reqs = append(reqs, shortener.Request{LongURL: target, Alias: alias})
	}

	return reqs, rejected
}
