package fetch

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Rules selects which URLs get browser rendering when the request itself
// is not flagged. Patterns are glob-matched against the full URL.
type Rules struct {
	patterns []glob.Glob
}

// NewRules compiles the given glob patterns. An empty pattern list matches
// nothing: only explicitly flagged requests are rendered.
func NewRules(patterns []string) (*Rules, error) {
	r := &Rules{}

	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid render pattern %q: %w", pattern, err)
		}
		r.patterns = append(r.patterns, g)
	}

	return r, nil
}

// Match returns true if the URL matches any render pattern.
func (r *Rules) Match(url string) bool {
	for _, pattern := range r.patterns {
		if pattern.Match(url) {
			return true
		}
	}
	return false
}
