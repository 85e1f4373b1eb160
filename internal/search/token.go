package search

import (
	"strings"
)

// TokenProvider provides token-based search.
// The query is split into whitespace-separated tokens and each token must
// match at least one field (AND logic). A "field:value" token only looks at
// that field, e.g. "channel:window payload:main".
type TokenProvider struct {
	opts Options
}

// NewTokenProvider creates a new token search provider.
func NewTokenProvider(opts ...Option) Provider {
	return &TokenProvider{
		opts: applyOptions(opts),
	}
}

// Match returns true if every token matches.
func (p *TokenProvider) Match(rec Record, query string) bool {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return true
	}

	for _, token := range tokens {
		if !p.matchToken(rec, token) {
			return false
		}
	}
	return true
}

func (p *TokenProvider) matchToken(rec Record, token string) bool {
	values := p.opts.values(rec)
	if field, value, ok := strings.Cut(token, ":"); ok && field != "" && value != "" && p.known(field) {
		values = []string{rec.Field(field)}
		token = value
	}

	for _, v := range values {
		if p.opts.contains(v, token) {
			return true
		}
	}
	return false
}

func (p *TokenProvider) known(field string) bool {
	for _, f := range p.opts.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Name returns the provider name.
func (p *TokenProvider) Name() string {
	return ModeToken
}
