// Package search matches records against a user query. It supports
// substring, regex and token strategies through a common Provider.
package search

import "strings"

// Record exposes named text fields to a Provider.
type Record interface {
	Field(name string) string
}

// Fields is a Record backed by a map.
type Fields map[string]string

// Field returns the named value, or "" when absent.
func (f Fields) Field(name string) string { return f[name] }

// Provider defines the interface for search providers.
type Provider interface {
	// Match returns true if the record matches the query. An empty query
	// matches everything.
	Match(rec Record, query string) bool

	// Name returns the provider name for identification and debugging.
	Name() string
}

// Options holds configuration options for creating search providers.
type Options struct {
	CaseInsensitive bool     // If true, searches ignore case sensitivity
	Fields          []string // Fields to search in
}

// DefaultOptions returns the default search options.
func DefaultOptions() Options {
	return Options{
		CaseInsensitive: false,
		Fields:          []string{"channel", "payload"},
	}
}

// Option is a function that modifies search options.
type Option func(*Options)

// WithCaseInsensitive sets case-insensitive search.
func WithCaseInsensitive(enabled bool) Option {
	return func(o *Options) {
		o.CaseInsensitive = enabled
	}
}

// WithFields sets the fields to search in.
func WithFields(fields ...string) Option {
	return func(o *Options) {
		o.Fields = fields
	}
}

// applyOptions applies the given options to the options struct.
func applyOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// values returns the non-empty configured field values of rec.
func (o Options) values(rec Record) []string {
	out := make([]string, 0, len(o.Fields))
	for _, f := range o.Fields {
		if v := rec.Field(f); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// contains reports whether v holds query, folding case when configured.
func (o Options) contains(v, query string) bool {
	if o.CaseInsensitive {
		return strings.Contains(strings.ToLower(v), strings.ToLower(query))
	}
	return strings.Contains(v, query)
}

// Search modes accepted by New.
const (
	ModeToken     = "token"
	ModeSubstring = "substring"
	ModeRegex     = "regex"
)

// Modes lists the search modes in the order a UI cycles through them.
var Modes = []string{ModeToken, ModeSubstring, ModeRegex}

// NextMode returns the mode after current. Unknown modes restart the cycle.
func NextMode(current string) string {
	for i, m := range Modes {
		if m == current {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return Modes[0]
}

// New returns the provider for mode. Unknown modes fall back to token search.
func New(mode string, opts ...Option) Provider {
	switch mode {
	case ModeSubstring:
		return NewSubstringProvider(opts...)
	case ModeRegex:
		return NewRegexProvider(opts...)
	default:
		return NewTokenProvider(opts...)
	}
}
