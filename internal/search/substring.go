package search

// substringProvider matches when any searched field contains the whole query.
type substringProvider struct {
	opts Options
}

// NewSubstringProvider returns a Provider for plain substring queries.
func NewSubstringProvider(opts ...Option) Provider {
	return substringProvider{opts: applyOptions(opts)}
}

func (p substringProvider) Name() string { return ModeSubstring }

func (p substringProvider) Match(rec Record, query string) bool {
	if query == "" {
		return true
	}
	for _, v := range p.opts.values(rec) {
		if p.opts.contains(v, query) {
			return true
		}
	}
	return false
}
