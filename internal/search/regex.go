package search

import (
	"regexp"
	"sync"
)

// maxPatterns bounds the compiled pattern cache. A filter typed key by key
// compiles every prefix, so the cache starts over once it fills.
const maxPatterns = 32

// regexProvider matches when any searched field matches the query pattern.
type regexProvider struct {
	opts Options

	mu sync.Mutex
	// compiled maps a query to its pattern; nil marks a query that does not
	// compile, which matches nothing.
	compiled map[string]*regexp.Regexp
}

// NewRegexProvider returns a Provider treating the query as a regular
// expression.
func NewRegexProvider(opts ...Option) Provider {
	return &regexProvider{
		opts:     applyOptions(opts),
		compiled: make(map[string]*regexp.Regexp),
	}
}

func (p *regexProvider) Name() string { return ModeRegex }

func (p *regexProvider) Match(rec Record, query string) bool {
	if query == "" {
		return true
	}
	re := p.pattern(query)
	if re == nil {
		return false
	}
	for _, v := range p.opts.values(rec) {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}

func (p *regexProvider) pattern(query string) *regexp.Regexp {
	p.mu.Lock()
	defer p.mu.Unlock()
	if re, ok := p.compiled[query]; ok {
		return re
	}
	if len(p.compiled) >= maxPatterns {
		clear(p.compiled)
	}

	expr := query
	if p.opts.CaseInsensitive {
		expr = "(?i)" + query
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		re = nil
	}
	p.compiled[query] = re
	return re
}
