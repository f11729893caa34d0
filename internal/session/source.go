package session

import (
	"strings"
	"sync"
)

// TitleSource resolves a human-readable title for an endpoint. Lookup
// reports ok=false when it has nothing usable, in which case the session
// falls back to the literal module::controller::action triple.
type TitleSource interface {
	Lookup(module, controller, action string) (string, bool)
}

type routeKey struct {
	module, controller, action string
}

// StaticTitles is the preferred source: explicit titles declared at
// route-registration time.
type StaticTitles struct {
	mu     sync.RWMutex
	titles map[routeKey]string
}

func NewStaticTitles() *StaticTitles {
	return &StaticTitles{titles: make(map[routeKey]string)}
}

func (s *StaticTitles) Set(module, controller, action, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles[routeKey{module, controller, action}] = title
}

func (s *StaticTitles) Lookup(module, controller, action string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	title, ok := s.titles[routeKey{module, controller, action}]
	return title, ok && title != ""
}

// DocRegistry is the legacy adapter: handlers register the raw doc-comment
// block of an action and Lookup scrapes a title out of it. Kept only for
// code migrated from setups that derived titles from handler comments;
// new routes should declare titles through StaticTitles.
type DocRegistry struct {
	mu       sync.RWMutex
	comments map[routeKey]string
}

func NewDocRegistry() *DocRegistry {
	return &DocRegistry{comments: make(map[routeKey]string)}
}

func (r *DocRegistry) Register(module, controller, action, comment string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments[routeKey{module, controller, action}] = comment
}

func (r *DocRegistry) Lookup(module, controller, action string) (string, bool) {
	r.mu.RLock()
	comment, ok := r.comments[routeKey{module, controller, action}]
	r.mu.RUnlock()
	if !ok {
		return "", false
	}
	return ParseDocComment(comment)
}

// Chain tries each source in order and returns the first hit.
func Chain(sources ...TitleSource) TitleSource {
	return chainSource(sources)
}

type chainSource []TitleSource

func (c chainSource) Lookup(module, controller, action string) (string, bool) {
	for _, src := range c {
		if src == nil {
			continue
		}
		if title, ok := src.Lookup(module, controller, action); ok {
			return title, true
		}
	}
	return "", false
}

// ParseDocComment extracts the summary line from a doc-comment block.
// The opening delimiter is dropped, every line loses its leading asterisks
// and surrounding whitespace, annotation lines (@param, @return, ...) and
// bare closers are skipped, and the first line left standing wins.
func ParseDocComment(comment string) (string, bool) {
	lines := strings.Split(comment, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if i == 0 {
			line = strings.TrimPrefix(line, "/**")
			line = strings.TrimPrefix(line, "/*")
		}
		line = strings.TrimSpace(strings.TrimLeft(line, "*"))
		line = strings.TrimSpace(strings.TrimSuffix(line, "*/"))
		if line == "" || line == "/" {
			continue
		}
		if strings.HasPrefix(line, "@") {
			continue
		}
		return line, true
	}
	return "", false
}
