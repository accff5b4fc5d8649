package executor

import (
	"fmt"
	"strings"
)

// FindApp resolves a spoken application name to an executable. It
// checks PATH directly, then the alias table, then the default-apps
// table. An empty string means no candidate is installed.
func (e *Executor) FindApp(spokenName string) string {
	name := strings.ToLower(strings.TrimSpace(spokenName))
	if name == "" {
		return ""
	}

	if _, err := e.lookPath(name); err == nil {
		return name
	}

	for app, aliases := range e.ctx.AppAliases {
		for _, alias := range aliases {
			if alias == name {
				if _, err := e.lookPath(app); err == nil {
					return app
				}
			}
		}
	}

	if app, ok := e.ctx.DefaultApps[name]; ok {
		if _, err := e.lookPath(app); err == nil {
			return app
		}
	}

	return ""
}

// SearchURL builds the query URL for a spoken search engine name. ok
// is false when the engine is unknown.
func (e *Executor) SearchURL(engine, query string) (string, bool) {
	tmpl, ok := e.ctx.SearchEngines[strings.ToLower(strings.TrimSpace(engine))]
	if !ok {
		return "", false
	}
	return fmt.Sprintf(tmpl, URLEncode(query)), true
}

// URLEncode percent-encodes a search query. Unreserved characters pass
// through, spaces become '+', everything else is %XX encoded.
func URLEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('+')
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
