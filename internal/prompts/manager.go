package prompts

import (
	"errors"
	"strings"
)

var ErrTemplateNotFound = errors.New("prompts: template not found")

// Manager renders registered templates.
type Manager struct {
	registry Registry
}

// NewManager creates a manager over r. A nil registry uses the built-in templates.
func NewManager(r Registry) *Manager {
	if r == nil {
		r = DefaultRegistry()
	}
	return &Manager{registry: r}
}

// Render substitutes vars into the template registered under key.
func (m *Manager) Render(key string, vars map[string]string) (string, error) {
	body, ok := m.registry[key]
	if !ok {
		return "", ErrTemplateNotFound
	}
	return Render(body, vars), nil
}

// Render replaces every {{VAR:name}} placeholder in body. A variable missing
// from vars, or present but empty, takes the placeholder's default option.
func Render(body string, vars map[string]string) string {
	matches := varPattern.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return body
	}
	var b strings.Builder
	b.Grow(len(body))
	last := 0
	for _, idx := range matches {
		b.WriteString(body[last:idx[0]])
		ph := parsePlaceholder(body, idx)
		val := vars[ph.Name]
		if val == "" {
			val = ph.Options["default"]
		}
		b.WriteString(val)
		last = idx[1]
	}
	b.WriteString(body[last:])
	return b.String()
}
