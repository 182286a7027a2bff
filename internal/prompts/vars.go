package prompts

import (
	"regexp"
	"strings"
)

// Placeholder is a single {{VAR:...}} occurrence with its parsed options.
type Placeholder struct {
	Raw     string
	Name    string
	Options map[string]string
}

var (
	// {{VAR:name|key=value|key2="quoted value"}}
	varPattern = regexp.MustCompile(`\{\{VAR:([a-zA-Z0-9_\-]+)((?:\|[^}]+)?)}}`)
	optPattern = regexp.MustCompile(`\|([^=|]+)=([^|]+)`)
)

// ParsePlaceholders returns all placeholders in body in order of appearance.
func ParsePlaceholders(body string) []Placeholder {
	matches := varPattern.FindAllStringSubmatchIndex(body, -1)
	out := make([]Placeholder, 0, len(matches))
	for _, idx := range matches {
		out = append(out, parsePlaceholder(body, idx))
	}
	return out
}

// Variables returns the distinct variable names referenced by body.
func Variables(body string) []string {
	seen := map[string]bool{}
	var names []string
	for _, ph := range ParsePlaceholders(body) {
		if !seen[ph.Name] {
			seen[ph.Name] = true
			names = append(names, ph.Name)
		}
	}
	return names
}

// parsePlaceholder decodes one match. idx holds the full match followed by
// the name and options groups.
func parsePlaceholder(body string, idx []int) Placeholder {
	ph := Placeholder{
		Raw:     body[idx[0]:idx[1]],
		Name:    body[idx[2]:idx[3]],
		Options: map[string]string{},
	}
	if len(idx) < 6 || idx[4] == -1 {
		return ph
	}
	for _, seg := range optPattern.FindAllStringSubmatch(body[idx[4]:idx[5]], -1) {
		key := strings.ToLower(strings.TrimSpace(seg[1]))
		ph.Options[key] = decodeEscapes(unquote(strings.TrimSpace(seg[2])))
	}
	return ph
}

func unquote(val string) string {
	if len(val) >= 2 && (val[0] == '"' || val[0] == '\'') && val[len(val)-1] == val[0] {
		return val[1 : len(val)-1]
	}
	return val
}

// decodeEscapes handles \n, \t, \r and \\; other sequences are kept as-is.
func decodeEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	esc := false
	for _, r := range s {
		if !esc {
			if r == '\\' {
				esc = true
				continue
			}
			b.WriteRune(r)
			continue
		}
		switch r {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
		esc = false
	}
	if esc {
		b.WriteByte('\\')
	}
	return b.String()
}
