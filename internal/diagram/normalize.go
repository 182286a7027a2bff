package diagram

import (
	"regexp"
	"strings"
)

// directiveTokens maps each diagram kind to the leading tokens a renderer accepts.
var directiveTokens = map[Type][]string{
	Flowchart:       {"graph", "flowchart"},
	SequenceDiagram: {"sequenceDiagram"},
	ClassDiagram:    {"classDiagram"},
	ERDiagram:       {"erDiagram"},
	StateDiagram:    {"stateDiagram", "stateDiagram-v2"},
	GanttChart:      {"gantt"},
}

// extraDirectives are valid Mermaid openers with no matching Type. Output that
// starts with one of them is left alone.
var extraDirectives = []string{"pie", "journey", "gitgraph"}

// defaultDirectives is prepended when generated code carries no directive.
var defaultDirectives = map[Type]string{
	Flowchart:       "graph TD",
	SequenceDiagram: "sequenceDiagram",
	ClassDiagram:    "classDiagram",
	ERDiagram:       "erDiagram",
	StateDiagram:    "stateDiagram-v2",
	GanttChart:      "gantt",
}

var (
	mermaidFenceOpen = regexp.MustCompile("^```mermaid\\s*")
	bareFenceOpen    = regexp.MustCompile("^```\\s*")
	fenceClose       = regexp.MustCompile("\\s*```$")
)

// Directives returns the accepted leading tokens for t.
func Directives(t Type) []string {
	return append([]string(nil), directiveTokens[t]...)
}

// DefaultDirective returns the directive prepended for t. Unknown kinds fall
// back to the flowchart directive.
func DefaultDirective(t Type) string {
	if d, ok := defaultDirectives[t]; ok {
		return d
	}
	return defaultDirectives[Flowchart]
}

// allDirectives is the union of every kind's tokens plus the extras, lowercased.
var allDirectives = func() []string {
	var out []string
	for _, t := range Types {
		for _, d := range directiveTokens[t] {
			out = append(out, strings.ToLower(d))
		}
	}
	for _, d := range extraDirectives {
		out = append(out, strings.ToLower(d))
	}
	return out
}()

// HasDirective reports whether code starts with any known directive,
// regardless of which diagram kind was requested. Matching is case-insensitive.
func HasDirective(code string) bool {
	lower := strings.ToLower(code)
	for _, d := range allDirectives {
		if strings.HasPrefix(lower, d) {
			return true
		}
	}
	return false
}

// StripFences removes a leading ```mermaid or ``` fence and a trailing ```
// fence. Each is removed independently of the other.
func StripFences(code string) string {
	code = mermaidFenceOpen.ReplaceAllString(code, "")
	code = bareFenceOpen.ReplaceAllString(code, "")
	return fenceClose.ReplaceAllString(code, "")
}

// Normalize turns raw model output into renderable markup for t: whitespace
// and markdown fences are stripped and, when no known directive leads the
// text, the default directive for t is prepended on its own line.
func Normalize(code string, t Type) string {
	cleaned := StripFences(strings.TrimSpace(code))
	if HasDirective(cleaned) {
		return cleaned
	}
	return DefaultDirective(t) + "\n" + cleaned
}
