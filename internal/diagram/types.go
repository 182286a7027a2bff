package diagram

import "strings"

// Type identifies a kind of Mermaid diagram, or the NotDiagram sentinel.
type Type string

const (
	Flowchart       Type = "flowchart"
	SequenceDiagram Type = "sequence_diagram"
	ClassDiagram    Type = "class_diagram"
	ERDiagram       Type = "er_diagram"
	StateDiagram    Type = "state_diagram"
	GanttChart      Type = "gantt_chart"

	// NotDiagram marks a prompt that does not ask for a diagram.
	NotDiagram Type = "not_diagram"
)

// Types lists the supported diagram kinds in prompt order.
var Types = []Type{
	Flowchart,
	SequenceDiagram,
	ClassDiagram,
	ERDiagram,
	StateDiagram,
	GanttChart,
}

// Confidence is the classifier's self-reported certainty.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence returns the confidence for s and whether it is one of the known levels.
func ParseConfidence(s string) (Confidence, bool) {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(s))); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c, true
	}
	return "", false
}

// Valid reports whether t is one of the six supported diagram kinds.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

func (t Type) String() string { return string(t) }

// ParseType lowercases s and reports whether the result is a supported kind
// or the NotDiagram sentinel.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if t == NotDiagram || t.Valid() {
		return t, true
	}
	return t, false
}

// TypeNames returns the supported kinds as plain strings.
func TypeNames() []string {
	names := make([]string, len(Types))
	for i, t := range Types {
		names[i] = string(t)
	}
	return names
}
