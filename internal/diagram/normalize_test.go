package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_PrependsDefaultDirectivePerType(t *testing.T) {
	body := "A --> B"
	cases := map[Type]string{
		Flowchart:       "graph TD\nA --> B",
		SequenceDiagram: "sequenceDiagram\nA --> B",
		ClassDiagram:    "classDiagram\nA --> B",
		ERDiagram:       "erDiagram\nA --> B",
		StateDiagram:    "stateDiagram-v2\nA --> B",
		GanttChart:      "gantt\nA --> B",
	}
	for typ, want := range cases {
		t.Run(string(typ), func(t *testing.T) {
			assert.Equal(t, want, Normalize(body, typ))
		})
	}
}

func TestNormalize_UnknownTypeFallsBackToFlowchart(t *testing.T) {
	assert.Equal(t, "graph TD\nA --> B", Normalize("A --> B", Type("mindmap")))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"```mermaid\nA --> B\n```",
		"sequenceDiagram\nAlice->>Bob: hi",
		"  nodes only  ",
	}
	for _, in := range inputs {
		for _, typ := range Types {
			once := Normalize(in, typ)
			assert.Equal(t, once, Normalize(once, typ), "input %q type %s", in, typ)
		}
	}
}

func TestNormalize_StripsFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"mermaid fence", "```mermaid\ngraph LR\nA-->B\n```", "graph LR\nA-->B"},
		{"bare fence", "```\nclassDiagram\nA <|-- B\n```", "classDiagram\nA <|-- B"},
		{"opening only", "```mermaid\ngantt\ntitle Plan", "gantt\ntitle Plan"},
		{"closing only", "erDiagram\nA ||--o{ B : has\n```", "erDiagram\nA ||--o{ B : has"},
		{"surrounding whitespace", "\n\n  ```mermaid\nflowchart TD\nX\n```  \n", "flowchart TD\nX"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in, Flowchart))
		})
	}
}

func TestNormalize_AcceptsDirectiveOfAnotherType(t *testing.T) {
	code := "sequenceDiagram\nAlice->>Bob: hello"
	assert.Equal(t, code, Normalize(code, Flowchart))

	pie := "pie title Pets\n\"Dogs\" : 3"
	assert.Equal(t, pie, Normalize(pie, ClassDiagram))
}

func TestHasDirective_CaseInsensitive(t *testing.T) {
	assert.True(t, HasDirective("GRAPH TD\nA-->B"))
	assert.True(t, HasDirective("SequenceDiagram\nA->>B: x"))
	assert.True(t, HasDirective("stateDIAGRAM-v2\n[*] --> A"))
	assert.True(t, HasDirective("GitGraph\ncommit"))
	assert.False(t, HasDirective("A --> B"))
	assert.False(t, HasDirective(""))
}

func TestParseType(t *testing.T) {
	typ, ok := ParseType("Sequence_Diagram")
	require.True(t, ok)
	assert.Equal(t, SequenceDiagram, typ)

	typ, ok = ParseType("NOT_DIAGRAM")
	require.True(t, ok)
	assert.Equal(t, NotDiagram, typ)
	assert.False(t, typ.Valid())

	typ, ok = ParseType("mindmap")
	assert.False(t, ok)
	assert.Equal(t, Type("mindmap"), typ)
}

func TestParseConfidence(t *testing.T) {
	c, ok := ParseConfidence("HIGH")
	require.True(t, ok)
	assert.Equal(t, ConfidenceHigh, c)

	_, ok = ParseConfidence("certain")
	assert.False(t, ok)
}
