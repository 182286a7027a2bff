package conversation

import (
	"strings"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/mermaidflow/internal/diagram"
)

// GenericTopic is recorded when a switch is detected from phrasing alone.
const GenericTopic = "general_topic_switch"

type topicKeywords struct {
	topic    string
	keywords []string
}

// diagramKeywords is checked in order; the first untracked topic wins.
var diagramKeywords = []topicKeywords{
	{"flowchart", []string{"flowchart", "flow", "process", "workflow", "steps"}},
	{"sequence", []string{"sequence", "interaction", "timeline", "communication"}},
	{"class", []string{"class", "object", "inheritance", "relationship"}},
	{"er", []string{"database", "entity", "table", "relation"}},
	{"state", []string{"state", "status", "transition", "lifecycle"}},
	{"gantt", []string{"gantt", "timeline", "schedule", "project", "milestone"}},
}

var switchIndicators = []string{
	"now let's",
	"switch to",
	"instead",
	"different",
	"new",
	"another",
	"change topic",
	"move on",
	"next",
}

// boundTopics folds topics into an ordered set holding the last max distinct
// insertions. Re-inserting a topic moves it to the newest position.
func boundTopics(max int, topics ...string) []string {
	if max <= 0 {
		max = DefaultMaxTopics
	}
	set, err := simplelru.NewLRU[string, struct{}](max, nil)
	if err != nil {
		return nil
	}
	for _, t := range topics {
		set.Add(t, struct{}{})
	}
	return set.Keys()
}

// keywords returns the lowercase whitespace-separated words longer than three
// characters across the given user messages.
func keywords(messages []Message) []string {
	var out []string
	for _, m := range messages {
		for _, w := range strings.Fields(strings.ToLower(m.Content)) {
			if len(w) > 3 {
				out = append(out, w)
			}
		}
	}
	return out
}

type topicSwitch struct {
	switched   bool
	topic      string
	confidence diagram.Confidence
}

func detectTopicSwitch(window []Message, tracked Metadata) topicSwitch {
	if len(window) == 0 {
		return topicSwitch{}
	}
	var users []Message
	for _, m := range window {
		if m.Role == RoleUser {
			users = append(users, m)
		}
	}
	words := keywords(users)

	for _, set := range diagramKeywords {
		if !containsKeyword(words, set.keywords) {
			continue
		}
		if !tracked.HasTopic(set.topic) {
			return topicSwitch{switched: true, topic: set.topic, confidence: diagram.ConfidenceHigh}
		}
	}

	for _, m := range users {
		text := strings.ToLower(m.Content)
		for _, indicator := range switchIndicators {
			if strings.Contains(text, indicator) {
				return topicSwitch{switched: true, topic: GenericTopic, confidence: diagram.ConfidenceMedium}
			}
		}
	}
	return topicSwitch{}
}

func containsKeyword(words, vocabulary []string) bool {
	for _, kw := range vocabulary {
		for _, w := range words {
			if strings.Contains(w, kw) {
				return true
			}
		}
	}
	return false
}

// topicsFromHistory derives topics from the code of diagram messages, in
// order of first appearance.
func topicsFromHistory(messages []Message, max int) []string {
	var found []string
	seen := map[string]bool{}
	for _, m := range messages {
		if m.Kind != KindDiagram || m.DiagramCode == "" {
			continue
		}
		topic := topicFromCode(m.DiagramCode)
		if topic == "" || seen[topic] {
			continue
		}
		seen[topic] = true
		found = append(found, topic)
	}
	return boundTopics(max, found...)
}

func topicFromCode(code string) string {
	lower := strings.ToLower(code)
	switch {
	case strings.Contains(lower, "sequencediagram"):
		return "sequence"
	case strings.Contains(lower, "classdiagram"):
		return "class"
	case strings.Contains(lower, "erdiagram"):
		return "er"
	case strings.Contains(lower, "statediagram"):
		return "state"
	case strings.Contains(lower, "gantt"):
		return "gantt"
	case strings.Contains(lower, "graph"), strings.Contains(lower, "flowchart"):
		return "flowchart"
	}
	return ""
}
