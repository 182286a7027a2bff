package conversation

import (
	"fmt"
	"strings"
)

// codeExcerptLen is the number of characters of diagram code echoed into history.
const codeExcerptLen = 100

// Recent returns at most the last n messages.
func Recent(messages []Message, n int) []Message {
	if n <= 0 || len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}

// FormatHistory renders the trailing DefaultMaxHistory messages as a context
// block for the model prompts. It returns "" for an empty history.
func FormatHistory(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}

	recent := Recent(messages, DefaultMaxHistory)
	parts := make([]string, 0, len(recent))
	for _, msg := range recent {
		role := "Assistant"
		if msg.Role == RoleUser {
			role = "Human"
		}
		content := msg.Content
		if msg.DiagramCode != "" {
			content = fmt.Sprintf("%s\n[Generated diagram code: %s...]", msg.Content, truncateRunes(msg.DiagramCode, codeExcerptLen))
		}
		parts = append(parts, role+": "+content)
	}

	return fmt.Sprintf("\nConversation History:\n%s\n\nCurrent Request:\n", strings.Join(parts, "\n\n"))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
