package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind distinguishes plain text messages from messages carrying diagram code.
type Kind string

const (
	KindText    Kind = "text"
	KindDiagram Kind = "diagram"
)

// Type is the classification of the current turn within a session.
type Type string

const (
	NewSession   Type = "new_session"
	Continuation Type = "continuation"
	Resumed      Type = "resumed"
	TopicSwitch  Type = "topic_switch"
)

// Message is one entry of the chat transcript.
type Message struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	Role         Role      `json:"role"`
	Timestamp    time.Time `json:"timestamp"`
	Kind         Kind      `json:"type"`
	DiagramCode  string    `json:"diagramCode,omitempty"`
	IsGenerating bool      `json:"isGenerating,omitempty"`
}

// Metadata describes the active session. Topics is an ordered set of at most
// MaxTopics entries, oldest first.
type Metadata struct {
	SessionID        string    `json:"sessionId"`
	StartTime        time.Time `json:"startTime"`
	LastActivity     time.Time `json:"lastActivity"`
	MessageCount     int       `json:"messageCount"`
	ConversationType Type      `json:"conversationType"`
	Topics           []string  `json:"topics"`
}

// Clone returns a copy of m that shares no slices with it.
func (m Metadata) Clone() Metadata {
	out := m
	out.Topics = append([]string{}, m.Topics...)
	return out
}

// HasTopic reports whether topic is already tracked.
func (m Metadata) HasTopic(topic string) bool {
	for _, t := range m.Topics {
		if t == topic {
			return true
		}
	}
	return false
}

// NewMessageID returns a fresh message identifier.
func NewMessageID() string {
	return "msg_" + uuid.NewString()
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return "session_" + uuid.NewString()
}
