package chat

import "github.com/mermaidflow/internal/conversation"

// State is the chat transcript plus the session metadata. Reduce never
// mutates the State it is given.
type State struct {
	Messages []conversation.Message `json:"messages"`
	Metadata *conversation.Metadata `json:"metadata,omitempty"`
	Loading  bool                   `json:"isLoading"`
}

// Action is an event applied by Reduce.
type Action interface {
	isAction()
}

// AddMessage appends a message.
type AddMessage struct {
	Message conversation.Message
}

// ResolveMessage finalizes a generating placeholder. It applies once: a
// message that is no longer generating is left untouched.
type ResolveMessage struct {
	ID          string
	Content     string
	Kind        conversation.Kind
	DiagramCode string
}

// SetMetadata replaces the session metadata. The conversation type only
// changes through this action, fed by Tracker.Detect.
type SetMetadata struct {
	Metadata conversation.Metadata
}

type SetLoading struct {
	Loading bool
}

// Clear drops every message and the metadata.
type Clear struct{}

func (AddMessage) isAction()     {}
func (ResolveMessage) isAction() {}
func (SetMetadata) isAction()    {}
func (SetLoading) isAction()     {}
func (Clear) isAction()          {}

// Reduce returns the state that follows s after a.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case AddMessage:
		msgs := make([]conversation.Message, len(s.Messages), len(s.Messages)+1)
		copy(msgs, s.Messages)
		s.Messages = append(msgs, a.Message)
	case ResolveMessage:
		msgs := make([]conversation.Message, len(s.Messages))
		copy(msgs, s.Messages)
		for i := range msgs {
			if msgs[i].ID != a.ID || !msgs[i].IsGenerating {
				continue
			}
			msgs[i].Content = a.Content
			msgs[i].Kind = a.Kind
			msgs[i].DiagramCode = a.DiagramCode
			msgs[i].IsGenerating = false
		}
		s.Messages = msgs
	case SetMetadata:
		md := a.Metadata.Clone()
		s.Metadata = &md
	case SetLoading:
		s.Loading = a.Loading
	case Clear:
		s.Messages = nil
		s.Metadata = nil
	}
	return s
}
