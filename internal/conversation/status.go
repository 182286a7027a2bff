package conversation

// StatusMessage is the short notice shown when a conversation is opened.
func StatusMessage(t Type, reason string) string {
	switch t {
	case NewSession:
		return "Starting a new conversation"
	case Continuation:
		return "Continuing our conversation"
	case Resumed:
		return "Welcome back! " + reason
	case TopicSwitch:
		return "I notice we're switching topics. " + reason
	default:
		return "Ready to help with your diagrams"
	}
}

// ShouldShowGreeting reports whether opening a conversation of type t warrants a greeting.
func ShouldShowGreeting(t Type) bool {
	return t == Resumed || t == TopicSwitch
}

// LoadingMessage is the assistant placeholder text while a diagram is generated.
func LoadingMessage(t Type) string {
	switch t {
	case NewSession:
		return "Welcome! I'll help you create that diagram. Let me generate the Mermaid code for you..."
	case Resumed:
		return "Welcome back! I'll help you create that diagram. Let me generate the Mermaid code for you..."
	case TopicSwitch:
		return "I see we're exploring a new type of diagram. Let me generate the Mermaid code for you..."
	default:
		return "I'll help you create that diagram. Let me generate the Mermaid code for you..."
	}
}

// SuccessMessage replaces the placeholder text once a diagram is ready.
func SuccessMessage(t Type) string {
	const suffix = " You can copy the code or use it directly in the editor."
	switch t {
	case NewSession:
		return "I've generated your first Mermaid diagram!" + suffix
	case Continuation:
		return "I've generated a Mermaid diagram based on your description and our conversation context." + suffix
	case Resumed:
		return "I've generated a Mermaid diagram considering our previous conversation." + suffix
	case TopicSwitch:
		return "I've generated a Mermaid diagram for this new topic." + suffix
	default:
		return "I've generated a Mermaid diagram based on your description." + suffix
	}
}
