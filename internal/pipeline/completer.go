package pipeline

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mermaidflow/internal/conversation"
	"github.com/mermaidflow/internal/diagram"
	"github.com/mermaidflow/internal/prompts"
)

// Completer is one text completion round trip.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Options are shared by the three stages.
type Options struct {
	// Prompts renders the stage templates; nil uses the built-in ones.
	Prompts *prompts.Manager
	// RepairJSON lets the classifier repair malformed JSON before giving up on it.
	RepairJSON bool
}

func (o Options) manager() *prompts.Manager {
	if o.Prompts != nil {
		return o.Prompts
	}
	return prompts.NewManager(nil)
}

func validatePrompt(prompt string) error {
	if err := validation.Validate(strings.TrimSpace(prompt), validation.Required); err != nil {
		return &ValidationError{Message: promptRequiredMessage}
	}
	return nil
}

func validateTargetType(t diagram.Type) error {
	err := validation.Validate(string(t),
		validation.Required.Error("Diagram type is required"),
		validation.NotIn(string(diagram.NotDiagram)).Error("Cannot build a diagram for a prompt classified as not_diagram"),
	)
	if err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

// contextVars returns the variables shared by every stage template.
func contextVars(history []conversation.Message, withHistory string) map[string]string {
	vars := map[string]string{}
	if len(history) > 0 {
		vars["context_instruction"] = withHistory
		vars["history"] = conversation.FormatHistory(history)
	}
	return vars
}
