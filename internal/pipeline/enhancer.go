package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/mermaidflow/internal/aiconnectors"
	"github.com/mermaidflow/internal/conversation"
	"github.com/mermaidflow/internal/diagram"
	"github.com/mermaidflow/internal/prompts"
)

// Enhancer rewrites a prompt into a clearer, type-specific request.
type Enhancer struct {
	completer Completer
	prompts   *prompts.Manager
}

func NewEnhancer(c Completer, opts Options) *Enhancer {
	return &Enhancer{completer: c, prompts: opts.manager()}
}

// Improve returns the rewritten prompt, trimmed.
func (e *Enhancer) Improve(ctx context.Context, prompt string, t diagram.Type, history []conversation.Message) (string, error) {
	if err := validatePrompt(prompt); err != nil {
		return "", err
	}
	if err := validateTargetType(t); err != nil {
		return "", err
	}

	vars := contextVars(history, prompts.ImproveWithHistory)
	vars["diagram_type"] = string(t)
	vars["prompt"] = prompt

	body, err := e.prompts.Render(prompts.KeyImprove, vars)
	if err != nil {
		return "", err
	}

	raw, err := e.completer.Complete(ctx, body)
	if err != nil {
		return "", stageFailure(StageImprove, "Failed to improve prompt", err)
	}
	improved := strings.TrimSpace(raw)
	if improved == "" {
		return "", &EmptyResultError{Stage: StageImprove}
	}
	return improved, nil
}

// stageFailure classifies a completion error for a rewrite or generation stage.
func stageFailure(stage, message string, err error) error {
	if errors.Is(err, aiconnectors.ErrEmptyResponse) {
		return &EmptyResultError{Stage: stage, Cause: err}
	}
	return &StageError{Stage: stage, Message: message, Cause: err}
}
