package pipeline

import (
	"context"
	"strings"

	"github.com/mermaidflow/internal/conversation"
	"github.com/mermaidflow/internal/diagram"
	"github.com/mermaidflow/internal/prompts"
)

// Generator produces normalized diagram markup.
type Generator struct {
	completer Completer
	prompts   *prompts.Manager
}

func NewGenerator(c Completer, opts Options) *Generator {
	return &Generator{completer: c, prompts: opts.manager()}
}

// Generate asks for markup only and normalizes the answer for t.
func (g *Generator) Generate(ctx context.Context, prompt string, t diagram.Type, history []conversation.Message) (string, error) {
	if err := validatePrompt(prompt); err != nil {
		return "", err
	}
	if err := validateTargetType(t); err != nil {
		return "", err
	}

	vars := contextVars(history, prompts.GenerateWithHistory)
	vars["diagram_type"] = string(t)
	vars["directive"] = diagram.DefaultDirective(t)
	vars["prompt"] = prompt

	body, err := g.prompts.Render(prompts.KeyGenerate, vars)
	if err != nil {
		return "", err
	}

	raw, err := g.completer.Complete(ctx, body)
	if err != nil {
		return "", stageFailure(StageGenerate, "Failed to generate diagram", err)
	}
	if strings.TrimSpace(raw) == "" {
		return "", &EmptyResultError{Stage: StageGenerate}
	}
	return diagram.Normalize(raw, t), nil
}
