package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mermaidflow/internal/conversation"
	"github.com/mermaidflow/internal/diagram"
	"github.com/mermaidflow/internal/llm"
	"github.com/mermaidflow/internal/prompts"
)

// InvalidFormatMessage is the classifier message when the model output cannot be decoded.
const InvalidFormatMessage = "Could not interpret the prompt as a diagram request due to invalid response format."

// Identification is the classifier's verdict for one prompt.
type Identification struct {
	Type       diagram.Type       `json:"type"`
	Message    string             `json:"message"`
	Confidence diagram.Confidence `json:"confidence,omitempty"`
}

// Classifier maps a prompt to a diagram type with one completion call.
type Classifier struct {
	completer Completer
	prompts   *prompts.Manager
	lenient   bool
}

func NewClassifier(c Completer, opts Options) *Classifier {
	return &Classifier{completer: c, prompts: opts.manager(), lenient: opts.RepairJSON}
}

// Identify classifies prompt. Malformed model output never surfaces as an
// error; it degrades to a not_diagram identification instead.
func (c *Classifier) Identify(ctx context.Context, prompt string, history []conversation.Message) (Identification, error) {
	if err := validatePrompt(prompt); err != nil {
		return Identification{}, err
	}

	vars := contextVars(history, prompts.IdentifyWithHistory)
	if len(history) == 0 {
		vars["context_instruction"] = prompts.IdentifyExpertRole
	}
	vars["diagram_types"] = strings.Join(diagram.TypeNames(), ", ")
	vars["prompt"] = strings.TrimSpace(prompt)

	body, err := c.prompts.Render(prompts.KeyIdentify, vars)
	if err != nil {
		return Identification{}, err
	}

	raw, err := c.completer.Complete(ctx, body)
	if err != nil {
		return Identification{}, &StageError{
			Stage:   StageIdentify,
			Message: "Failed to identify diagram type: " + err.Error(),
			Cause:   err,
		}
	}

	id, perr := parseIdentification(raw, c.lenient)
	if perr != nil {
		log.Warn().Err(perr).Str("response", truncate(raw, 300)).Msg("Failed to parse identification response")
		return degrade(perr), nil
	}
	return id, nil
}

var errInvalidFormat = errors.New("invalid identification response")

// unknownTypeError carries the type value exactly as the model returned it.
type unknownTypeError struct {
	Value string
}

func (e *unknownTypeError) Error() string {
	return fmt.Sprintf("unrecognized diagram type %q", e.Value)
}

type identificationPayload struct {
	Type       *string         `json:"type"`
	Message    *string         `json:"message"`
	Confidence json.RawMessage `json:"confidence"`
}

// parseIdentification decodes the classifier output. It fails with
// errInvalidFormat for undecodable or mis-shaped output and with
// *unknownTypeError for a type outside the closed set.
func parseIdentification(raw string, lenient bool) (Identification, error) {
	var p identificationPayload
	if err := llm.DecodeObject(raw, &p, lenient); err != nil {
		return Identification{}, fmt.Errorf("%w: %v", errInvalidFormat, err)
	}
	if p.Type == nil || *p.Type == "" || p.Message == nil {
		return Identification{}, fmt.Errorf("%w: missing type or message", errInvalidFormat)
	}

	typ, ok := diagram.ParseType(*p.Type)
	if !ok {
		return Identification{}, &unknownTypeError{Value: *p.Type}
	}

	id := Identification{Type: typ, Message: *p.Message}
	var conf string
	if len(p.Confidence) > 0 && json.Unmarshal(p.Confidence, &conf) == nil {
		if c, ok := diagram.ParseConfidence(conf); ok {
			id.Confidence = c
		}
	}
	return id, nil
}

func degrade(err error) Identification {
	var ute *unknownTypeError
	if errors.As(err, &ute) {
		return Identification{Type: diagram.NotDiagram, Message: "Unrecognized diagram type: " + ute.Value}
	}
	return Identification{Type: diagram.NotDiagram, Message: InvalidFormatMessage}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
