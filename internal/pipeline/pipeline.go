package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mermaidflow/internal/conversation"
	"github.com/mermaidflow/internal/diagram"
)

// Result is the outcome of a successful run.
type Result struct {
	Code     string         `json:"code"`
	Type     diagram.Type   `json:"type"`
	Metadata ResultMetadata `json:"metadata"`
}

type ResultMetadata struct {
	ProcessingTimeMs int64              `json:"processingTime"`
	Confidence       diagram.Confidence `json:"confidence"`
}

// Pipeline runs classify, improve and generate strictly in sequence. It holds
// no per-session state, so concurrent runs are independent of each other.
type Pipeline struct {
	Classifier *Classifier
	Enhancer   *Enhancer
	Generator  *Generator

	now func() time.Time
}

// New wires the stages. Classification and rewriting share the fast
// completer; generation uses its own.
func New(fast, generation Completer, opts Options) *Pipeline {
	return &Pipeline{
		Classifier: NewClassifier(fast, opts),
		Enhancer:   NewEnhancer(fast, opts),
		Generator:  NewGenerator(generation, opts),
		now:        time.Now,
	}
}

// Run turns prompt into normalized diagram code. Every stage failure ends the
// run and is returned unchanged; a not_diagram classification is returned as
// *NotDiagramError.
func (p *Pipeline) Run(ctx context.Context, prompt string, history []conversation.Message) (*Result, error) {
	start := p.now()
	if err := validatePrompt(prompt); err != nil {
		return nil, err
	}

	id, err := p.Classifier.Identify(ctx, prompt, history)
	if err != nil {
		logStageFailure(StageIdentify, err)
		return nil, err
	}
	log.Debug().Str("type", string(id.Type)).Str("confidence", string(id.Confidence)).Msg("Diagram type identified")
	if id.Type == diagram.NotDiagram {
		return nil, &NotDiagramError{Message: id.Message}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	improved, err := p.Enhancer.Improve(ctx, prompt, id.Type, history)
	if err != nil {
		logStageFailure(StageImprove, err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code, err := p.Generator.Generate(ctx, improved, id.Type, history)
	if err != nil {
		logStageFailure(StageGenerate, err)
		return nil, err
	}

	confidence := id.Confidence
	if confidence == "" {
		confidence = diagram.ConfidenceMedium
	}
	elapsed := p.now().Sub(start)
	log.Info().
		Str("type", string(id.Type)).
		Int("history", len(history)).
		Dur("duration", elapsed).
		Msg("Diagram generated")

	return &Result{
		Code: code,
		Type: id.Type,
		Metadata: ResultMetadata{
			ProcessingTimeMs: elapsed.Milliseconds(),
			Confidence:       confidence,
		},
	}, nil
}

func logStageFailure(stage string, err error) {
	log.Error().Err(err).Str("stage", stage).Msg("Diagram pipeline stage failed")
}
