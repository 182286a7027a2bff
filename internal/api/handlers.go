package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/mermaidflow/internal/aiconnectors"
	"github.com/mermaidflow/internal/chat"
	"github.com/mermaidflow/internal/conversation"
	"github.com/mermaidflow/internal/diagram"
	"github.com/mermaidflow/internal/pipeline"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

type promptRequest struct {
	Prompt  string                 `json:"prompt"`
	History []conversation.Message `json:"history,omitempty"`
}

func (r promptRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Prompt, validation.Required.Error("Prompt must be a non-empty string")),
	)
}

type stageRequest struct {
	Prompt  string                 `json:"prompt"`
	Type    diagram.Type           `json:"type"`
	History []conversation.Message `json:"history,omitempty"`
}

func (r stageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Prompt, validation.Required.Error("Prompt must be a non-empty string")),
		validation.Field(&r.Type, validation.Required, validation.In(diagramTypeValues()...)),
	)
}

type detectRequest struct {
	History  []conversation.Message `json:"history"`
	Metadata *conversation.Metadata `json:"metadata,omitempty"`
}

type messageRequest struct {
	Content string `json:"content"`
}

func (r messageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required.Error("Prompt must be a non-empty string")),
	)
}

type sendMessageResponse struct {
	*chat.Turn
	Error string `json:"error,omitempty"`
}

func diagramTypeValues() []interface{} {
	out := make([]interface{}, 0, len(diagram.Types))
	for _, t := range diagram.Types {
		out = append(out, t)
	}
	return out
}

// bind decodes the body into req and runs its validation rules.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return &pipeline.ValidationError{Message: "invalid request body"}
	}
	if v, ok := req.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			return &pipeline.ValidationError{Message: err.Error()}
		}
	}
	return nil
}

func (s *Server) generateDiagram(c echo.Context) error {
	var req promptRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	req.Prompt = strings.TrimSpace(req.Prompt)

	result, err := s.pipeline.Run(c.Request().Context(), req.Prompt, req.History)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) identifyDiagram(c echo.Context) error {
	var req promptRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}

	id, err := s.pipeline.Classifier.Identify(c.Request().Context(), req.Prompt, req.History)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, id)
}

func (s *Server) improvePrompt(c echo.Context) error {
	var req stageRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}

	improved, err := s.pipeline.Enhancer.Improve(c.Request().Context(), req.Prompt, req.Type, req.History)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"prompt": improved})
}

func (s *Server) generateCode(c echo.Context) error {
	var req stageRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}

	code, err := s.pipeline.Generator.Generate(c.Request().Context(), req.Prompt, req.Type, req.History)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"code": code, "type": req.Type})
}

func (s *Server) detectConversation(c echo.Context) error {
	var req detectRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s.tracker.Detect(req.History, req.Metadata))
}

func (s *Server) openChat(c echo.Context) error {
	ctx := c.Request().Context()
	sess, err := s.chats.Open(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	if err := sess.Save(ctx); err != nil {
		log.Error().Err(err).Str("chat_id", sess.ChatID).Msg("Failed to save chat session")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to save chat"})
	}
	return c.JSON(http.StatusOK, sess)
}

func (s *Server) clearChat(c echo.Context) error {
	if err := s.chats.Clear(c.Request().Context(), c.Param("id")); err != nil {
		log.Error().Err(err).Str("chat_id", c.Param("id")).Msg("Failed to clear chat")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to clear chat"})
	}
	return c.NoContent(http.StatusNoContent)
}

// sendMessage runs one chat turn. A failed pipeline run still saves the
// resolved transcript; the status code reflects the failure.
func (s *Server) sendMessage(c echo.Context) error {
	var req messageRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}

	ctx := c.Request().Context()
	turn, err := s.chats.Send(ctx, c.Param("id"), req.Content)
	if err != nil {
		return writeError(c, err)
	}
	if err := turn.Save(ctx); err != nil {
		log.Error().Err(err).Str("chat_id", turn.ChatID).Msg("Failed to save chat turn")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to save chat"})
	}

	resp := sendMessageResponse{Turn: turn}
	status := http.StatusOK
	if turn.Err != nil {
		status, _ = classify(turn.Err)
		resp.Error = turn.Err.Error()
	}
	return c.JSON(status, resp)
}

func writeError(c echo.Context, err error) error {
	status, stage := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Int("status", status).Msg("Request failed")
	}
	return c.JSON(status, ErrorResponse{Error: err.Error(), Stage: stage})
}

// classify maps an error to an HTTP status and, when known, the failing stage.
func classify(err error) (int, string) {
	var (
		validationErr *pipeline.ValidationError
		notDiagramErr *pipeline.NotDiagramError
		stageErr      *pipeline.StageError
		emptyErr      *pipeline.EmptyResultError
		providerErr   *aiconnectors.ProviderError
	)

	var stage string
	switch {
	case errors.As(err, &stageErr):
		stage = stageErr.Stage
	case errors.As(err, &emptyErr):
		stage = emptyErr.Stage
	}

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, stage
	case errors.As(err, &notDiagramErr):
		return http.StatusUnprocessableEntity, stage
	case errors.Is(err, chat.ErrTurnInProgress):
		return http.StatusConflict, stage
	case errors.Is(err, aiconnectors.ErrMissingCredentials):
		return http.StatusServiceUnavailable, stage
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, stage
	case errors.As(err, &stageErr), errors.As(err, &emptyErr), errors.As(err, &providerErr):
		return http.StatusBadGateway, stage
	default:
		return http.StatusInternalServerError, stage
	}
}
