package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mermaidflow/internal/aiconnectors"
	"github.com/mermaidflow/internal/chat"
	"github.com/mermaidflow/internal/conversation"
	"github.com/mermaidflow/internal/pipeline"
	"github.com/mermaidflow/internal/storage"
)

// routedCompleter answers each stage by recognising its template.
func routedCompleter(identify, improve, generate string, err error) pipeline.Completer {
	return pipeline.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		if err != nil {
			return "", err
		}
		switch {
		case strings.Contains(prompt, "Valid Diagram Types:"):
			return identify, nil
		case strings.Contains(prompt, "Provide an improved prompt:"):
			return improve, nil
		default:
			return generate, nil
		}
	})
}

func newTestServer(t *testing.T, c pipeline.Completer) (*Server, *storage.ChatStore) {
	t.Helper()
	p := pipeline.New(c, c, pipeline.Options{})
	store := storage.NewChatStore(storage.NewMemoryStore())
	tracker := conversation.NewTracker()
	srv := NewServer(0, Dependencies{
		Pipeline: p,
		Tracker:  tracker,
		Chats:    chat.NewService(store, tracker, p),
	})
	return srv, store
}

func happyCompleter() pipeline.Completer {
	return routedCompleter(
		`{"type": "sequence_diagram", "message": "The prompt describes a sequence_diagram.", "confidence": "high"}`,
		"Show the browser calling the API and the API replying.",
		"Browser->>API: GET /items\nAPI-->>Browser: 200",
		nil,
	)
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, happyCompleter())
	rec := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestGenerateDiagram(t *testing.T) {
	srv, _ := newTestServer(t, happyCompleter())

	rec := do(t, srv, http.MethodPost, "/api/v1/diagrams", `{"prompt": "browser fetches items from the api"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "sequence_diagram", body["type"])
	assert.Equal(t, "sequenceDiagram\nBrowser->>API: GET /items\nAPI-->>Browser: 200", body["code"])
	md := body["metadata"].(map[string]interface{})
	assert.Equal(t, "high", md["confidence"])
	assert.Contains(t, md, "processingTime")
}

func TestGenerateDiagram_Errors(t *testing.T) {
	tests := []struct {
		name      string
		completer pipeline.Completer
		body      string
		status    int
		message   string
	}{
		{
			name:      "empty prompt",
			completer: happyCompleter(),
			body:      `{"prompt": ""}`,
			status:    http.StatusBadRequest,
			message:   "Prompt must be a non-empty string",
		},
		{
			name:      "whitespace prompt",
			completer: happyCompleter(),
			body:      `{"prompt": "   "}`,
			status:    http.StatusBadRequest,
			message:   "Prompt must be a non-empty string",
		},
		{
			name:      "malformed body",
			completer: happyCompleter(),
			body:      `{"prompt":`,
			status:    http.StatusBadRequest,
			message:   "invalid request body",
		},
		{
			name: "not a diagram",
			completer: routedCompleter(
				`{"type": "not_diagram", "message": "The provided prompt is not related to diagram generation."}`, "", "", nil),
			body:    `{"prompt": "what's the weather"}`,
			status:  http.StatusUnprocessableEntity,
			message: "The provided prompt is not related to diagram generation.",
		},
		{
			name: "missing credentials",
			completer: routedCompleter("", "", "", &aiconnectors.ProviderError{
				Provider: aiconnectors.ProviderGroq,
				Kind:     aiconnectors.KindMissingCredentials,
			}),
			body:    `{"prompt": "login flow"}`,
			status:  http.StatusServiceUnavailable,
			message: "Failed to identify diagram type: groq: API key is not configured",
		},
		{
			name:      "empty generation",
			completer: routedCompleter(`{"type": "flowchart", "message": "ok"}`, "improved", "   ", nil),
			body:      `{"prompt": "login flow"}`,
			status:    http.StatusBadGateway,
			message:   "generate stage returned an empty result",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.completer)
			rec := do(t, srv, http.MethodPost, "/api/v1/diagrams", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, decode(t, rec)["error"], tt.message)
		})
	}
}

func TestStageEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, happyCompleter())

	rec := do(t, srv, http.MethodPost, "/api/v1/diagrams/identify", `{"prompt": "browser talks to api"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sequence_diagram", decode(t, rec)["type"])

	rec = do(t, srv, http.MethodPost, "/api/v1/diagrams/improve", `{"prompt": "browser talks to api", "type": "sequence_diagram"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Show the browser calling the API and the API replying.", decode(t, rec)["prompt"])

	rec = do(t, srv, http.MethodPost, "/api/v1/diagrams/generate", `{"prompt": "browser talks to api", "type": "sequence_diagram"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(decode(t, rec)["code"].(string), "sequenceDiagram\n"))

	rec = do(t, srv, http.MethodPost, "/api/v1/diagrams/generate", `{"prompt": "x", "type": "not_diagram"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/v1/diagrams/improve", `{"prompt": "x", "type": "mindmap"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectConversation(t *testing.T) {
	srv, _ := newTestServer(t, happyCompleter())

	rec := do(t, srv, http.MethodPost, "/api/v1/conversations/detect", `{"history": []}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "new_session", body["type"])
	assert.Equal(t, "No previous messages found", body["reason"])
}

func TestChatLifecycle(t *testing.T) {
	srv, store := newTestServer(t, happyCompleter())
	ctx := context.Background()

	rec := do(t, srv, http.MethodGet, "/api/v1/chats/c1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "new_session", decode(t, rec)["detection"].(map[string]interface{})["type"])

	rec = do(t, srv, http.MethodPost, "/api/v1/chats/c1/messages", `{"content": "browser talks to api"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assistant := body["assistant"].(map[string]interface{})
	assert.Equal(t, "diagram", assistant["type"])
	assert.NotContains(t, assistant, "isGenerating")

	msgs, err := store.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, conversation.RoleUser, msgs[0].Role)
	assert.Contains(t, msgs[1].DiagramCode, "sequenceDiagram")

	md, err := store.LoadMetadata(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, 2, md.MessageCount)

	rec = do(t, srv, http.MethodPost, "/api/v1/chats/c1/messages", `{"content": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/v1/chats/c1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	msgs, err = store.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestChatFailedTurnIsSaved(t *testing.T) {
	srv, store := newTestServer(t, routedCompleter(`{"type": "flowchart", "message": "ok"}`, "improved", "", nil))

	rec := do(t, srv, http.MethodPost, "/api/v1/chats/c2/messages", `{"content": "login flow"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "generate stage returned an empty result", body["error"])

	msgs, err := store.LoadHistory(context.Background(), "c2")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.False(t, msgs[1].IsGenerating)
	assert.Equal(t, conversation.KindText, msgs[1].Kind)
	assert.Equal(t, "generate stage returned an empty result", msgs[1].Content)
}
