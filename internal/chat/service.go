package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mermaidflow/internal/conversation"
	"github.com/mermaidflow/internal/pipeline"
	"github.com/mermaidflow/internal/storage"
)

// ErrTurnInProgress is returned by Send while another turn of the same chat is running.
var ErrTurnInProgress = errors.New("a diagram is already being generated for this chat")

// Runner executes the diagram pipeline.
type Runner interface {
	Run(ctx context.Context, prompt string, history []conversation.Message) (*pipeline.Result, error)
}

// Service drives chat turns: it detects the conversation type, keeps the
// transcript in a terminal state and hands back an explicit save step.
type Service struct {
	store   *storage.ChatStore
	tracker *conversation.Tracker
	runner  Runner
	now     func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewService(store *storage.ChatStore, tracker *conversation.Tracker, runner Runner) *Service {
	if tracker == nil {
		tracker = conversation.NewTracker()
	}
	return &Service{
		store:    store,
		tracker:  tracker,
		runner:   runner,
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
}

// Session is a loaded chat together with the detection made on opening it.
type Session struct {
	ChatID    string                 `json:"chatId"`
	State     State                  `json:"state"`
	Detection conversation.Detection `json:"detection"`
	// Greeting is set when the conversation type warrants a notice.
	Greeting string `json:"greeting,omitempty"`

	store *storage.ChatStore
}

// Save persists the session state.
func (s *Session) Save(ctx context.Context) error {
	return persist(ctx, s.store, s.ChatID, s.State)
}

// Turn is the outcome of one Send. Err holds the pipeline failure, if any;
// the assistant message then carries its text.
type Turn struct {
	ChatID    string                 `json:"chatId"`
	State     State                  `json:"state"`
	Detection conversation.Detection `json:"detection"`
	Assistant conversation.Message   `json:"assistant"`
	Result    *pipeline.Result       `json:"result,omitempty"`
	Err       error                  `json:"-"`

	store *storage.ChatStore
}

// Save persists the transcript and metadata produced by the turn.
func (t *Turn) Save(ctx context.Context) error {
	return persist(ctx, t.store, t.ChatID, t.State)
}

func persist(ctx context.Context, store *storage.ChatStore, chatID string, s State) error {
	if len(s.Messages) > 0 {
		if err := store.SaveHistory(ctx, chatID, s.Messages); err != nil {
			return err
		}
	}
	if s.Metadata != nil {
		if err := store.SaveMetadata(ctx, chatID, *s.Metadata); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) load(ctx context.Context, chatID string) (State, error) {
	msgs, err := s.store.LoadHistory(ctx, chatID)
	if err != nil {
		return State{}, err
	}
	md, err := s.store.LoadMetadata(ctx, chatID)
	if err != nil {
		return State{}, err
	}
	return State{Messages: msgs, Metadata: md}, nil
}

// Open loads a chat and classifies the conversation as it stands.
func (s *Service) Open(ctx context.Context, chatID string) (*Session, error) {
	state, err := s.load(ctx, chatID)
	if err != nil {
		return nil, err
	}

	detection := s.tracker.Detect(state.Messages, state.Metadata)
	state = Reduce(state, SetMetadata{Metadata: detection.Metadata})

	sess := &Session{ChatID: chatID, State: state, Detection: detection, store: s.store}
	if conversation.ShouldShowGreeting(detection.Type) {
		sess.Greeting = conversation.StatusMessage(detection.Type, detection.Reason)
	}
	return sess, nil
}

// Clear removes a chat's stored transcript and metadata.
func (s *Service) Clear(ctx context.Context, chatID string) error {
	return s.store.Clear(ctx, chatID)
}

func (s *Service) acquire(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[chatID]; busy {
		return false
	}
	s.inFlight[chatID] = struct{}{}
	return true
}

func (s *Service) release(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, chatID)
}

// Send runs one turn for text. The returned error covers input validation,
// the in-flight guard and loading state; pipeline failures are reported in
// Turn.Err with the transcript already resolved. Nothing is persisted until
// Turn.Save is called.
func (s *Service) Send(ctx context.Context, chatID, text string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &pipeline.ValidationError{Message: "Prompt must be a non-empty string"}
	}
	if !s.acquire(chatID) {
		return nil, ErrTurnInProgress
	}
	defer s.release(chatID)

	state, err := s.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	prior := state.Messages

	detection := s.tracker.Detect(prior, state.Metadata)
	if state.Metadata == nil || detection.Type != state.Metadata.ConversationType {
		state = Reduce(state, SetMetadata{Metadata: detection.Metadata})
	}

	user := conversation.Message{
		ID:        conversation.NewMessageID(),
		Content:   text,
		Role:      conversation.RoleUser,
		Timestamp: s.now(),
		Kind:      conversation.KindText,
	}
	placeholder := conversation.Message{
		ID:           conversation.NewMessageID(),
		Content:      conversation.LoadingMessage(detection.Type),
		Role:         conversation.RoleAssistant,
		Timestamp:    s.now(),
		Kind:         conversation.KindDiagram,
		IsGenerating: true,
	}
	state = Reduce(state, AddMessage{Message: user})
	state = Reduce(state, SetLoading{Loading: true})
	state = Reduce(state, AddMessage{Message: placeholder})

	turn := &Turn{ChatID: chatID, Detection: detection, store: s.store}

	result, runErr := s.runner.Run(ctx, text, conversation.Recent(prior, s.tracker.HistoryLimit()))
	if runErr != nil {
		log.Warn().Err(runErr).Str("chat_id", chatID).Msg("Diagram turn failed")
		state = Reduce(state, ResolveMessage{ID: placeholder.ID, Content: runErr.Error(), Kind: conversation.KindText})
		turn.Err = runErr
	} else {
		state = Reduce(state, ResolveMessage{
			ID:          placeholder.ID,
			Content:     conversation.SuccessMessage(detection.Type),
			Kind:        conversation.KindDiagram,
			DiagramCode: result.Code,
		})
		md := detection.Metadata.Clone()
		md.MessageCount = len(prior) + 2
		md.LastActivity = s.now()
		state = Reduce(state, SetMetadata{Metadata: md})
		turn.Result = result
	}
	state = Reduce(state, SetLoading{Loading: false})

	turn.State = state
	turn.Assistant = state.Messages[len(state.Messages)-1]
	return turn, nil
}
