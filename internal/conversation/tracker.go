package conversation

import (
	"fmt"
	"math"
	"time"

	"github.com/mermaidflow/internal/diagram"
)

const (
	DefaultSessionTimeout = 30 * time.Minute
	DefaultTopicWindow    = 3
	DefaultMaxTopics      = 5
	DefaultMaxHistory     = 20
)

// Detection is the outcome of classifying the current turn.
type Detection struct {
	Type       Type               `json:"type"`
	Confidence diagram.Confidence `json:"confidence"`
	Reason     string             `json:"reason"`
	Metadata   Metadata           `json:"metadata"`
}

// Tracker classifies turns and derives session metadata. The zero value uses
// the package defaults and the wall clock.
type Tracker struct {
	SessionTimeout time.Duration
	TopicWindow    int
	MaxTopics      int
	MaxHistory     int

	Now          func() time.Time
	NewSessionID func() string
}

// NewTracker returns a Tracker with default thresholds.
func NewTracker() *Tracker {
	return &Tracker{
		SessionTimeout: DefaultSessionTimeout,
		TopicWindow:    DefaultTopicWindow,
		MaxTopics:      DefaultMaxTopics,
		MaxHistory:     DefaultMaxHistory,
	}
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Tracker) sessionID() string {
	if t.NewSessionID != nil {
		return t.NewSessionID()
	}
	return NewSessionID()
}

func (t *Tracker) timeout() time.Duration {
	if t.SessionTimeout > 0 {
		return t.SessionTimeout
	}
	return DefaultSessionTimeout
}

func (t *Tracker) window() int {
	if t.TopicWindow > 0 {
		return t.TopicWindow
	}
	return DefaultTopicWindow
}

func (t *Tracker) maxTopics() int {
	if t.MaxTopics > 0 {
		return t.MaxTopics
	}
	return DefaultMaxTopics
}

// HistoryLimit is the number of trailing messages handed to the model stages.
func (t *Tracker) HistoryLimit() int {
	if t.MaxHistory > 0 {
		return t.MaxHistory
	}
	return DefaultMaxHistory
}

// Detect classifies the turn that follows history. Rules are applied in order
// and the first match wins. An idle gap exactly equal to the session timeout
// still counts as active.
func (t *Tracker) Detect(history []Message, prior *Metadata) Detection {
	now := t.now()

	if len(history) == 0 {
		return Detection{
			Type:       NewSession,
			Confidence: diagram.ConfidenceHigh,
			Reason:     "No previous messages found",
			Metadata: Metadata{
				SessionID:        t.sessionID(),
				StartTime:        now,
				LastActivity:     now,
				ConversationType: NewSession,
				Topics:           []string{},
			},
		}
	}

	if prior == nil {
		gap := now.Sub(history[len(history)-1].Timestamp)
		if gap > t.timeout() {
			return Detection{
				Type:       Resumed,
				Confidence: diagram.ConfidenceHigh,
				Reason:     fmt.Sprintf("Resumed after %d minutes", roundMinutes(gap)),
				Metadata:   t.rebuild(history, now, Resumed),
			}
		}
		return Detection{
			Type:       Continuation,
			Confidence: diagram.ConfidenceMedium,
			Reason:     "Continuing recent conversation",
			Metadata:   t.rebuild(history, now, Continuation),
		}
	}

	if gap := now.Sub(prior.LastActivity); gap > t.timeout() {
		md := prior.Clone()
		md.LastActivity = now
		md.ConversationType = Resumed
		return Detection{
			Type:       Resumed,
			Confidence: diagram.ConfidenceHigh,
			Reason:     fmt.Sprintf("Session resumed after %d minutes", roundMinutes(gap)),
			Metadata:   md,
		}
	}

	window := history
	if n := t.window(); len(window) > n {
		window = window[len(window)-n:]
	}
	if sw := detectTopicSwitch(window, *prior); sw.switched {
		md := prior.Clone()
		md.LastActivity = now
		md.ConversationType = TopicSwitch
		md.Topics = boundTopics(t.maxTopics(), append(md.Topics, sw.topic)...)
		return Detection{
			Type:       TopicSwitch,
			Confidence: sw.confidence,
			Reason:     "Topic switched to: " + sw.topic,
			Metadata:   md,
		}
	}

	md := prior.Clone()
	md.LastActivity = now
	md.MessageCount = len(history)
	md.ConversationType = Continuation
	return Detection{
		Type:       Continuation,
		Confidence: diagram.ConfidenceHigh,
		Reason:     "Active conversation continuation",
		Metadata:   md,
	}
}

// rebuild derives metadata from persisted history when no companion record exists.
func (t *Tracker) rebuild(history []Message, now time.Time, typ Type) Metadata {
	start := now
	if len(history) > 0 && !history[0].Timestamp.IsZero() {
		start = history[0].Timestamp
	}
	return Metadata{
		SessionID:        t.sessionID(),
		StartTime:        start,
		LastActivity:     now,
		MessageCount:     len(history),
		ConversationType: typ,
		Topics:           topicsFromHistory(history, t.maxTopics()),
	}
}

func roundMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}
