package conversation

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mermaidflow/internal/diagram"
)

var baseTime = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func fixedTracker(now time.Time) *Tracker {
	tr := NewTracker()
	tr.Now = func() time.Time { return now }
	tr.NewSessionID = func() string { return "session_test" }
	return tr
}

func userMsg(content string, at time.Time) Message {
	return Message{ID: NewMessageID(), Content: content, Role: RoleUser, Timestamp: at, Kind: KindText}
}

func diagramMsg(code string, at time.Time) Message {
	return Message{ID: NewMessageID(), Content: "done", Role: RoleAssistant, Timestamp: at, Kind: KindDiagram, DiagramCode: code}
}

func activeMetadata(lastActivity time.Time, topics ...string) *Metadata {
	return &Metadata{
		SessionID:        "session_prior",
		StartTime:        baseTime,
		LastActivity:     lastActivity,
		MessageCount:     2,
		ConversationType: Continuation,
		Topics:           topics,
	}
}

func TestDetect_EmptyHistoryIsAlwaysNewSession(t *testing.T) {
	tr := fixedTracker(baseTime)

	for _, prior := range []*Metadata{nil, activeMetadata(baseTime.Add(-2 * time.Hour), "flowchart")} {
		d := tr.Detect(nil, prior)
		assert.Equal(t, NewSession, d.Type)
		assert.Equal(t, diagram.ConfidenceHigh, d.Confidence)
		assert.Equal(t, "No previous messages found", d.Reason)

		want := Metadata{
			SessionID:        "session_test",
			StartTime:        baseTime,
			LastActivity:     baseTime,
			ConversationType: NewSession,
			Topics:           []string{},
		}
		if diff := cmp.Diff(want, d.Metadata); diff != "" {
			t.Errorf("metadata mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestDetect_NoPriorMetadataRebuildsFromHistory(t *testing.T) {
	history := []Message{
		userMsg("show the login steps", baseTime),
		diagramMsg("graph TD\nA-->B", baseTime.Add(time.Minute)),
		userMsg("and the api calls", baseTime.Add(2*time.Minute)),
		diagramMsg("sequenceDiagram\nA->>B: x", baseTime.Add(3*time.Minute)),
	}
	last := history[len(history)-1].Timestamp

	cases := []struct {
		name       string
		gap        time.Duration
		wantType   Type
		wantConf   diagram.Confidence
		wantReason string
	}{
		{"below timeout", DefaultSessionTimeout - time.Second, Continuation, diagram.ConfidenceMedium, "Continuing recent conversation"},
		{"at timeout", DefaultSessionTimeout, Continuation, diagram.ConfidenceMedium, "Continuing recent conversation"},
		{"past timeout", DefaultSessionTimeout + time.Second, Resumed, diagram.ConfidenceHigh, "Resumed after 30 minutes"},
		{"long idle", 90 * time.Minute, Resumed, diagram.ConfidenceHigh, "Resumed after 90 minutes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			now := last.Add(tc.gap)
			d := fixedTracker(now).Detect(history, nil)
			assert.Equal(t, tc.wantType, d.Type)
			assert.Equal(t, tc.wantConf, d.Confidence)
			assert.Equal(t, tc.wantReason, d.Reason)

			want := Metadata{
				SessionID:        "session_test",
				StartTime:        baseTime,
				LastActivity:     now,
				MessageCount:     4,
				ConversationType: tc.wantType,
				Topics:           []string{"flowchart", "sequence"},
			}
			if diff := cmp.Diff(want, d.Metadata); diff != "" {
				t.Errorf("metadata mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDetect_SessionTimeoutBoundaryWithPriorMetadata(t *testing.T) {
	history := []Message{userMsg("okay thanks", baseTime)}

	cases := []struct {
		gap  time.Duration
		want Type
	}{
		{DefaultSessionTimeout - time.Second, Continuation},
		{DefaultSessionTimeout, Continuation},
		{DefaultSessionTimeout + time.Second, Resumed},
	}
	for _, tc := range cases {
		now := baseTime.Add(tc.gap)
		prior := activeMetadata(baseTime, "flowchart")
		d := fixedTracker(now).Detect(history, prior)
		assert.Equal(t, tc.want, d.Type, "gap %s", tc.gap)
		assert.Equal(t, now, d.Metadata.LastActivity)
		assert.Equal(t, "session_prior", d.Metadata.SessionID)
		assert.Equal(t, baseTime, prior.LastActivity, "prior metadata must not be mutated")
	}
}

func TestDetect_ResumedCarriesMetadataForward(t *testing.T) {
	now := baseTime.Add(2 * time.Hour)
	prior := activeMetadata(baseTime, "class")
	d := fixedTracker(now).Detect([]Message{userMsg("hello", baseTime)}, prior)

	require.Equal(t, Resumed, d.Type)
	assert.Equal(t, "Session resumed after 120 minutes", d.Reason)
	assert.Equal(t, []string{"class"}, d.Metadata.Topics)
	assert.Equal(t, 2, d.Metadata.MessageCount)
	assert.Equal(t, Resumed, d.Metadata.ConversationType)
}

func TestDetect_KeywordTopicSwitch(t *testing.T) {
	now := baseTime.Add(time.Minute)
	history := []Message{userMsg("draw a flowchart of checkout", baseTime)}

	d := fixedTracker(now).Detect(history, activeMetadata(baseTime, "class"))
	require.Equal(t, TopicSwitch, d.Type)
	assert.Equal(t, diagram.ConfidenceHigh, d.Confidence)
	assert.Equal(t, "Topic switched to: flowchart", d.Reason)
	assert.Equal(t, []string{"class", "flowchart"}, d.Metadata.Topics)

	again := fixedTracker(now).Detect(history, &d.Metadata)
	assert.Equal(t, Continuation, again.Type)
	assert.Equal(t, diagram.ConfidenceHigh, again.Confidence)
	assert.Equal(t, "Active conversation continuation", again.Reason)
	assert.Equal(t, 1, again.Metadata.MessageCount)
}

func TestDetect_ShortWordsAreNotKeywords(t *testing.T) {
	// "flow" is exactly four characters and counts; "erd" is too short to be a token.
	now := baseTime.Add(time.Minute)
	d := fixedTracker(now).Detect([]Message{userMsg("erd", baseTime)}, activeMetadata(baseTime))
	assert.Equal(t, Continuation, d.Type)

	d = fixedTracker(now).Detect([]Message{userMsg("flow", baseTime)}, activeMetadata(baseTime))
	assert.Equal(t, TopicSwitch, d.Type)
}

func TestDetect_OnlyUserTurnsInWindowCount(t *testing.T) {
	now := baseTime.Add(time.Minute)
	history := []Message{
		userMsg("draw the database tables", baseTime),
		userMsg("okay", baseTime),
		{ID: "a1", Content: "Here is your sequence diagram", Role: RoleAssistant, Timestamp: baseTime, Kind: KindText},
		userMsg("looks good", baseTime),
		userMsg("thanks", baseTime),
	}
	d := fixedTracker(now).Detect(history, activeMetadata(baseTime, "flowchart"))
	assert.Equal(t, Continuation, d.Type, "the database request is outside the window and assistant text is ignored")
}

func TestDetect_GenericIndicator(t *testing.T) {
	now := baseTime.Add(time.Minute)
	history := []Message{userMsg("ok, move on to the login page", baseTime)}

	d := fixedTracker(now).Detect(history, activeMetadata(baseTime, "flowchart"))
	require.Equal(t, TopicSwitch, d.Type)
	assert.Equal(t, diagram.ConfidenceMedium, d.Confidence)
	assert.Equal(t, "Topic switched to: "+GenericTopic, d.Reason)
	assert.Equal(t, []string{"flowchart", GenericTopic}, d.Metadata.Topics)
}

func TestDetect_TopicsStayBounded(t *testing.T) {
	now := baseTime.Add(time.Minute)
	prior := activeMetadata(baseTime, "flowchart", "sequence", "class", "er", "state")
	d := fixedTracker(now).Detect([]Message{userMsg("gantt for the launch", baseTime)}, prior)

	require.Equal(t, TopicSwitch, d.Type)
	assert.Equal(t, []string{"sequence", "class", "er", "state", "gantt"}, d.Metadata.Topics)
	assert.Len(t, prior.Topics, 5)
	assert.Equal(t, "flowchart", prior.Topics[0])
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "", FormatHistory(nil))

	code := "graph TD\n" + strings.Repeat("x", 200)
	out := FormatHistory([]Message{
		userMsg("show login", baseTime),
		diagramMsg(code, baseTime),
	})

	want := "\nConversation History:\nHuman: show login\n\nAssistant: done\n[Generated diagram code: " +
		code[:100] + "...]\n\nCurrent Request:\n"
	assert.Equal(t, want, out)
}

func TestFormatHistory_KeepsLastTwenty(t *testing.T) {
	var history []Message
	for i := 0; i < 25; i++ {
		history = append(history, userMsg("message-"+string(rune('a'+i)), baseTime))
	}
	out := FormatHistory(history)

	assert.Equal(t, 20, strings.Count(out, "Human: "))
	assert.NotContains(t, out, "message-e\n")
	assert.Contains(t, out, "message-f")
	assert.Contains(t, out, "message-y")
}

func TestStatusTexts(t *testing.T) {
	assert.Equal(t, "Welcome back! Resumed after 45 minutes", StatusMessage(Resumed, "Resumed after 45 minutes"))
	assert.True(t, ShouldShowGreeting(TopicSwitch))
	assert.False(t, ShouldShowGreeting(Continuation))
	assert.Contains(t, LoadingMessage(NewSession), "Welcome!")
	assert.Contains(t, SuccessMessage(TopicSwitch), "new topic")
}
