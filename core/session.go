package orchestration

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/novahome/nova-core/core/camera"
	"github.com/novahome/nova-core/core/inference"
)

// followUpWindow is how long after a completed turn the wake gate stays
// open, so natural follow-up questions don't need the wake phrase again.
const followUpWindow = 8 * time.Second

// Announcement is one debounced camera event waiting to be narrated.
type Announcement struct {
	ID       string
	Event    camera.Event
	Snapshot *camera.Snapshot
	QueuedAt time.Time
}

func newAnnouncement(event camera.Event, snapshot *camera.Snapshot) Announcement {
	return Announcement{
		ID:       uuid.NewString(),
		Event:    event,
		Snapshot: snapshot,
		QueuedAt: time.Now(),
	}
}

// ConversationSession is the state of one continuous interaction. The run
// loop is the sole mutator; the lock only guards reads from the web surface
// and the TUI, which see point-in-time snapshots.
type ConversationSession struct {
	mu sync.RWMutex

	state            State
	turns            int
	lastTranscript   string
	lastResponse     string
	lastResponseKind inference.Kind
	lastTurnEnded    time.Time
	pending          []Announcement
	voiceDegraded    bool
	startedAt        time.Time
}

// SessionSnapshot is the read-only view handed to the status surfaces.
type SessionSnapshot struct {
	State                string    `json:"state"`
	Turns                int       `json:"turns"`
	LastTranscript       string    `json:"lastTranscript"`
	LastResponse         string    `json:"lastResponse"`
	LastResponseKind     string    `json:"lastResponseKind"`
	PendingAnnouncements int       `json:"pendingAnnouncements"`
	VoiceDegraded        bool      `json:"voiceDegraded"`
	CameraDegraded       bool      `json:"cameraDegraded"`
	StartedAt            time.Time `json:"startedAt"`
}

func newConversationSession() *ConversationSession {
	return &ConversationSession{
		state:     StateIdle,
		startedAt: time.Now(),
	}
}

func (s *ConversationSession) setState(to State) (from State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from = s.state
	s.state = to
	return from
}

func (s *ConversationSession) currentState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// conversationActive reports whether the wake gate should be bypassed:
// either a turn is in progress or one completed within the follow-up window.
func (s *ConversationSession) conversationActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.Busy() {
		return true
	}
	return !s.lastTurnEnded.IsZero() && time.Since(s.lastTurnEnded) < followUpWindow
}

func (s *ConversationSession) beginTurn(transcript string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns++
	if transcript != "" {
		s.lastTranscript = transcript
	}
	return s.turns
}

func (s *ConversationSession) recordResponse(response *inference.Response) {
	if response == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResponse = response.Text
	s.lastResponseKind = response.Kind
}

// openFollowUpWindow lets a bare wake phrase arm the gate so the next
// utterance is taken as a command without repeating the phrase.
func (s *ConversationSession) openFollowUpWindow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTurnEnded = time.Now()
}

func (s *ConversationSession) completeTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTurnEnded = time.Now()
}

func (s *ConversationSession) pushAnnouncement(announcement Announcement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, announcement)
}

func (s *ConversationSession) popAnnouncement() (Announcement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return Announcement{}, false
	}

	announcement := s.pending[0]
	s.pending = s.pending[1:]
	return announcement, true
}

func (s *ConversationSession) setVoiceDegraded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceDegraded = true
}

// Snapshot returns a point-in-time view of session state. cameraDegraded is
// supplied by the caller because the listener owns that flag.
func (s *ConversationSession) Snapshot(cameraDegraded bool) SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SessionSnapshot{
		State:                s.state.String(),
		Turns:                s.turns,
		LastTranscript:       s.lastTranscript,
		LastResponse:         s.lastResponse,
		LastResponseKind:     string(s.lastResponseKind),
		PendingAnnouncements: len(s.pending),
		VoiceDegraded:        s.voiceDegraded,
		CameraDegraded:       cameraDegraded,
		StartedAt:            s.startedAt,
	}
}
