package orchestration

// State is the orchestrator state machine position. The run loop is the
// only writer; everything else reads snapshots.
type State string

const (
	// StateIdle waits for a wake-gated utterance or a pending announcement.
	StateIdle State = "idle"
	// StateListening accumulates an utterance after wake detection.
	StateListening State = "listening"
	// StateBuilding assembles the prompt, optionally fetching a snapshot.
	StateBuilding State = "building"
	// StateReasoning has an inference request in flight.
	StateReasoning State = "reasoning"
	// StateSpeaking has an active playback job.
	StateSpeaking State = "speaking"
	// StateError is terminal, entered only on fatal device loss.
	StateError State = "error"
)

func (s State) String() string { return string(s) }

// Busy reports whether a turn is in progress. Pending announcements are only
// drained while not busy.
func (s State) Busy() bool {
	switch s {
	case StateListening, StateBuilding, StateReasoning, StateSpeaking:
		return true
	}
	return false
}
