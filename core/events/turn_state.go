package events

const (
	KindStateChanged  Kind = "state-changed"
	KindResponseFinal Kind = "response-final"
)

// StateChanged fires on every orchestrator state machine transition.
type StateChanged struct {
	Base
	From string
	To   string
}

func NewStateChangedEvent(from, to string) StateChanged {
	return StateChanged{Base: NewBase(KindStateChanged), From: from, To: to}
}

// ResponseFinal fires once a turn's response text is settled, before it is
// spoken.
type ResponseFinal struct {
	Base
	Text         string
	ResponseKind string
}

func NewResponseFinalEvent(text, responseKind string) ResponseFinal {
	return ResponseFinal{Base: NewBase(KindResponseFinal), Text: text, ResponseKind: responseKind}
}
