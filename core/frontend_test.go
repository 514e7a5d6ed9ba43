package orchestration

import (
	"context"
	"testing"
	"time"
)

func newTestFrontend(t *testing.T, transcriber *fakeTranscriber, active bool) (*fakeAudioInput, chan segmentEnvelope) {
	t.Helper()

	input := newFakeAudioInput()
	segments := make(chan segmentEnvelope, segmentQueueCapacity)
	voiceLost := make(chan error, 1)

	f := newFrontend(input, transcriber, NewPhraseDetector("hey nova"),
		func() bool { return active }, segments, voiceLost)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go f.run(ctx)
	<-input.ready

	return input, segments
}

func TestUtteranceClosedBySilence(t *testing.T) {
	input, segments := newTestFrontend(t,
		&fakeTranscriber{texts: []string{"hey nova hello there"}}, false)

	input.speakUtterance()

	select {
	case envelope := <-segments:
		if !envelope.segment.ClosedBySilence {
			t.Fatalf("expected the segment to close on trailing silence")
		}
		if envelope.utterance.Text != "hello there" {
			t.Fatalf("expected the wake phrase stripped, got %q", envelope.utterance.Text)
		}
		if envelope.utterance.SegmentID != envelope.segment.ID {
			t.Fatalf("expected the utterance to reference its segment")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for an envelope")
	}
}

func TestHardCutoffClosesLongUtterance(t *testing.T) {
	input := newFakeAudioInput()
	segments := make(chan segmentEnvelope, segmentQueueCapacity)
	f := newFrontend(input, &fakeTranscriber{texts: []string{"hey nova one"}},
		NewPhraseDetector("hey nova"), func() bool { return false }, segments, make(chan error, 1))
	f.maxUtterance = 300 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go f.run(ctx)
	<-input.ready

	// voiced audio well past the cutoff, never any silence
	for i := 0; i < 20; i++ {
		input.push(voicedChunk())
	}

	select {
	case envelope := <-segments:
		if envelope.segment.ClosedBySilence {
			t.Fatalf("expected the hard cutoff, not a silence close")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the cutoff segment")
	}
}

func TestWakeGateDropsUngatedSpeech(t *testing.T) {
	input, segments := newTestFrontend(t,
		&fakeTranscriber{texts: []string{"just background chatter", "hey nova lights on"}}, false)

	input.speakUtterance()
	input.speakUtterance()

	select {
	case envelope := <-segments:
		if envelope.utterance.Text != "lights on" {
			t.Fatalf("expected only the wake-gated utterance, got %q", envelope.utterance.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the gated envelope")
	}

	select {
	case envelope := <-segments:
		t.Fatalf("expected no second envelope, got %q", envelope.utterance.Text)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestActiveConversationBypassesWakeGate(t *testing.T) {
	input, segments := newTestFrontend(t,
		&fakeTranscriber{texts: []string{"and a follow-up question"}}, true)

	input.speakUtterance()

	select {
	case envelope := <-segments:
		if envelope.utterance.Text != "and a follow-up question" {
			t.Fatalf("unexpected utterance %q", envelope.utterance.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the follow-up envelope")
	}
}

func TestOneSegmentOpenAtATime(t *testing.T) {
	input, segments := newTestFrontend(t,
		&fakeTranscriber{texts: []string{"hey nova first", "hey nova second"}}, false)

	input.speakUtterance()
	input.speakUtterance()

	first := <-segments
	second := <-segments
	if first.segment.ID == second.segment.ID {
		t.Fatalf("expected two distinct segments")
	}
	if second.segment.Start.Before(first.segment.End) {
		t.Fatalf("expected the first segment to close before the second opened")
	}
}
