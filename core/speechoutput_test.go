package orchestration

import (
	"context"
	"testing"
	"time"
)

func TestSpeakReturnsImmediatelyAndCompletes(t *testing.T) {
	output := &fakeAudioOutput{}
	s := newSpeechOutput(&fakeSynthesizer{}, output, "en_US", make(chan error, 1))

	job := s.speak(context.Background(), "hello")
	select {
	case <-job.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for playback to complete")
	}

	if job.Cancelled() {
		t.Fatalf("expected a completed job not to read as cancelled")
	}
	if output.sentCount() != 1 {
		t.Fatalf("expected one audio buffer on the speaker, got %d", output.sentCount())
	}
}

func TestNewSpeakCancelsPriorJob(t *testing.T) {
	output := &fakeAudioOutput{manual: true}
	s := newSpeechOutput(&fakeSynthesizer{}, output, "en_US", make(chan error, 1))

	first := s.speak(context.Background(), "first")
	second := s.speak(context.Background(), "second")

	select {
	case <-first.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the first job to be cancelled")
	}
	if !first.Cancelled() {
		t.Fatalf("expected the first job to read as cancelled")
	}

	output.finishPlayback()
	select {
	case <-second.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the second job")
	}
	if second.Cancelled() {
		t.Fatalf("expected the second job to play out")
	}
}

func TestCancelClearsSpeakerBuffer(t *testing.T) {
	output := &fakeAudioOutput{manual: true}
	s := newSpeechOutput(&fakeSynthesizer{}, output, "en_US", make(chan error, 1))

	job := s.speak(context.Background(), "a long sentence")
	waitFor(t, func() bool { return output.sentCount() == 1 }, "audio to reach the speaker")

	job.Cancel()
	<-job.Done()

	if output.cleared.Load() == 0 {
		t.Fatalf("expected cancellation to clear the speaker buffer")
	}
}

func TestSynthesisFailureCompletesSilently(t *testing.T) {
	output := &fakeAudioOutput{}
	fatal := make(chan error, 1)
	s := newSpeechOutput(&fakeSynthesizer{fail: true}, output, "en_US", fatal)

	job := s.speak(context.Background(), "hello")
	select {
	case <-job.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for silent completion")
	}

	if output.sentCount() != 0 {
		t.Fatalf("expected no audio after a synthesis failure")
	}
	select {
	case err := <-fatal:
		t.Fatalf("expected synthesis failure to stay non-fatal, got %v", err)
	default:
	}
}
