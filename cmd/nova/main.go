// Command nova runs the voice assistant: microphone and camera events in,
// spoken answers out, with a terminal dashboard and a small HTTP surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	orchestration "github.com/novahome/nova-core/core"
	"github.com/novahome/nova-core/core/audio/miniaudio"
	"github.com/novahome/nova-core/core/camera"
	"github.com/novahome/nova-core/core/camera/scrypted"
	"github.com/novahome/nova-core/core/inference"
	"github.com/novahome/nova-core/core/inference/ollama"
	"github.com/novahome/nova-core/core/intents"
	"github.com/novahome/nova-core/core/speechtotext"
	"github.com/novahome/nova-core/core/speechtotext/deepgram"
	"github.com/novahome/nova-core/core/speechtotext/whisper"
	"github.com/novahome/nova-core/core/texttospeech/piper"
	"github.com/novahome/nova-core/internal/config"
	"github.com/novahome/nova-core/internal/log"
	"github.com/novahome/nova-core/pkg/web"
)

const preflightTimeout = 5 * time.Second

func main() {
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	noTUI := flag.Bool("no-tui", false, "run headless without the terminal dashboard")
	pushToTalk := flag.Bool("push-to-talk", false, "treat every utterance as a command, no wake phrase")
	flag.Parse()

	log.Init(*logLevel)
	cfg := config.FromEnv()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	backend := ollama.NewClient(ollama.ClientConfig{
		BaseURL:     cfg.OllamaURL,
		TextModel:   config.TextModel,
		VisionModel: config.VisionModel,
	})

	// backend reachability is a startup precondition, not a runtime concern
	preflightCtx, cancelPreflight := context.WithTimeout(ctx, preflightTimeout)
	version, err := backend.Version(preflightCtx)
	cancelPreflight()
	if err != nil {
		log.L().Error("inference backend unreachable, aborting",
			"url", cfg.OllamaURL, "error", err)
		os.Exit(1)
	}
	log.L().Info("inference backend ready", "url", cfg.OllamaURL, "version", version)

	opts := []orchestration.OrchestratorOption{
		orchestration.WithInferenceClient(backend),
		orchestration.WithWakePhrase(cfg.WakeWord),
		orchestration.WithVoice(cfg.Voice),
		orchestration.WithSystemPrompt(intents.SystemPrompt(intents.Tools())),
	}
	if cfg.UsePushToTalk || *pushToTalk {
		opts = append(opts, orchestration.WithPushToTalk())
	}

	audioDevice, err := miniaudio.NewClient()
	if err != nil {
		log.L().Warn("audio devices unavailable, voice input and output disabled", "error", err)
	} else {
		defer audioDevice.Close()
		opts = append(opts,
			orchestration.WithAudioInput(audioDevice),
			orchestration.WithAudioOutput(audioDevice),
			orchestration.WithTranscriber(newTranscriber(cfg)),
		)
	}

	if cfg.PiperModel == "" {
		log.L().Warn("PIPER_MODEL not set, responses will not be spoken")
	} else if synthesizer, err := piper.NewClient(piper.ClientConfig{ModelPath: cfg.PiperModel}); err != nil {
		log.L().Warn("speech synthesis unavailable", "error", err)
	} else {
		opts = append(opts, orchestration.WithSynthesizer(synthesizer))
	}

	if cfg.ScryptedURL == "" || cfg.ScryptedToken == "" {
		log.L().Info("camera platform not configured, announcements disabled")
	} else if cameras, err := scrypted.NewClient(scrypted.ClientConfig{
		BaseURL: cfg.ScryptedURL,
		Token:   cfg.ScryptedToken,
	}); err != nil {
		log.L().Warn("camera platform unavailable", "error", err)
	} else {
		handler := intents.NewHandler(cameras, describeWith(backend), cfg.DeviceIDs)
		opts = append(opts,
			orchestration.WithSnapshotProvider(cameras),
			orchestration.WithEventSource(cameras),
			orchestration.WithEventPoller(cameras),
			orchestration.WithIntentHandler(handler),
			orchestration.WithRoomResolver(handler.Resolve),
		)
		if deviceID := defaultCamera(cfg.DeviceIDs); deviceID != "" {
			opts = append(opts, orchestration.WithDefaultCamera(deviceID))
		}
	}

	assistant := orchestration.NewOrchestrator(opts...)

	if cfg.HTTPAddr != "" {
		server := web.NewServer(cfg.HTTPAddr, assistant)
		defer server.Shutdown()
		go func() {
			if err := server.Listen(); err != nil {
				log.L().Error("status server failed", "addr", cfg.HTTPAddr, "error", err)
			}
		}()
		log.L().Info("status server listening", "addr", cfg.HTTPAddr)
	}

	if *noTUI {
		err = runHeadless(ctx, assistant)
	} else {
		err = runTUI(ctx, cancel, assistant)
	}
	if err != nil && ctx.Err() == nil {
		log.L().Error("assistant stopped", "error", err)
		os.Exit(1)
	}
}

func newTranscriber(cfg config.Config) speechtotext.Transcriber {
	if _, ok := os.LookupEnv("DEEPGRAM_API_KEY"); ok {
		if client, err := deepgram.NewClient(); err == nil {
			log.L().Info("transcribing through deepgram")
			return client
		}
	}
	return whisper.NewClient(cfg.WhisperURL)
}

// describeWith narrates a snapshot through the vision model.
func describeWith(backend inference.Client) intents.Describer {
	return func(ctx context.Context, instruction string, snapshot *camera.Snapshot) (string, error) {
		prompt := inference.NewPromptContext(instruction)
		prompt.Image = snapshot.Image
		prompt.ImageCamera = snapshot.Camera

		response, err := backend.Infer(ctx, prompt)
		if err != nil {
			return "", err
		}
		if response.Kind != inference.KindAnswered {
			return "", fmt.Errorf("vision model gave no description: %s", response.Text)
		}
		return response.Text, nil
	}
}

// defaultCamera picks the device used for visual questions that don't name a
// room: the front door when mapped, otherwise any mapped camera.
func defaultCamera(devices map[string]string) string {
	if deviceID, ok := devices["front door"]; ok {
		return deviceID
	}
	for _, deviceID := range devices {
		return deviceID
	}
	return ""
}

func runHeadless(ctx context.Context, assistant *orchestration.Orchestrator) error {
	return assistant.Run(ctx,
		orchestration.WithStateChangedCallback(func(from, to string) {
			log.L().Debug("state changed", "from", from, "to", to)
		}),
		orchestration.WithTranscriptionCallback(func(transcript string) {
			log.L().Info("heard", "transcript", transcript)
		}),
		orchestration.WithResponseCallback(func(response string) {
			log.L().Info("answering", "response", response)
		}),
		orchestration.WithAnnouncementQueuedCallback(func(camera, eventKind string) {
			log.L().Info("announcement queued", "camera", camera, "event", eventKind)
		}),
		orchestration.WithDeviceLostCallback(func(err error) {
			log.L().Error("device lost", "error", err)
		}),
	)
}
