package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"vision-assistant/config"
	"vision-assistant/internal/application"
	"vision-assistant/internal/classify"
	"vision-assistant/internal/domain"
	"vision-assistant/internal/infra/azure"
	"vision-assistant/internal/infra/edge"
	"vision-assistant/internal/infra/events"
	"vision-assistant/internal/infra/openai"
	"vision-assistant/internal/infra/playback"
	"vision-assistant/internal/infra/pushover"
	"vision-assistant/internal/infra/source"
	"vision-assistant/internal/narration"
	"vision-assistant/internal/voice"
	"vision-assistant/internal/workflow"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)
	if err := cfg.Validate(); err != nil {
		logger.Warn("some services are not configured and will report it when used", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	clock := clockwork.NewRealClock()

	// The HTTP server always runs: besides commands it takes images,
	// positions and stop requests, and serves the event feed.
	httpSource := source.NewHTTPSource(cfg.Input.HTTPAddr, cfg.Input.AuthToken, logger)
	hub := events.NewHub(logger)
	httpSource.Handle("GET /events", hub)
	if err := httpSource.Start(ctx); err != nil {
		logger.Error("starting http server", "error", err)
		os.Exit(1)
	}
	defer httpSource.Stop()

	player, closePlayer := createPlayer(cfg.Playback, clock, logger)
	defer closePlayer()

	chain := voice.NewChain(createSynthesizer(cfg.Speech, logger), player, createSelector(cfg.Speech), logger)

	var notifier application.Notifier
	if cfg.Pushover.Enabled {
		notifier = pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey)
	} else {
		notifier = &application.NoopNotifier{}
	}

	services := application.Services{
		Vision:   azure.NewVisionClient(cfg.Vision.Endpoint, cfg.Vision.Key, cfg.Vision.APIVersion, logger),
		Maps:     azure.NewMapsClient(cfg.Maps.BaseURL, cfg.Maps.Key, cfg.Maps.APIVersion, cfg.Maps.SearchRadius, logger),
		Images:   createImageSource(cfg.Camera, httpSource),
		Locator:  createLocator(cfg.Location, httpSource),
		Speaker:  chain,
		Notifier: notifier,
		Events:   hub,
	}

	poller := workflow.NewPoller[domain.ReadResult](workflow.PollPolicy{
		InitialDelay: cfg.Polling.InitialDelay,
		Interval:     cfg.Polling.Interval,
		MaxAttempts:  cfg.Polling.MaxAttempts,
	}, clock, logger)

	coordinator := application.NewCoordinator(
		workflow.NewLoop(logger),
		poller,
		application.NewDispatcher(),
		classify.NewCurrencyClassifier(classify.MatchMode(cfg.Currency.Match)),
		services,
		clock,
		logger,
	)
	httpSource.OnStop(coordinator.Stop)

	var stt application.SpeechToText = &application.NoopSTT{}
	if cfg.OpenAI.APIKey != "" {
		stt = openai.NewWhisperClient(cfg.OpenAI.APIKey, cfg.OpenAI.Language, logger)
	}

	var prompt string
	if cfg.Input.ListenPrompt {
		prompt = narration.ListeningCue
	}

	assistant := application.NewAssistant(
		createCommandSource(cfg.Input, httpSource, logger),
		stt,
		coordinator,
		chain,
		prompt,
		logger,
	)

	logger.Info("starting vision assistant",
		"input", cfg.Input.Source,
		"camera", cfg.Camera.Source,
		"location", cfg.Location.Source,
		"speech", cfg.Speech.Provider,
		"playback", cfg.Playback.Device,
	)

	go func() {
		if err := coordinator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("coordinator error", "error", err)
			cancel()
		}
	}()
	coordinator.Greet()

	if err := assistant.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("assistant error", "error", err)
		os.Exit(1)
	}
}

func createCommandSource(cfg config.InputConfig, httpSource *source.HTTPSource, logger *slog.Logger) application.CommandSource {
	switch cfg.Source {
	case "file":
		return source.NewFileSource(cfg.FileDir, source.AudioExtensions)
	case "microphone":
		return source.NewMicrophoneSource(cfg.SampleRate, cfg.Threshold, logger)
	default:
		return httpSource
	}
}

func createImageSource(cfg config.CameraConfig, httpSource *source.HTTPSource) application.ImageSource {
	if cfg.Source == "file" {
		return source.NewFileSource(cfg.Dir, source.ImageExtensions)
	}
	return httpSource
}

func createLocator(cfg config.LocationConfig, httpSource *source.HTTPSource) application.Locator {
	if cfg.Source == "static" {
		return source.StaticLocator{At: domain.Coordinate{Lat: cfg.Lat, Lon: cfg.Lon}}
	}
	return httpSource
}

func createSynthesizer(cfg config.SpeechConfig, logger *slog.Logger) voice.Synthesizer {
	if cfg.Provider == "edge" {
		return edge.NewSynthesizer(edge.Options{Rate: cfg.Rate}, logger)
	}
	return azure.NewSpeechClient(cfg.Endpoint, cfg.Key, cfg.OutputFormat, logger)
}

func createSelector(cfg config.SpeechConfig) *voice.Selector {
	families := make(map[string]voice.Voice, len(cfg.Voices))
	for prefix, v := range cfg.Voices {
		families[prefix] = voice.Voice{Language: v.Language, Name: v.Name}
	}
	return voice.NewSelector(voice.Voice{Language: cfg.DefaultVoice.Language, Name: cfg.DefaultVoice.Name}, families)
}

func createPlayer(cfg config.PlaybackConfig, clock clockwork.Clock, logger *slog.Logger) (voice.Player, func()) {
	if cfg.Device == "speaker" {
		speaker := playback.NewSpeaker(logger)
		if err := speaker.Start(); err != nil {
			logger.Warn("speaker unavailable, saving speech to files", "error", err, "dir", cfg.Dir)
		} else {
			return speaker, func() { speaker.Close() }
		}
	}
	return playback.NewFilePlayer(cfg.Dir, clock, logger), func() {}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
