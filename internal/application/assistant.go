package application

import (
	"context"
	"fmt"
	"log/slog"

	"vision-assistant/internal/domain"
	"vision-assistant/internal/narration"
)

// CommandHandler receives normalized commands; the Coordinator is one.
type CommandHandler interface {
	HandleCommand(cmd domain.VoiceCommand)
	// WaitReady returns once the handler has finished speaking its last result.
	WaitReady(ctx context.Context) error
}

type Assistant struct {
	source  CommandSource
	stt     SpeechToText
	handler CommandHandler
	speaker Speaker
	prompt  string
	logger  *slog.Logger
}

// NewAssistant builds the command loop. When prompt is not empty it is spoken
// before each command is captured, and capture waits until it has played.
func NewAssistant(
	source CommandSource,
	stt SpeechToText,
	handler CommandHandler,
	speaker Speaker,
	prompt string,
	logger *slog.Logger,
) *Assistant {
	return &Assistant{
		source:  source,
		stt:     stt,
		handler: handler,
		speaker: speaker,
		prompt:  prompt,
		logger:  logger,
	}
}

func (a *Assistant) Run(ctx context.Context) error {
	a.logger.Info("starting command source", "source", a.source.Name())
	if err := a.source.Start(ctx); err != nil {
		return fmt.Errorf("starting command source: %w", err)
	}
	defer a.source.Stop()

	a.logger.Info("assistant ready, listening for commands")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := a.processOneCommand(ctx); err != nil {
				a.logger.Error("processing command", "error", err)
			}
		}
	}
}

func (a *Assistant) processOneCommand(ctx context.Context) error {
	if err := a.speakPrompt(ctx); err != nil {
		return err
	}

	data, err := a.source.NextCommand(ctx)
	if err != nil {
		return fmt.Errorf("getting command: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var text string

	if directText, isText := isTextCommand(data); isText {
		a.logger.Info("received text command directly", "text", directText)
		text = directText
	} else {
		a.logger.Info("received audio", "bytes", len(data))

		var err error
		text, err = a.stt.Transcribe(ctx, data)
		if err != nil {
			a.say(ctx, narration.Transcription(err).String())
			return fmt.Errorf("transcribing: %w", err)
		}

		a.logger.Info("transcribed", "text", text)
	}

	cmd := domain.NormalizeCommand(text)
	if cmd == "" {
		a.logger.Warn("empty command, skipping")
		return nil
	}

	a.handler.HandleCommand(cmd)
	return nil
}

// speakPrompt waits for the previous result to finish playing, then blocks
// until the listening prompt has played.
func (a *Assistant) speakPrompt(ctx context.Context) error {
	if a.prompt == "" || a.speaker == nil {
		return nil
	}
	if err := a.handler.WaitReady(ctx); err != nil {
		return err
	}
	return a.say(ctx, a.prompt)
}

// say speaks text and waits until it has played.
func (a *Assistant) say(ctx context.Context, text string) error {
	if a.speaker == nil {
		return nil
	}
	done := make(chan struct{})
	a.speaker.Speak(ctx, text, "", func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isTextCommand(data []byte) (string, bool) {
	if len(data) > len(domain.TextCommandPrefix) && string(data[:len(domain.TextCommandPrefix)]) == domain.TextCommandPrefix {
		return string(data[len(domain.TextCommandPrefix):]), true
	}
	return "", false
}
