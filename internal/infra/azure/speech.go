package azure

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"vision-assistant/internal/domain"
	"vision-assistant/internal/voice"
)

const (
	DefaultOutputFormat = "audio-16khz-128kbitrate-mono-mp3"
	userAgent           = "vision-assistant"
)

// SpeechClient synthesizes speech with the Azure text-to-speech REST API.
type SpeechClient struct {
	client
	outputFormat string
	logger       *slog.Logger
}

func NewSpeechClient(endpoint, key, outputFormat string, logger *slog.Logger) *SpeechClient {
	if outputFormat == "" {
		outputFormat = DefaultOutputFormat
	}
	return &SpeechClient{
		client:       newClient("speech", endpoint, key),
		outputFormat: outputFormat,
		logger:       logger,
	}
}

// SSML wraps text in a speak document for the given voice.
func SSML(req voice.SpeechRequest) string {
	var text bytes.Buffer
	_ = xml.EscapeText(&text, []byte(req.Text))
	return fmt.Sprintf("<speak version='1.0' xml:lang='%s'><voice name='%s'>%s</voice></speak>",
		req.Language, req.Voice, text.String())
}

func (c *SpeechClient) Synthesize(ctx context.Context, req voice.SpeechRequest) ([]byte, error) {
	if err := c.checkConfigured(); err != nil {
		return nil, err
	}

	ssml := SSML(req)
	var audio []byte
	err := c.withRetry(ctx, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/cognitiveservices/v1", strings.NewReader(ssml))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		httpReq.Header.Set(subscriptionKeyHeader, c.key)
		httpReq.Header.Set("Content-Type", "application/ssml+xml")
		httpReq.Header.Set("X-Microsoft-OutputFormat", c.outputFormat)
		httpReq.Header.Set("User-Agent", userAgent)

		resp, err := c.send(httpReq, http.StatusOK)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		audio, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%s: %w: reading audio: %v", c.service, domain.ErrTransport, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("synthesizing speech: %w", err)
	}
	c.logger.Debug("speech synthesized", "voice", req.Voice, "bytes", len(audio))
	return audio, nil
}
