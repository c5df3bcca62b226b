package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"vision-assistant/internal/domain"
	"vision-assistant/internal/infra"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// WhisperClient transcribes spoken commands.
type WhisperClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	language   string
	retry      infra.RetryConfig
	logger     *slog.Logger
}

func NewWhisperClient(apiKey, language string, logger *slog.Logger) *WhisperClient {
	return NewWhisperClientWithURL(DefaultBaseURL, apiKey, language, logger)
}

func NewWhisperClientWithURL(baseURL, apiKey, language string, logger *slog.Logger) *WhisperClient {
	return &WhisperClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   language,
		retry:      infra.DefaultRetryConfig(),
		logger:     logger,
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (c *WhisperClient) form(audio []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err = part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("writing audio: %w", err)
	}
	if err = writer.WriteField("model", "whisper-1"); err != nil {
		return nil, "", fmt.Errorf("writing model field: %w", err)
	}
	// an empty language lets Whisper detect it
	if c.language != "" {
		if err = writer.WriteField("language", c.language); err != nil {
			return nil, "", fmt.Errorf("writing language field: %w", err)
		}
	}
	if err = writer.Close(); err != nil {
		return nil, "", fmt.Errorf("closing writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("whisper: %w", domain.ErrNotConfigured)
	}

	var result transcriptionResponse
	retryErr := infra.WithRetry(ctx, c.retry, func() error {
		body, contentType, err := c.form(audio)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", body)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return infra.TransportError("whisper", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return infra.StatusError("whisper", resp)
		}

		if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("whisper: %w: %v", domain.ErrParse, err)
		}
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("transcribing: %w", retryErr)
	}

	c.logger.Debug("transcribed", "text", result.Text)
	return result.Text, nil
}
