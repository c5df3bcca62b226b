//go:build !portaudio

package source_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"vision-assistant/internal/domain"
	"vision-assistant/internal/infra/source"
)

func TestMicrophoneSource_Unavailable(t *testing.T) {
	mic := source.NewMicrophoneSource(16000, 500, discardLogger())

	assert.ErrorIs(t, mic.Start(context.Background()), domain.ErrNotConfigured)
	_, err := mic.NextCommand(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.NoError(t, mic.Stop())
}
