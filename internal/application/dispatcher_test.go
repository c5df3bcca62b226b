package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vision-assistant/internal/application"
	"vision-assistant/internal/domain"
)

func TestDispatcher_Route(t *testing.T) {
	tests := []struct {
		command  string
		mode     domain.CaptureMode
		language string
	}{
		{"read kannada text", domain.CaptureModeOCR, "kn-IN"},
		{"please read kannada", domain.CaptureModeOCR, "kn-IN"},
		{"read this", domain.CaptureModeOCR, ""},
		{"can you read text for me", domain.CaptureModeOCR, ""},
		{"where am I", domain.CaptureModeLocation, ""},
		{"what's my location", domain.CaptureModeLocation, ""},
		{"What’s around me?", domain.CaptureModeScene, ""},
		{"describe scene", domain.CaptureModeScene, ""},
		{"what is this", domain.CaptureModeScene, ""},
		{"what is this thing", domain.CaptureModeObjectDetail, ""},
		{"analyse", domain.CaptureModeObjectDetail, ""},
		{"describe this item", domain.CaptureModeObjectDetail, ""},
		{"identify currency", domain.CaptureModeCurrency, ""},
		{"recognize money", domain.CaptureModeCurrency, ""},
	}

	d := application.NewDispatcher()
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			r := d.Route(domain.NormalizeCommand(tt.command))
			assert.True(t, r.Matched)
			assert.Equal(t, tt.mode, r.Mode)
			assert.Equal(t, tt.language, r.Language)
		})
	}
}

func TestDispatcher_ApplyResetsLanguage(t *testing.T) {
	d := application.NewDispatcher()
	s := domain.CaptureSession{ID: "s1", Mode: domain.CaptureModeOCR, Language: "kn-IN"}

	r := d.Apply(domain.NormalizeCommand("turn on the lights"), &s)
	assert.False(t, r.Matched)
	assert.Equal(t, domain.CaptureModeNone, s.Mode)
	assert.Empty(t, s.Language)

	d.Apply(domain.NormalizeCommand("read this"), &s)
	assert.Equal(t, domain.CaptureModeOCR, s.Mode)
	assert.Empty(t, s.Language)
}
