package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vision-assistant/internal/domain"
)

func TestNormalizeCommand(t *testing.T) {
	assert.Equal(t, domain.VoiceCommand("read this"), domain.NormalizeCommand("  Read THIS \n"))
	assert.Equal(t, domain.VoiceCommand("what's around me"), domain.NormalizeCommand("What’s around me"))
}

func TestHaversine(t *testing.T) {
	a := domain.Coordinate{Lat: 12.9716, Lon: 77.5946}

	assert.Zero(t, domain.Haversine(a, a))

	// one degree of latitude is ~111.2 km on a 6371 km sphere
	b := domain.Coordinate{Lat: 13.9716, Lon: 77.5946}
	d := domain.Haversine(a, b)
	assert.InDelta(t, 111195, d, 1)
	assert.InDelta(t, d, domain.Haversine(b, a), 1e-6)
}

func TestSentinelDistance(t *testing.T) {
	tests := []struct {
		name string
		in   domain.Partial[domain.Place]
		want float64
	}{
		{"value", domain.Found(domain.Place{Name: "Stop", Distance: 42.5, HasDistance: true}), 42.5},
		{"not found", domain.NotFound[domain.Place](), domain.DistanceNotFound},
		{"error", domain.Failed[domain.Place](domain.ErrTransport), domain.DistanceError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.SentinelDistance(tt.in))
		})
	}
}

func TestReadResult_Text(t *testing.T) {
	r := domain.ReadResult{Pages: []domain.ReadPage{
		{Language: "kn", Lines: []string{"first line", "second"}},
		{Lines: []string{"", "third"}},
	}}

	assert.Equal(t, "first line second third", r.Text())
	assert.Equal(t, "kn", r.DetectedLanguage())
	assert.Empty(t, domain.ReadResult{}.DetectedLanguage())
}

func TestOperationStatus_Terminal(t *testing.T) {
	for _, s := range []domain.OperationStatus{domain.StatusSucceeded, domain.StatusFailed, domain.StatusTimedOut} {
		assert.True(t, s.Terminal(), s.String())
	}
	for _, s := range []domain.OperationStatus{domain.StatusAccepted, domain.StatusRunning} {
		assert.False(t, s.Terminal(), s.String())
	}
}
