package application

import (
	"context"

	"vision-assistant/internal/domain"
)

// ImageSource captures one picture, blocking until it is available.
type ImageSource interface {
	Capture(ctx context.Context) ([]byte, error)
}

type Locator interface {
	Current(ctx context.Context) (domain.Coordinate, error)
}

type VisionService interface {
	// SubmitRead starts text recognition. The result is normally polled from
	// the returned location.
	SubmitRead(ctx context.Context, image []byte) (domain.Submission[domain.ReadResult], error)
	PollRead(ctx context.Context, location string) (domain.PollResult[domain.ReadResult], error)
	AnalyzeScene(ctx context.Context, image []byte) (domain.SceneAnalysis, error)
	AnalyzeObject(ctx context.Context, image []byte) (domain.ObjectAnalysis, error)
}

// MapsService returns domain.ErrNotFound when a lookup has no answer.
type MapsService interface {
	ReverseGeocode(ctx context.Context, at domain.Coordinate) (string, error)
	NearestPOI(ctx context.Context, category string, at domain.Coordinate) (domain.POI, error)
}
