package application_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vision-assistant/internal/application"
	"vision-assistant/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type spoken struct {
	text string
	hint string
}

// fakeSpeaker finishes every utterance immediately.
type fakeSpeaker struct {
	mu       sync.Mutex
	log      []spoken
	override string
	stops    int
	ch       chan spoken
}

func newFakeSpeaker() *fakeSpeaker {
	return &fakeSpeaker{ch: make(chan spoken, 64)}
}

func (f *fakeSpeaker) Speak(_ context.Context, text, hint string, onDone func()) {
	f.mu.Lock()
	f.log = append(f.log, spoken{text: text, hint: hint})
	f.mu.Unlock()
	f.ch <- spoken{text: text, hint: hint}
	if onDone != nil {
		onDone()
	}
}

func (f *fakeSpeaker) SetLanguageOverride(lang string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.override = lang
}

func (f *fakeSpeaker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeSpeaker) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.log))
	for _, s := range f.log {
		out = append(out, s.text)
	}
	return out
}

func (f *fakeSpeaker) said(substr string) bool {
	for _, t := range f.texts() {
		if strings.Contains(t, substr) {
			return true
		}
	}
	return false
}

// waitFor returns the first utterance containing substr.
func (f *fakeSpeaker) waitFor(t *testing.T, substr string) spoken {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-f.ch:
			if strings.Contains(s.text, substr) {
				return s
			}
		case <-timeout:
			t.Fatalf("never spoke %q; said %q", substr, f.texts())
			return spoken{}
		}
	}
}

type fakeVision struct {
	submit    domain.Submission[domain.ReadResult]
	submitErr error
	poll      func(n int) (domain.PollResult[domain.ReadResult], error)
	polls     atomic.Int32

	scene      domain.SceneAnalysis
	sceneErr   error
	sceneGate  chan struct{}
	sceneEnter chan struct{}
	object     domain.ObjectAnalysis
}

func (f *fakeVision) SubmitRead(_ context.Context, _ []byte) (domain.Submission[domain.ReadResult], error) {
	return f.submit, f.submitErr
}

func (f *fakeVision) PollRead(_ context.Context, _ string) (domain.PollResult[domain.ReadResult], error) {
	n := int(f.polls.Add(1)) - 1
	return f.poll(n)
}

// AnalyzeScene ignores ctx so a late answer can reach a superseded session.
func (f *fakeVision) AnalyzeScene(_ context.Context, _ []byte) (domain.SceneAnalysis, error) {
	if f.sceneEnter != nil {
		f.sceneEnter <- struct{}{}
	}
	if f.sceneGate != nil {
		<-f.sceneGate
	}
	return f.scene, f.sceneErr
}

func (f *fakeVision) AnalyzeObject(_ context.Context, _ []byte) (domain.ObjectAnalysis, error) {
	return f.object, nil
}

type fakeImages struct {
	err   error
	block bool
}

func (f *fakeImages) Capture(ctx context.Context) ([]byte, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte("jpeg"), nil
}

type fakeLocator struct {
	at  domain.Coordinate
	err error
}

func (f *fakeLocator) Current(_ context.Context) (domain.Coordinate, error) {
	return f.at, f.err
}

type fakeMaps struct {
	address    string
	addressErr error
	pois       map[string]domain.POI
	poiErrs    map[string]error
}

func (f *fakeMaps) ReverseGeocode(_ context.Context, _ domain.Coordinate) (string, error) {
	return f.address, f.addressErr
}

func (f *fakeMaps) NearestPOI(_ context.Context, category string, _ domain.Coordinate) (domain.POI, error) {
	if err, ok := f.poiErrs[category]; ok {
		return domain.POI{}, err
	}
	if poi, ok := f.pois[category]; ok {
		return poi, nil
	}
	return domain.POI{}, domain.ErrNotFound
}

type recordingEvents struct {
	mu     sync.Mutex
	events []application.Event
}

func (r *recordingEvents) Publish(e application.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEvents) ofType(t application.EventType) []application.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []application.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type recordingNotifier struct {
	ch chan string
}

func (r *recordingNotifier) Notify(_ context.Context, message string) error {
	r.ch <- message
	return nil
}
