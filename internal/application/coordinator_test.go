package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vision-assistant/internal/application"
	"vision-assistant/internal/classify"
	"vision-assistant/internal/domain"
	"vision-assistant/internal/narration"
	"vision-assistant/internal/workflow"
)

type harness struct {
	ctx      context.Context
	coord    *application.Coordinator
	clock    *clockwork.FakeClock
	speaker  *fakeSpeaker
	vision   *fakeVision
	images   *fakeImages
	locator  *fakeLocator
	maps     *fakeMaps
	events   *recordingEvents
	notifier *recordingNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:    clockwork.NewFakeClock(),
		speaker:  newFakeSpeaker(),
		vision:   &fakeVision{},
		images:   &fakeImages{},
		locator:  &fakeLocator{at: domain.Coordinate{Lat: 12.9716, Lon: 77.5946}},
		maps:     &fakeMaps{},
		events:   &recordingEvents{},
		notifier: &recordingNotifier{ch: make(chan string, 16)},
	}
	logger := discardLogger()
	h.coord = application.NewCoordinator(
		workflow.NewLoop(logger),
		workflow.NewPoller[domain.ReadResult](workflow.DefaultPollPolicy(), h.clock, logger),
		application.NewDispatcher(),
		classify.NewCurrencyClassifier(classify.MatchSubstring),
		application.Services{
			Vision:   h.vision,
			Maps:     h.maps,
			Images:   h.images,
			Locator:  h.locator,
			Speaker:  h.speaker,
			Notifier: h.notifier,
			Events:   h.events,
		},
		h.clock,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h.ctx = ctx
	go func() { _ = h.coord.Run(ctx) }()
	return h
}

func readResult(lang string, lines ...string) domain.ReadResult {
	return domain.ReadResult{Pages: []domain.ReadPage{{Language: lang, Lines: lines}}}
}

func alwaysRunning(int) (domain.PollResult[domain.ReadResult], error) {
	return domain.PollResult[domain.ReadResult]{Status: domain.StatusRunning}, nil
}

func TestCoordinator_ReadTextAfterPolling(t *testing.T) {
	h := newHarness(t)
	h.vision.submit = domain.Accepted[domain.ReadResult]("https://vision/operations/1")
	h.vision.poll = func(n int) (domain.PollResult[domain.ReadResult], error) {
		if n == 0 {
			return alwaysRunning(n)
		}
		return domain.PollResult[domain.ReadResult]{Status: domain.StatusSucceeded, Payload: readResult("kn", "ಹಲೋ", "ಬೆಂಗಳೂರು")}, nil
	}

	h.coord.HandleCommand(domain.NormalizeCommand("Read this"))
	h.speaker.waitFor(t, "Opening camera")
	h.speaker.waitFor(t, narration.ImageSubmitted)

	require.NoError(t, h.clock.BlockUntilContext(h.ctx, 1))
	h.clock.Advance(3 * time.Second)

	got := h.speaker.waitFor(t, "Text found:")
	assert.Equal(t, "Text found: ಹಲೋ ಬೆಂಗಳೂರು", got.text)
	assert.Equal(t, "kn", got.hint)
	assert.EqualValues(t, 2, h.vision.polls.Load())
	assert.Equal(t, "Text found: ಹಲೋ ಬೆಂಗಳೂರು", <-h.notifier.ch)

	ready := h.events.ofType(application.EventReady)
	require.Len(t, ready, 1)
	assert.Equal(t, domain.CaptureModeOCR, ready[0].Mode)
}

func TestCoordinator_KannadaOverride(t *testing.T) {
	h := newHarness(t)
	h.vision.submit = domain.ImmediateResult(readResult("en", "hello"))

	h.coord.HandleCommand(domain.NormalizeCommand("read kannada text"))
	h.speaker.waitFor(t, "Kannada")
	h.speaker.waitFor(t, "Text found: hello")

	h.speaker.mu.Lock()
	defer h.speaker.mu.Unlock()
	assert.Equal(t, "kn-IN", h.speaker.override)
}

func TestCoordinator_CurrencyImmediate(t *testing.T) {
	h := newHarness(t)
	h.vision.submit = domain.ImmediateResult(readResult("en", "RESERVE BANK OF INDIA", "₹2000"))

	h.coord.HandleCommand(domain.NormalizeCommand("identify currency"))
	h.speaker.waitFor(t, "Detected 2000 rupees")

	assert.False(t, h.speaker.said(narration.ImageSubmitted))
	assert.EqualValues(t, 0, h.vision.polls.Load())
}

func TestCoordinator_ReadTimesOut(t *testing.T) {
	h := newHarness(t)
	h.vision.submit = domain.Accepted[domain.ReadResult]("https://vision/operations/2")
	h.vision.poll = alwaysRunning
	policy := workflow.DefaultPollPolicy()

	h.coord.HandleCommand(domain.NormalizeCommand("read text"))
	h.speaker.waitFor(t, narration.ImageSubmitted)

	for i := 0; i < policy.MaxAttempts; i++ {
		require.NoError(t, h.clock.BlockUntilContext(h.ctx, 1))
		h.clock.Advance(policy.Delay(i))
	}

	h.speaker.waitFor(t, narration.Failure(domain.ErrTimedOut).String())
	assert.EqualValues(t, 15, h.vision.polls.Load())
	assert.Len(t, h.events.ofType(application.EventFailure), 1)
}

func TestCoordinator_SubmitFailures(t *testing.T) {
	tests := []struct {
		name    string
		submit  domain.Submission[domain.ReadResult]
		err     error
		wantErr error
	}{
		{name: "missing operation location", submit: domain.Accepted[domain.ReadResult](""), wantErr: domain.ErrMissingHandle},
		{name: "transport", err: domain.ErrTransport, wantErr: domain.ErrTransport},
		{name: "not configured", err: domain.ErrNotConfigured, wantErr: domain.ErrNotConfigured},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.vision.submit = tt.submit
			h.vision.submitErr = tt.err

			h.coord.HandleCommand(domain.NormalizeCommand("read this"))
			h.speaker.waitFor(t, narration.Failure(tt.wantErr).String())
		})
	}
}

func TestCoordinator_SceneAndObject(t *testing.T) {
	h := newHarness(t)
	h.vision.scene = domain.SceneAnalysis{Caption: "a person sitting on a bench", Objects: []string{"person", "bench"}}
	h.vision.object = domain.ObjectAnalysis{Objects: []string{"bottle"}, DominantColors: []string{"Green"}, Tags: []string{"green", "water bottle", "text"}}

	h.coord.HandleCommand(domain.NormalizeCommand("what's around me"))
	h.speaker.waitFor(t, "A person sitting on a bench. I can also see person, bench.")

	h.coord.HandleCommand(domain.NormalizeCommand("what is this thing"))
	h.speaker.waitFor(t, "Detected object: Bottle. Main colors: Green. Details: water bottle.")
}

func TestCoordinator_CaptureFailure(t *testing.T) {
	h := newHarness(t)
	h.images.err = errors.New("camera busy")

	h.coord.HandleCommand(domain.NormalizeCommand("describe scene"))
	h.speaker.waitFor(t, narration.Failure(domain.ErrCapture).String())
}

func TestCoordinator_LocationPartialFailure(t *testing.T) {
	h := newHarness(t)
	h.maps.address = "12 Main St"
	h.maps.poiErrs = map[string]error{application.CategoryBusStop: domain.ErrTransport}
	h.maps.pois = map[string]domain.POI{
		// about 120 m north
		application.CategoryRailwayStation: {Name: "Central Station", Position: domain.Coordinate{Lat: 12.97268, Lon: 77.5946}},
	}

	h.coord.HandleCommand(domain.NormalizeCommand("where am I"))
	h.speaker.waitFor(t, narration.GettingPlace)
	got := h.speaker.waitFor(t, "12 Main St")

	assert.Equal(t,
		"You are at 12 Main St. Sorry, I could not look up the nearest bus stop. Nearest railway station: Central Station, approximately 120 meters away.",
		got.text)
}

func TestCoordinator_LocationNothingNearby(t *testing.T) {
	h := newHarness(t)
	h.maps.addressErr = domain.ErrNotFound

	h.coord.HandleCommand(domain.NormalizeCommand("location"))
	got := h.speaker.waitFor(t, "address")
	assert.Equal(t, "Current address could not be determined. No bus stop found nearby. No railway station found nearby.", got.text)
}

func TestCoordinator_LocationUnavailable(t *testing.T) {
	h := newHarness(t)
	h.locator.err = errors.New("no fix")

	h.coord.HandleCommand(domain.NormalizeCommand("where am i"))
	h.speaker.waitFor(t, narration.Failure(domain.ErrNoLocation).String())
}

func TestCoordinator_UnknownCommandSpeaksHelp(t *testing.T) {
	h := newHarness(t)

	h.coord.HandleCommand(domain.NormalizeCommand("sing a song"))
	h.speaker.waitFor(t, narration.Help)
	assert.Len(t, h.events.ofType(application.EventReady), 1)
}

func TestCoordinator_NewSessionDiscardsPendingPoll(t *testing.T) {
	h := newHarness(t)
	h.vision.submit = domain.Accepted[domain.ReadResult]("https://vision/operations/3")
	h.vision.poll = func(n int) (domain.PollResult[domain.ReadResult], error) {
		if n == 0 {
			return alwaysRunning(n)
		}
		return domain.PollResult[domain.ReadResult]{Status: domain.StatusSucceeded, Payload: readResult("en", "stale")}, nil
	}
	h.vision.scene = domain.SceneAnalysis{Caption: "a park"}

	h.coord.HandleCommand(domain.NormalizeCommand("read this"))
	h.speaker.waitFor(t, narration.ImageSubmitted)
	require.NoError(t, h.clock.BlockUntilContext(h.ctx, 1))

	h.coord.HandleCommand(domain.NormalizeCommand("describe scene"))
	h.speaker.waitFor(t, "A park.")

	h.clock.Advance(time.Minute)
	assert.Never(t, func() bool { return h.speaker.said("stale") }, 100*time.Millisecond, 10*time.Millisecond)
	assert.EqualValues(t, 1, h.vision.polls.Load())

	narrations := h.events.ofType(application.EventNarration)
	require.Len(t, narrations, 1)
	assert.Equal(t, domain.CaptureModeScene, narrations[0].Mode)
}

func TestCoordinator_LateAnalysisDropped(t *testing.T) {
	h := newHarness(t)
	h.vision.scene = domain.SceneAnalysis{Caption: "a cat"}
	h.vision.sceneGate = make(chan struct{})
	h.vision.sceneEnter = make(chan struct{}, 1)
	h.vision.submit = domain.ImmediateResult(readResult("en", "500 rupees"))

	h.coord.HandleCommand(domain.NormalizeCommand("describe scene"))
	<-h.vision.sceneEnter

	h.coord.HandleCommand(domain.NormalizeCommand("identify currency"))
	h.speaker.waitFor(t, "Detected 500 rupees")

	close(h.vision.sceneGate)
	assert.Never(t, func() bool { return h.speaker.said("A cat") }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestCoordinator_Stop(t *testing.T) {
	h := newHarness(t)
	h.images.block = true

	h.coord.HandleCommand(domain.NormalizeCommand("read this"))
	h.speaker.waitFor(t, "Opening camera")

	h.coord.Stop()
	assert.Eventually(t, func() bool {
		h.speaker.mu.Lock()
		defer h.speaker.mu.Unlock()
		return h.speaker.stops == 1
	}, time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return h.speaker.said("Failed to capture") }, 100*time.Millisecond, 10*time.Millisecond)
	assert.Len(t, h.events.ofType(application.EventReady), 1)
}

func TestCoordinator_Greet(t *testing.T) {
	h := newHarness(t)
	h.coord.Greet()
	h.speaker.waitFor(t, narration.Welcome)
}
