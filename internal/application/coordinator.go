package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"vision-assistant/internal/classify"
	"vision-assistant/internal/domain"
	"vision-assistant/internal/narration"
	"vision-assistant/internal/workflow"
)

// POI categories searched by the location workflow.
const (
	CategoryBusStop        = "bus stop"
	CategoryRailwayStation = "railway station"
)

// Services are the external collaborators a Coordinator drives.
type Services struct {
	Vision   VisionService
	Maps     MapsService
	Images   ImageSource
	Locator  Locator
	Speaker  Speaker
	Notifier Notifier
	Events   EventSink
}

type Coordinator struct {
	loop       *workflow.Loop
	poller     *workflow.Poller[domain.ReadResult]
	dispatcher *Dispatcher
	currency   *classify.CurrencyClassifier
	svc        Services
	clock      clockwork.Clock
	logger     *slog.Logger
	ready      *workflow.Readiness

	base context.Context

	// current is only read and written on the loop.
	current *session
}

// session is one user request. Completions that arrive for a session that is
// no longer current are dropped.
type session struct {
	domain.CaptureSession
	ctx     context.Context
	cancel  context.CancelFunc
	handle  *workflow.Handle[domain.ReadResult]
	started time.Time
	token   uint64
	done    bool
}

func NewCoordinator(
	loop *workflow.Loop,
	poller *workflow.Poller[domain.ReadResult],
	dispatcher *Dispatcher,
	currency *classify.CurrencyClassifier,
	svc Services,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Coordinator {
	if svc.Notifier == nil {
		svc.Notifier = &NoopNotifier{}
	}
	if svc.Events == nil {
		svc.Events = NoopEvents{}
	}
	return &Coordinator{
		loop:       loop,
		poller:     poller,
		dispatcher: dispatcher,
		currency:   currency,
		svc:        svc,
		clock:      clock,
		logger:     logger,
		ready:      workflow.NewReadiness(),
		base:       context.Background(),
	}
}

// Run processes coordination work until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	c.base = ctx
	return c.loop.Run(ctx)
}

// HandleCommand starts a new session for cmd, superseding the current one.
// The coordinator is busy from this call until the session's final narration
// has played.
func (c *Coordinator) HandleCommand(cmd domain.VoiceCommand) {
	token := c.ready.Busy()
	c.loop.Post(func() { c.start(cmd, token) })
}

// WaitReady blocks until the latest session or greeting has finished speaking.
func (c *Coordinator) WaitReady(ctx context.Context) error {
	return c.ready.Wait(ctx)
}

// Greet speaks the welcome message.
func (c *Coordinator) Greet() {
	token := c.ready.Busy()
	c.loop.Post(func() {
		c.svc.Speaker.Speak(c.base, narration.Welcome, "", func() { c.ready.Done(token) })
	})
}

// Stop abandons the current session and silences playback.
func (c *Coordinator) Stop() {
	token := c.ready.Token()
	c.loop.Post(func() {
		if c.current != nil {
			c.logger.Info("session stopped", "session", c.current.ID)
		}
		c.invalidate()
		c.svc.Speaker.Stop()
		c.publish(nil, EventReady, "")
		c.ready.Done(token)
	})
}

func (c *Coordinator) start(cmd domain.VoiceCommand, token uint64) {
	c.invalidate()

	ctx, cancel := context.WithCancel(c.base)
	s := &session{ctx: ctx, cancel: cancel, started: c.clock.Now(), token: token}
	s.Reset(uuid.NewString())
	route := c.dispatcher.Apply(cmd, &s.CaptureSession)
	c.current = s

	c.svc.Speaker.SetLanguageOverride(s.Language)
	c.logger.Info("session started", "session", s.ID, "command", cmd.String(), "mode", s.Mode, "language", s.Language)
	c.publish(s, EventSessionStarted, cmd.String())

	if !route.Matched {
		c.finish(s, narration.Message(narration.Help))
		return
	}

	prompt := narration.Prompt(s.Mode, s.Language)
	c.publish(s, EventPrompt, prompt)

	if s.Mode.NeedsImage() {
		c.svc.Speaker.Speak(s.ctx, prompt, "", c.inSession(s, func() { c.capture(s) }))
		return
	}
	c.svc.Speaker.Speak(s.ctx, prompt, "", nil)
	c.locate(s)
}

// invalidate cancels everything the current session still has in flight.
func (c *Coordinator) invalidate() {
	s := c.current
	if s == nil {
		return
	}
	if s.handle != nil {
		s.handle.Cancel()
		s.handle = nil
	}
	s.cancel()
	c.current = nil
}

// inSession returns a callback, safe to call from any goroutine, that runs fn
// on the loop if s is still the current session.
func (c *Coordinator) inSession(s *session, fn func()) func() {
	return func() {
		c.loop.Post(func() {
			if c.current != s || s.done {
				c.logger.Debug("dropping stale completion", "session", s.ID)
				return
			}
			fn()
		})
	}
}

func (c *Coordinator) capture(s *session) {
	go func() {
		img, err := c.svc.Images.Capture(s.ctx)
		c.inSession(s, func() {
			if err != nil {
				c.fail(s, fmt.Errorf("%w: %v", domain.ErrCapture, err))
				return
			}
			c.logger.Info("image captured", "session", s.ID, "bytes", len(img))
			c.analyze(s, img)
		})()
	}()
}

func (c *Coordinator) analyze(s *session, img []byte) {
	switch s.Mode {
	case domain.CaptureModeOCR, domain.CaptureModeCurrency:
		go func() {
			sub, err := c.svc.Vision.SubmitRead(s.ctx, img)
			c.inSession(s, func() { c.submitted(s, sub, err) })()
		}()
	case domain.CaptureModeScene:
		go func() {
			a, err := c.svc.Vision.AnalyzeScene(s.ctx, img)
			c.inSession(s, func() {
				if err != nil {
					c.fail(s, err)
					return
				}
				c.finish(s, narration.Scene(a))
			})()
		}()
	case domain.CaptureModeObjectDetail:
		go func() {
			a, err := c.svc.Vision.AnalyzeObject(s.ctx, img)
			c.inSession(s, func() {
				if err != nil {
					c.fail(s, err)
					return
				}
				c.finish(s, narration.Object(a))
			})()
		}()
	default:
		c.fail(s, fmt.Errorf("no image workflow for mode %s", s.Mode))
	}
}

func (c *Coordinator) submitted(s *session, sub domain.Submission[domain.ReadResult], err error) {
	if err != nil {
		c.fail(s, err)
		return
	}
	if !sub.Immediate && sub.Location != "" {
		c.logger.Info("read operation accepted", "session", s.ID, "location", sub.Location)
		c.svc.Speaker.Speak(s.ctx, narration.ImageSubmitted, "", nil)
	}
	s.handle = c.poller.Start(s.ctx, sub, c.svc.Vision.PollRead, func(out domain.Outcome[domain.ReadResult]) {
		c.inSession(s, func() { c.readDone(s, out) })()
	})
}

func (c *Coordinator) readDone(s *session, out domain.Outcome[domain.ReadResult]) {
	s.handle = nil
	if !out.Succeeded() {
		c.logger.Warn("read operation ended", "session", s.ID, "status", out.Status, "attempts", out.Attempts, "error", out.Err)
		c.fail(s, out.Err)
		return
	}

	if s.Mode == domain.CaptureModeCurrency {
		text := out.Payload.Text()
		d := c.currency.Classify(text)
		c.logger.Info("currency classified", "session", s.ID, "value", d.Value, "confidence", d.Confidence)
		c.finish(s, narration.Currency(d))
		return
	}
	c.finish(s, narration.ReadText(out.Payload))
}

func (c *Coordinator) locate(s *session) {
	go func() {
		at, err := c.svc.Locator.Current(s.ctx)
		if err != nil {
			c.inSession(s, func() { c.fail(s, fmt.Errorf("%w: %v", domain.ErrNoLocation, err)) })()
			return
		}
		c.logger.Info("fetching location details", "session", s.ID, "lat", at.Lat, "lon", at.Lon)

		barrier, err := workflow.NewBarrier[domain.Fact, domain.Partial[domain.Place]](len(domain.Facts),
			func(results map[domain.Fact]domain.Partial[domain.Place]) {
				c.inSession(s, func() { c.finish(s, narration.Location(results)) })()
			})
		if err != nil {
			c.inSession(s, func() { c.fail(s, err) })()
			return
		}

		complete := func(f domain.Fact, p domain.Partial[domain.Place]) {
			if err := barrier.Complete(f, p); err != nil {
				c.logger.Error("location join", "session", s.ID, "fact", f, "error", err)
			}
		}
		go func() {
			addr, err := c.svc.Maps.ReverseGeocode(s.ctx, at)
			complete(domain.FactAddress, toPartial(domain.Place{Name: addr}, err))
		}()
		go func() {
			complete(domain.FactBusStop, c.nearest(s, CategoryBusStop, at))
		}()
		go func() {
			complete(domain.FactRailwayStation, c.nearest(s, CategoryRailwayStation, at))
		}()
	}()
}

func (c *Coordinator) nearest(s *session, category string, at domain.Coordinate) domain.Partial[domain.Place] {
	poi, err := c.svc.Maps.NearestPOI(s.ctx, category, at)
	if err != nil {
		c.logger.Warn("poi lookup failed", "session", s.ID, "category", category, "error", err)
		return toPartial(domain.Place{}, err)
	}
	return domain.Found(domain.Place{
		Name:        poi.Name,
		Distance:    domain.Haversine(at, poi.Position),
		HasDistance: true,
	})
}

func toPartial(p domain.Place, err error) domain.Partial[domain.Place] {
	switch {
	case err == nil:
		return domain.Found(p)
	case errors.Is(err, domain.ErrNotFound):
		return domain.NotFound[domain.Place]()
	default:
		return domain.Failed[domain.Place](err)
	}
}

func (c *Coordinator) fail(s *session, err error) {
	c.logger.Error("workflow failed", "session", s.ID, "mode", s.Mode, "error", err)
	n := narration.Failure(err)
	c.publish(s, EventFailure, err.Error())
	c.finish(s, n)
}

// finish speaks the final narration and returns to ready. The session stays
// current so its narration can still be stopped.
func (c *Coordinator) finish(s *session, n narration.Narration) {
	s.done = true
	text := n.String()
	c.logger.Info("narrating", "session", s.ID, "mode", s.Mode, "elapsed", c.clock.Since(s.started), "text", text)

	c.svc.Speaker.Speak(s.ctx, text, n.Language, func() { c.ready.Done(s.token) })
	c.publish(s, EventNarration, text)
	c.publish(s, EventReady, "")

	go func(ctx context.Context) {
		if err := c.svc.Notifier.Notify(ctx, text); err != nil {
			c.logger.Error("notifying result", "error", err)
		}
	}(c.base)
}

func (c *Coordinator) publish(s *session, t EventType, text string) {
	e := Event{Type: t, Text: text, Time: c.clock.Now()}
	if s != nil {
		e.Session = s.ID
		e.Mode = s.Mode
	}
	c.svc.Events.Publish(e)
}
