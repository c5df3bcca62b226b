package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"vision-assistant/internal/domain"
)

// HTTPSource receives commands, camera images and the device position over
// HTTP. It serves as command source, image source and locator at once.
type HTTPSource struct {
	addr        string
	server      *http.Server
	commandChan chan []byte
	imageChan   chan []byte
	logger      *slog.Logger
	mu          sync.Mutex
	running     bool
	mux         *http.ServeMux
	closeOnce   sync.Once
	rateLimiter *RateLimiter
	authToken   string

	location    domain.Coordinate
	hasLocation bool
	onStop      func()

	// captures counts Capture calls waiting for an image.
	imageMu  sync.Mutex
	captures int
}

func NewHTTPSource(addr string, authToken string, logger *slog.Logger) *HTTPSource {
	h := &HTTPSource{
		addr:        addr,
		commandChan: make(chan []byte, 10),
		imageChan:   make(chan []byte, 1),
		logger:      logger,
		mux:         http.NewServeMux(),
		rateLimiter: NewRateLimiter(30, time.Minute, clockwork.NewRealClock()), // 30 requests per minute per IP
		authToken:   authToken,
	}
	// Apply rate limiting to command endpoints
	h.mux.HandleFunc("POST /audio", h.rateLimiter.Middleware(h.handleAudio))
	h.mux.HandleFunc("POST /text", h.rateLimiter.Middleware(h.handleText))
	h.mux.HandleFunc("POST /alexa", h.rateLimiter.Middleware(h.handleAlexa))
	h.mux.HandleFunc("POST /image", h.rateLimiter.Middleware(h.handleImage))
	h.mux.HandleFunc("POST /location", h.handleLocation)
	h.mux.HandleFunc("POST /stop", h.handleStop)
	// No rate limiting on health check
	h.mux.HandleFunc("GET /health", h.handleHealth)
	return h
}

func (h *HTTPSource) Name() string {
	return "http"
}

// Handle mounts an extra handler on the source's server.
func (h *HTTPSource) Handle(pattern string, handler http.Handler) {
	h.mux.Handle(pattern, handler)
}

// OnStop registers the action run for POST /stop.
func (h *HTTPSource) OnStop(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onStop = fn
}

func (h *HTTPSource) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}

	h.server = &http.Server{
		Addr:        h.addr,
		Handler:     h.mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		h.logger.Info("HTTP command server starting", "addr", h.addr)
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", "error", err)
		}
	}()

	h.running = true
	return nil
}

func (h *HTTPSource) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return nil
	}

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.server.Shutdown(ctx); err != nil {
			h.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := h.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	h.closeOnce.Do(func() {
		close(h.commandChan)
	})
	h.running = false
	return nil
}

func (h *HTTPSource) NextCommand(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data, ok := <-h.commandChan:
		if !ok {
			return nil, fmt.Errorf("command channel closed")
		}
		return data, nil
	}
}

// Capture waits for the next image posted to /image. Images posted while no
// Capture is waiting are rejected, and one left over by a cancelled Capture is
// discarded.
func (h *HTTPSource) Capture(ctx context.Context) ([]byte, error) {
	h.logger.Info("waiting for image upload")
	h.imageMu.Lock()
	h.captures++
	h.imageMu.Unlock()

	select {
	case <-ctx.Done():
		h.imageMu.Lock()
		h.captures--
		if h.captures == 0 {
			select {
			case <-h.imageChan:
				h.logger.Debug("discarding image for cancelled capture")
			default:
			}
		}
		h.imageMu.Unlock()
		return nil, ctx.Err()
	case img := <-h.imageChan:
		h.imageMu.Lock()
		h.captures--
		h.imageMu.Unlock()
		return img, nil
	}
}

// Current returns the last position posted to /location.
func (h *HTTPSource) Current(_ context.Context) (domain.Coordinate, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.hasLocation {
		return domain.Coordinate{}, fmt.Errorf("no position posted yet: %w", domain.ErrNoLocation)
	}
	return h.location, nil
}

func (h *HTTPSource) Handler() http.Handler {
	return h.mux
}

func (h *HTTPSource) InjectCommand(data []byte) {
	select {
	case h.commandChan <- data:
	default:
	}
}

func (h *HTTPSource) handleAudio(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 10*1024*1024))
	if err != nil {
		h.logger.Error("reading audio body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if len(data) == 0 {
		http.Error(w, "empty audio", http.StatusBadRequest)
		return
	}

	select {
	case h.commandChan <- data:
		h.logger.Info("received audio via HTTP", "bytes", len(data))
		writeJSON(w, http.StatusAccepted, map[string]any{"status": "received", "bytes": len(data)})
	default:
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
	}
}

func (h *HTTPSource) handleText(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 1024))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	text := string(data)
	if text == "" {
		http.Error(w, "empty text", http.StatusBadRequest)
		return
	}

	marker := []byte(domain.TextCommandPrefix + text)

	select {
	case h.commandChan <- marker:
		h.logger.Info("received text command via HTTP", "text", text)
		writeJSON(w, http.StatusAccepted, map[string]any{"status": "received", "text": text})
	default:
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
	}
}

func (h *HTTPSource) handleAlexa(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.logger.Warn("unauthorized alexa request", "remote_addr", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	text := string(data)
	if text == "" {
		http.Error(w, "empty text", http.StatusBadRequest)
		return
	}

	marker := []byte(domain.TextCommandPrefix + text)

	select {
	case h.commandChan <- marker:
		h.logger.Info("received command from Alexa", "text", text)
		writeJSON(w, http.StatusAccepted, map[string]any{"status": "ok", "message": "Command received"})
	default:
		http.Error(w, "queue full", http.StatusServiceUnavailable)
	}
}

func (h *HTTPSource) handleImage(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 10*1024*1024))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if len(data) == 0 {
		http.Error(w, "empty image", http.StatusBadRequest)
		return
	}

	h.imageMu.Lock()
	defer h.imageMu.Unlock()
	if h.captures == 0 {
		http.Error(w, "no capture in progress", http.StatusConflict)
		return
	}

	select {
	case h.imageChan <- data:
		h.logger.Info("received image via HTTP", "bytes", len(data))
		writeJSON(w, http.StatusAccepted, map[string]any{"status": "received", "bytes": len(data)})
	default:
		http.Error(w, "an image is already waiting", http.StatusConflict)
	}
}

func (h *HTTPSource) handleLocation(w http.ResponseWriter, r *http.Request) {
	var c domain.Coordinate
	if err := json.NewDecoder(io.LimitReader(r.Body, 1024)).Decode(&c); err != nil {
		http.Error(w, "invalid coordinate", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		http.Error(w, "coordinate out of range", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	h.location = c
	h.hasLocation = true
	h.mu.Unlock()

	h.logger.Debug("location updated", "lat", c.Lat, "lon", c.Lon)
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPSource) handleStop(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	h.mu.Lock()
	fn := h.onStop
	h.mu.Unlock()

	if fn != nil {
		fn()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPSource) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	running := h.running
	queueSize := len(h.commandChan)
	h.mu.Unlock()

	status := "ok"
	statusCode := http.StatusOK

	if !running {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, map[string]any{"status": status, "running": running, "queue_size": queueSize})
}

func (h *HTTPSource) authorized(r *http.Request) bool {
	if h.authToken == "" {
		return true
	}
	// Check header first
	token := r.Header.Get("X-Auth-Token")
	// If not in header, check query parameter
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	return token == h.authToken
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
