package source_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vision-assistant/internal/domain"
	"vision-assistant/internal/infra/source"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPSource_ReceiveCommand(t *testing.T) {
	src := source.NewHTTPSource(":0", "", discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, src.Start(ctx))
	defer src.Stop()

	testAudio := []byte("fake audio data for testing")

	go func() {
		time.Sleep(100 * time.Millisecond)
		src.InjectCommand(testAudio)
	}()

	received, err := src.NextCommand(ctx)
	require.NoError(t, err)
	assert.Equal(t, testAudio, received)
}

func TestHTTPSource_TextEndpoint(t *testing.T) {
	src := source.NewHTTPSource(":0", "", discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/text", strings.NewReader("read this"))
	rec := httptest.NewRecorder()
	src.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	got, err := src.NextCommand(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.TextCommandPrefix+"read this", string(got))
}

func TestHTTPSource_AlexaEndpointWithToken(t *testing.T) {
	authToken := "test-secret-token-123"
	handler := source.NewHTTPSource(":0", authToken, discardLogger()).Handler()

	tests := []struct {
		name       string
		token      string
		method     string
		wantStatus int
	}{
		{name: "valid token in header", token: authToken, method: "header", wantStatus: http.StatusAccepted},
		{name: "valid token in query", token: authToken, method: "query", wantStatus: http.StatusAccepted},
		{name: "invalid token", token: "wrong-token", method: "header", wantStatus: http.StatusUnauthorized},
		{name: "missing token", method: "header", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := bytes.NewReader([]byte("where am i"))
			var req *http.Request
			if tt.method == "query" {
				req = httptest.NewRequest(http.MethodPost, "/alexa?token="+tt.token, body)
			} else {
				req = httptest.NewRequest(http.MethodPost, "/alexa", body)
				if tt.token != "" {
					req.Header.Set("X-Auth-Token", tt.token)
				}
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHTTPSource_ImageCapture(t *testing.T) {
	src := source.NewHTTPSource(":0", "", discardLogger())
	handler := src.Handler()

	postImage := func(body string) int {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/image", strings.NewReader(body)))
		return rec.Code
	}

	assert.Equal(t, http.StatusConflict, postImage("early"), "no capture in progress")

	type captured struct {
		img []byte
		err error
	}
	got := make(chan captured, 1)
	go func() {
		img, err := src.Capture(context.Background())
		got <- captured{img, err}
	}()

	require.Eventually(t, func() bool { return postImage("jpeg-1") == http.StatusAccepted }, time.Second, 5*time.Millisecond)

	res := <-got
	require.NoError(t, res.err)
	assert.Equal(t, "jpeg-1", string(res.img))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := src.Capture(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPSource_ImageAfterCancelledCaptureRejected(t *testing.T) {
	src := source.NewHTTPSource(":0", "", discardLogger())
	handler := src.Handler()

	postImage := func(body string) int {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/image", strings.NewReader(body)))
		return rec.Code
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := src.Capture(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, http.StatusConflict, postImage("stale"))

	got := make(chan []byte, 1)
	go func() {
		img, _ := src.Capture(context.Background())
		got <- img
	}()
	require.Eventually(t, func() bool { return postImage("fresh") == http.StatusAccepted }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "fresh", string(<-got))
}

func TestHTTPSource_Location(t *testing.T) {
	src := source.NewHTTPSource(":0", "", discardLogger())
	handler := src.Handler()

	_, err := src.Current(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoLocation)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/location", strings.NewReader(`{"lat":12.97,"lon":77.59}`)))
	require.Equal(t, http.StatusNoContent, rec.Code)

	at, err := src.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinate{Lat: 12.97, Lon: 77.59}, at)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/location", strings.NewReader(`{"lat":123,"lon":0}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPSource_Stop(t *testing.T) {
	src := source.NewHTTPSource(":0", "", discardLogger())
	stopped := 0
	src.OnStop(func() { stopped++ })

	rec := httptest.NewRecorder()
	src.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stop", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, stopped)
}

func TestHTTPSource_HealthNotRunning(t *testing.T) {
	src := source.NewHTTPSource(":0", "", discardLogger())

	rec := httptest.NewRecorder()
	src.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not_ready","running":false,"queue_size":0}`, rec.Body.String())
}

func TestFileSource_LoadFromDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	for name, content := range map[string]string{
		"command1.wav": "RIFF....WAVEfmt audio data 1",
		"command2.WAV": "RIFF....WAVEfmt audio data 2",
		"notes.txt":    "ignored",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0644))
	}

	src := source.NewFileSource(tmpDir, source.AudioExtensions)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, src.Start(ctx))

	first, err := src.NextCommand(ctx)
	require.NoError(t, err)
	second, err := src.NextCommand(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"RIFF....WAVEfmt audio data 1", "RIFF....WAVEfmt audio data 2"}, []string{string(first), string(second)})

	short, cancelShort := context.WithTimeout(context.Background(), 600*time.Millisecond)
	defer cancelShort()
	_, err = src.NextCommand(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = os.Stat(filepath.Join(tmpDir, "command1.wav.processed"))
	assert.NoError(t, err)
}

func TestFileSource_CaptureImage(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "shot.jpg"), []byte("jpeg"), 0644))

	img, err := source.NewFileSource(tmpDir, source.ImageExtensions).Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(img))
}

func TestStaticLocator(t *testing.T) {
	at, err := source.StaticLocator{At: domain.Coordinate{Lat: 1, Lon: 2}}.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinate{Lat: 1, Lon: 2}, at)
}

func TestRateLimiter(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := source.NewRateLimiter(2, time.Minute, clock)

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))

	clock.Advance(time.Minute + time.Second)
	assert.True(t, rl.Allow("1.2.3.4"))
}

func TestRateLimiter_KeysByClientHost(t *testing.T) {
	rl := source.NewRateLimiter(1, time.Minute, clockwork.NewFakeClock())
	handler := rl.Middleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	send := func(remote, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/text", nil)
		req.RemoteAddr = remote
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		rec := httptest.NewRecorder()
		handler(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5000", ""))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:5001", ""), "a new port is the same client")
	assert.Equal(t, http.StatusNoContent, send("10.0.0.9:5000", "203.0.113.7, 10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.8:5000", "203.0.113.7"))
}
