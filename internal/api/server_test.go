package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teralink/internal/config"
	"teralink/internal/extract"
	"teralink/internal/link"
	"teralink/internal/media"
)

type fakeExtractor struct {
	result *media.Result
	err    error
	panic  bool

	calls   int
	gotURL  string
	quality string
}

func (f *fakeExtractor) Resolve(ctx context.Context, shareURL string, quality string) (*media.Result, error) {
	f.calls++
	f.gotURL = shareURL
	f.quality = quality
	if f.panic {
		panic("boom")
	}
	return f.result, f.err
}

func newTestServer(ext extract.Extractor) *Server {
	return NewServer(config.Default(), ext, zerolog.Nop())
}

func do(t *testing.T, s *Server, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func TestWelcome(t *testing.T) {
	rec, body := do(t, newTestServer(&fakeExtractor{}), http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["message"])
	assert.Equal(t, "GET /resolve?url=<terabox_url>", body["usage"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestResolveSuccess(t *testing.T) {
	ext := &fakeExtractor{result: &media.Result{
		Title:     "clip.mkv",
		Contents:  []media.Content{{URL: "https://cdn/direct", Filename: "clip.mkv"}},
		TotalSize: 2048,
	}}
	rec, _ := do(t, newTestServer(ext), http.MethodGet, "/resolve?url=https%3A%2F%2Fterabox.com%2Fs%2Fabc123&quality=Fast+Download")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"status": "success",
		"title": "clip.mkv",
		"contents": [{"url": "https://cdn/direct", "filename": "clip.mkv"}],
		"total_size": 2048
	}`, rec.Body.String())
	assert.Equal(t, "https://terabox.com/s/abc123", ext.gotURL)
	assert.Equal(t, "Fast Download", ext.quality)
}

func TestResolveMissingURL(t *testing.T) {
	ext := &fakeExtractor{}
	rec, body := do(t, newTestServer(ext), http.MethodGet, "/resolve")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "URL parameter is required", body["message"])
	assert.Zero(t, ext.calls, "resolver must not be invoked without a url")
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "invalid link",
			err:      fmt.Errorf("%w: unsupported host %q", link.ErrInvalidLink, "example.com"),
			wantCode: http.StatusBadRequest,
			wantMsg:  `invalid terabox URL: unsupported host "example.com"`,
		},
		{
			name:     "no endpoint",
			err:      extract.ErrNoEndpointAvailable,
			wantCode: http.StatusBadRequest,
			wantMsg:  "no working API endpoints found",
		},
		{
			name:     "no valid links",
			err:      extract.ErrNoValidLinks,
			wantCode: http.StatusBadRequest,
			wantMsg:  "no valid download links found",
		},
		{
			name:     "unexpected",
			err:      errors.New("disk on fire"),
			wantCode: http.StatusInternalServerError,
			wantMsg:  "Unexpected error: disk on fire",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := &fakeExtractor{err: tt.err}
			rec, body := do(t, newTestServer(ext), http.MethodGet, "/resolve?url=https://terabox.com/s/abc")

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.wantMsg, body["message"])
			assert.Equal(t, 1, ext.calls)
		})
	}
}

func TestResolvePanicRecovered(t *testing.T) {
	var logs bytes.Buffer
	s := NewServer(config.Default(), &fakeExtractor{panic: true}, zerolog.New(&logs))

	rec, body := do(t, s, http.MethodGet, "/resolve?url=https://terabox.com/s/abc")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["message"], "Unexpected error")
	assert.Contains(t, logs.String(), `"message":"panic recovered"`)
	assert.Contains(t, logs.String(), `"stack"`)
}

func TestUnknownRoute(t *testing.T) {
	rec, body := do(t, newTestServer(&fakeExtractor{}), http.MethodGet, "/nope")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", body["status"])
	assert.NotEmpty(t, body["message"])
}

func TestCustomResolvePath(t *testing.T) {
	cfg := config.Default()
	cfg.Server.ResolvePath = "/TheBongPirate"
	ext := &fakeExtractor{err: extract.ErrNoValidLinks}
	s := NewServer(cfg, ext, zerolog.Nop())

	rec, _ := do(t, s, http.MethodGet, "/TheBongPirate?url=https://terabox.com/s/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, ext.calls)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = freePort(t)
	s := NewServer(cfg, &fakeExtractor{}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + cfg.ListenAddr() + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func freePort(t *testing.T) int {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	return srv.Listener.Addr().(*net.TCPAddr).Port
}
