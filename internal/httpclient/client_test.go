package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

// newTestClient creates a Client and registers cleanup.
func newTestClient(t *testing.T, cfg *Config) *Client {
	t.Helper()
	client := New(cfg)
	t.Cleanup(client.Close)
	return client
}

// newTestServer creates a test HTTP server and registers cleanup.
func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestGetInjectsUserAgentAndHeaders(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "artifact-explorer", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	client := newTestClient(t, nil)

	resp, body, err := client.Get(t.Context(), server.URL, http.Header{"Accept": {"application/json"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestCustomUserAgentIsKept(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("User-Agent")))
	})
	client := newTestClient(t, &Config{UserAgent: "museum-bot/1.0"})

	_, body, err := client.Get(t.Context(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "museum-bot/1.0", string(body))
}

func TestDefaultTimeoutApplies(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	client := newTestClient(t, &Config{DefaultTimeout: 50 * time.Millisecond})

	start := time.Now()
	_, _, err := client.Get(t.Context(), server.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestReadBodyLimit(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	})
	client := newTestClient(t, &Config{MaxBodyBytes: 16})

	_, _, err := client.Get(t.Context(), server.URL, nil)
	require.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestHooksObserveRequests(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	client := newTestClient(t, nil)

	var before, after atomic.Int32
	var status atomic.Int32
	client.SetBeforeRequestHook(func(*http.Request) { before.Add(1) })
	client.SetAfterResponseHook(func(_ *http.Request, resp *http.Response, err error, elapsed time.Duration) {
		after.Add(1)
		if err == nil {
			status.Store(int32(resp.StatusCode))
		}
		assert.GreaterOrEqual(t, elapsed, time.Duration(0))
	})

	_, _, err := client.Get(t.Context(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), before.Load())
	assert.Equal(t, int32(1), after.Load())
	assert.Equal(t, int32(http.StatusTeapot), status.Load())
}

func TestDoRejectsNilRequest(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, nil)
	_, cancel, err := client.Do(t.Context(), nil)
	cancel()
	require.Error(t, err)
}
