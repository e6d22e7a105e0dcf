package external

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rainscout/internal/types"
)

func newTestClient(name string) *Client {
	return NewClient(
		&http.Client{Timeout: 5 * time.Second},
		name,
		RetryPolicy{MaxRetries: 2, MinWait: time.Millisecond, MaxWait: 5 * time.Millisecond},
		"RainScout-Test/1.0",
		WithSleepFunc(func(time.Duration) {}),
	)
}

func TestDo_PassesThroughSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "RainScout-Test/1.0", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient("ok")
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDo_InjectsRequestID(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("X-Request-Id"))
	}))
	defer srv.Close()

	c := newTestClient("reqid")
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req = req.WithContext(types.WithRequestID(req.Context(), "req_abc123"))

	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req_abc123", got.Load())
}

func TestDo_RetriesOn5xxThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient("retry")
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_ExhaustedRetriesMapToTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient("exhaust")
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	_, err := c.Do(req)
	require.Error(t, err)

	ae := types.AsAppError(err)
	assert.Equal(t, types.ErrCodeUpstreamTransport, ae.Code)
}

func TestDo_DoesNotRetryNonRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient("notfound")
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_ConnectionRefusedMapsToTransportError(t *testing.T) {
	c := newTestClient("refused")
	// Reserved port with nothing listening.
	req, _ := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", nil)

	_, err := c.Do(req)
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeUpstreamTransport, types.AsAppError(err).Code)
}

func TestComputeBackoff_RespectsRetryAfterSeconds(t *testing.T) {
	c := newTestClient("backoff")
	c.retryPolicy = RetryPolicy{MaxRetries: 2, MinWait: time.Millisecond, MaxWait: 10 * time.Second}

	resp := &http.Response{Header: http.Header{"Retry-After": []string{"2"}}}
	assert.Equal(t, 2*time.Second, c.computeBackoff(0, resp))
}

func TestComputeBackoff_ClampsToMaxWait(t *testing.T) {
	c := newTestClient("clamp")
	c.retryPolicy = RetryPolicy{MaxRetries: 5, MinWait: time.Second, MaxWait: 2 * time.Second}

	wait := c.computeBackoff(10, nil)
	assert.LessOrEqual(t, wait, 2*time.Second)
	assert.GreaterOrEqual(t, wait, time.Second)
}
