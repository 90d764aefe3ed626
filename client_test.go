package yadisk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopSleep returns immediately, for fast poller tests.
func noopSleep(_ context.Context, _ time.Duration) error {
	return nil
}

// newTestClient creates a Client pointing at the given httptest server with
// instant retry sleeps.
func newTestClient(t *testing.T, url string, opts ...ClientOption) *Client {
	t.Helper()

	opts = append([]ClientOption{WithBaseURL(url), WithDefaultRetryInterval(0)}, opts...)

	c, err := New("test-token", opts...)
	require.NoError(t, err)

	c.sleepFunc = noopSleep

	t.Cleanup(func() { c.Close() })

	return c
}

func TestClient_SendsAuthAndUserAgent(t *testing.T) {
	var gotAuth, gotAgent string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.DiskInfo(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "OAuth test-token", gotAuth)
	assert.Equal(t, userAgent, gotAgent)
}

func TestClient_SetTokenReplacesAuth(t *testing.T) {
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	client.SetToken("rotated")

	_, err := client.DiskInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OAuth rotated", gotAuth)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		w.Write([]byte(`{"total_space":100}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	disk, err := client.DiskInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100), disk.TotalSpace)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"DiskNotFoundError","message":"nope"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.Meta(context.Background(), "/missing")
	require.ErrorIs(t, err, ErrPathNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RetryBudgetExhausted(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.DiskInfo(context.Background(), WithRetries(2))
	require.ErrorIs(t, err, ErrBadGateway)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_StrictDecodeRejectsUnknownFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"total_space":1,"never_heard_of_it":true}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.DiskInfo(context.Background())
	require.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClient_PerCallHeaders(t *testing.T) {
	var got string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Trace")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.DiskInfo(context.Background(), WithHeaders(map[string]string{"X-Trace": "abc"}))
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New("token", WithBackend("carrier-pigeon"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}
