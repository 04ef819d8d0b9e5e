package collyfetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
)

func newTestClient(t *testing.T) (*Client, *[]time.Duration) {
	t.Helper()
	c := New(Config{Timeout: 2 * time.Second, MaxRetries: 2}, zap.NewNop())
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestGetReturnsBodyOnFirstSuccessWithoutSleeping(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c, slept := newTestClient(t)
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "hello", string(body))
	require.Empty(t, *slept)
}

func TestGetRetriesWithLinearBackoff(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("finally"))
	}))
	defer srv.Close()

	c, slept := newTestClient(t)
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "finally", string(body))
	require.Equal(t, int32(3), calls.Load())
	require.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, *slept)
}

func TestGetReturnsUnavailableAfterExhaustingAttempts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := newTestClient(t)
	_, err := c.Get(context.Background(), srv.URL)
	require.ErrorIs(t, err, insights.ErrUnavailable)
	require.Equal(t, int32(3), calls.Load())
}

func TestGetDoesNotRetryNon200TwiceOnSuccessStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c, _ := newTestClient(t)
	_, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())
}

func TestGetHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{Timeout: 2 * time.Second, MaxRetries: 5}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, srv.URL)
	require.ErrorIs(t, err, insights.ErrUnavailable)
}
