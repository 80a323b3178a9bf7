package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) StatusCode() int { return int(e) }

func fastConfig(attempts int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = time.Millisecond
	cfg.RateLimitDelay = time.Millisecond
	cfg.Jitter = false
	return cfg
}

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls < 3 {
			return statusErr(http.StatusBadGateway)
		}
		return nil
	}, nil, fastConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryStopsOnFatal(t *testing.T) {
	calls := 0
	cause := errors.New("bad request")
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return &FatalError{Err: cause}
	}, nil, fastConfig(5))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, calls)
}

func TestWithRetryGivesUp(t *testing.T) {
	cause := statusErr(http.StatusInternalServerError)
	err := WithRetryConfig(context.Background(), func() error { return cause }, nil, fastConfig(2))

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "max attempts (2) exceeded")
}

func TestWithRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetryConfig(ctx, func() error { return nil }, nil, fastConfig(2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimitedShrinksLimiter(t *testing.T) {
	lim := NewAdaptiveLimiter(8, 1, 10, 1, 0.5)
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls == 1 {
			return statusErr(http.StatusTooManyRequests)
		}
		return nil
	}, lim, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 4.0, lim.CurrentLimit(), "success right after a rate limit must not raise the limit")
	assert.Equal(t, 4, lim.CurrentBurst())
}

func TestAdaptiveLimiterBounds(t *testing.T) {
	lim := NewAdaptiveLimiter(0, 0, 3, 1, 0.1)
	assert.Equal(t, 1.0, lim.CurrentLimit())

	for i := 0; i < 5; i++ {
		lim.Success()
	}
	assert.Equal(t, 3.0, lim.CurrentLimit())

	lim.RateLimited()
	assert.Equal(t, 1.0, lim.CurrentLimit())
}

func TestStatusCode(t *testing.T) {
	wrapped := fmt.Errorf("send: %w", statusErr(http.StatusNotFound))
	assert.Equal(t, http.StatusNotFound, StatusCode(wrapped))
	assert.Zero(t, StatusCode(errors.New("plain")))
	assert.True(t, DefaultClassifier(statusErr(http.StatusServiceUnavailable)))
	assert.False(t, DefaultClassifier(statusErr(http.StatusForbidden)))
}
