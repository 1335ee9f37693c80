package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Factor: 2, Jitter: 0}
}

func TestRun_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	got, err := Run(context.Background(), fastPolicy(), "lookup", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", MarkTransient(eris.New("upstream 503"), 503)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestRun_StopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := eris.New("invalid tax id")
	_, err := Run(context.Background(), fastPolicy(), "lookup", func(context.Context) (int, error) {
		calls++
		return 0, permanent
	})

	require.Error(t, err)
	assert.True(t, eris.Is(err, permanent))
	assert.Equal(t, 1, calls)
}

func TestRun_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Run(context.Background(), fastPolicy(), "search", func(context.Context) (int, error) {
		calls++
		return 0, MarkTransient(eris.New("rate limited"), 429)
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRun_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Run(ctx, fastPolicy(), "search", func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, MarkTransient(eris.New("timeout"), 504)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"marked transient", MarkTransient(eris.New("503"), 503), true},
		{"wrapped transient", eris.Wrap(MarkTransient(eris.New("429"), 429), "search"), true},
		{"connection reset message", eris.New("read tcp: connection reset by peer"), true},
		{"plain error", eris.New("not found"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}

func TestRetryableStatus(t *testing.T) {
	assert.True(t, RetryableStatus(429))
	assert.True(t, RetryableStatus(503))
	assert.False(t, RetryableStatus(404))
	assert.False(t, RetryableStatus(200))
}

func TestPolicyDelay_CappedAtMax(t *testing.T) {
	p := Policy{Attempts: 10, BaseDelay: time.Second, MaxDelay: 2 * time.Second, Factor: 3, Jitter: 0}
	assert.Equal(t, time.Second, p.delay(1))
	assert.Equal(t, 2*time.Second, p.delay(2))
	assert.Equal(t, 2*time.Second, p.delay(5))
}
