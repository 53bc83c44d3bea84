package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func failing(_ context.Context) error { return errBoom }
func succeeding(_ context.Context) error { return nil }

func TestCircuitOpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 3, RecoveryTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
	}
	assert.Equal(t, CircuitOpen, cb.State())

	// Open circuit rejects without calling fn.
	called := false
	err := cb.Execute(ctx, func(_ context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, RecoveryTimeout: 10 * time.Second})
	now := time.Now()
	cb.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, failing))
	assert.Equal(t, CircuitOpen, cb.State())

	// After the recovery timeout one trial call is allowed; success closes.
	now = now.Add(11 * time.Second)
	assert.Equal(t, CircuitHalfOpen, cb.State())
	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitFailedTrialReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, RecoveryTimeout: 10 * time.Second})
	now := time.Now()
	cb.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, failing))
	now = now.Add(11 * time.Second)
	require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2, RecoveryTimeout: time.Minute})
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, failing))
	require.NoError(t, cb.Execute(ctx, succeeding))
	require.Error(t, cb.Execute(ctx, failing))
	assert.Equal(t, CircuitClosed, cb.State(), "non-consecutive failures never open the circuit")
}

func TestExecuteVal(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())

	got, err := ExecuteVal(context.Background(), cb, func(_ context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestReset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, RecoveryTimeout: time.Hour})
	require.Error(t, cb.Execute(context.Background(), failing))
	assert.Equal(t, CircuitOpen, cb.State())

	cb.Reset()
	assert.Equal(t, CircuitClosed, cb.State())
	failures, _ := cb.Counters()
	assert.Zero(t, failures)
}

func TestServiceBreakers(t *testing.T) {
	sb := NewServiceBreakers(CircuitBreakerConfig{MaxFailures: 1, RecoveryTimeout: time.Hour})

	assert.Same(t, sb.Get("clearbit"), sb.Get("clearbit"))
	require.Error(t, sb.Get("clearbit").Execute(context.Background(), failing))

	states := sb.States()
	assert.Equal(t, CircuitOpen, states["clearbit"])
}

func TestOnStateChange(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:     1,
		RecoveryTimeout: time.Hour,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	require.Error(t, cb.Execute(context.Background(), failing))
	assert.Equal(t, []string{"closed->open"}, transitions)
}
