package infra_test

import (
	"errors"
	"testing"
	"time"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fail() error { return errBoom }
func ok() error   { return nil }

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{Name: "t", FailureThreshold: 3, OpenTimeout: time.Hour})

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(fail), errBoom)
	}
	assert.Equal(t, infra.CBClosed, cb.State())

	// a success resets the consecutive count
	require.NoError(t, cb.Execute(ok))
	for i := 0; i < 3; i++ {
		_ = cb.Execute(fail)
	}
	assert.Equal(t, infra.CBOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		Name: "t", FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: 20 * time.Millisecond,
	})
	_ = cb.Execute(fail)
	require.Equal(t, infra.CBOpen, cb.State())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, infra.CBHalfOpen, cb.State())

	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, infra.CBHalfOpen, cb.State())
	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, infra.CBClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		Name: "t", FailureThreshold: 1, OpenTimeout: 20 * time.Millisecond,
	})
	_ = cb.Execute(fail)
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, infra.CBHalfOpen, cb.State())

	assert.ErrorIs(t, cb.Execute(fail), errBoom)
	assert.Equal(t, infra.CBOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(ok), infra.ErrCircuitOpen)
}

func TestCBState_String(t *testing.T) {
	assert.Equal(t, "closed", infra.CBClosed.String())
	assert.Equal(t, "open", infra.CBOpen.String())
	assert.Equal(t, "half-open", infra.CBHalfOpen.String())
	assert.Equal(t, "unknown", infra.CBState(42).String())
}
