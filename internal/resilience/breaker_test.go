package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker(2, time.Minute, nil)

	assert.ErrorIs(t, b.Execute(func() error { return errBoom }), errBoom)
	assert.ErrorIs(t, b.Execute(func() error { return errBoom }), errBoom)

	called := false
	err := b.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenAfterTimeout(t *testing.T) {
	now := time.Unix(1000, 0)
	b := NewBreaker(1, 10*time.Second, nil)
	b.now = func() time.Time { return now }

	_ = b.Execute(func() error { return errBoom })
	assert.ErrorIs(t, b.Execute(func() error { return nil }), ErrCircuitOpen)

	now = now.Add(11 * time.Second)
	assert.NoError(t, b.Execute(func() error { return nil }))
	assert.NoError(t, b.Execute(func() error { return nil }))
}

func TestBreakerHalfOpenAdmitsOneTrialCall(t *testing.T) {
	now := time.Unix(1000, 0)
	b := NewBreaker(1, 10*time.Second, nil)
	b.now = func() time.Time { return now }

	_ = b.Execute(func() error { return errBoom })
	now = now.Add(11 * time.Second)

	var concurrent error
	err := b.Execute(func() error {
		concurrent = b.Execute(func() error { return nil })
		return nil
	})
	assert.NoError(t, err)
	assert.ErrorIs(t, concurrent, ErrCircuitOpen)
	assert.NoError(t, b.Execute(func() error { return nil }))
}

func TestBreakerFailedTrialReopens(t *testing.T) {
	now := time.Unix(1000, 0)
	b := NewBreaker(1, 10*time.Second, nil)
	b.now = func() time.Time { return now }

	_ = b.Execute(func() error { return errBoom })
	now = now.Add(11 * time.Second)
	assert.ErrorIs(t, b.Execute(func() error { return errBoom }), errBoom)
	assert.ErrorIs(t, b.Execute(func() error { return nil }), ErrCircuitOpen)
}

func TestBreakerIgnoresUncountedErrors(t *testing.T) {
	business := errors.New("declined")
	b := NewBreaker(1, time.Minute, func(err error) bool { return !errors.Is(err, business) })

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Execute(func() error { return business }), business)
	}
	assert.NoError(t, b.Execute(func() error { return nil }))
}
