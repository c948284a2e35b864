package gateway

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker(t *testing.T) {
	errWrite := errors.New("write failed")

	t.Run("连续失败触发熔断", func(t *testing.T) {
		cb := NewCircuitBreaker(3, time.Minute)
		for range 3 {
			assert.ErrorIs(t, cb.Call(func() error { return errWrite }), errWrite)
		}
		assert.Equal(t, StateOpen, cb.State())
		assert.ErrorIs(t, cb.Call(func() error { return nil }), ErrCircuitOpen)
		assert.Equal(t, int64(1), cb.Stats().Trips)
	})

	t.Run("成功打断连续失败", func(t *testing.T) {
		cb := NewCircuitBreaker(3, time.Minute)
		_ = cb.Call(func() error { return errWrite })
		_ = cb.Call(func() error { return errWrite })
		require.NoError(t, cb.Call(func() error { return nil }))
		_ = cb.Call(func() error { return errWrite })
		assert.Equal(t, StateClosed, cb.State())
		assert.Equal(t, 1, cb.Stats().Failures)
	})

	t.Run("超时后半开并恢复", func(t *testing.T) {
		cb := NewCircuitBreaker(1, time.Second)
		clock := time.Now()
		cb.now = func() time.Time { return clock }

		_ = cb.Call(func() error { return errWrite })
		require.Equal(t, StateOpen, cb.State())

		clock = clock.Add(2 * time.Second)
		require.NoError(t, cb.Call(func() error { return nil }))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("半开失败立即熔断", func(t *testing.T) {
		cb := NewCircuitBreaker(1, time.Second)
		clock := time.Now()
		cb.now = func() time.Time { return clock }

		_ = cb.Call(func() error { return errWrite })
		clock = clock.Add(2 * time.Second)
		_ = cb.Call(func() error { return errWrite })
		assert.Equal(t, StateOpen, cb.State())
		assert.Equal(t, int64(2), cb.Stats().Trips)
	})

	t.Run("半开只放行一次试探", func(t *testing.T) {
		cb := NewCircuitBreaker(1, time.Second)
		clock := time.Now()
		cb.now = func() time.Time { return clock }

		_ = cb.Call(func() error { return errWrite })
		st := cb.Stats()
		assert.Equal(t, "open", st.State)
		assert.InDelta(t, 1.0, st.RetryAfterSec, 0.001)

		clock = clock.Add(2 * time.Second)
		err := cb.Call(func() error {
			assert.Equal(t, StateHalfOpen, cb.State())
			return cb.Call(func() error { return nil })
		})
		assert.ErrorIs(t, err, ErrTooManyRequests)
		assert.Equal(t, StateOpen, cb.State(), "试探写返回错误即重新熔断")
	})

	t.Run("状态变化回调", func(t *testing.T) {
		ch := make(chan [2]State, 2)
		cb := NewCircuitBreaker(1, time.Minute)
		cb.SetStateChangeCallback(func(from, to State) { ch <- [2]State{from, to} })

		_ = cb.Call(func() error { return errWrite })
		select {
		case evt := <-ch:
			assert.Equal(t, [2]State{StateClosed, StateOpen}, evt)
		case <-time.After(time.Second):
			t.Fatal("回调未触发")
		}

		cb.Reset()
		assert.Equal(t, StateClosed, cb.State())
	})
}
