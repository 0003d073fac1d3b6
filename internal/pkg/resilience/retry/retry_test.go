package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	t.Run("returns nil when the operation succeeds immediately", func(t *testing.T) {
		r := New(WithDelay(time.Millisecond), WithMaxDelay(time.Millisecond))

		calls := 0
		err := r.Execute(t.Context(), func() error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until the operation succeeds", func(t *testing.T) {
		r := New(WithAttempts(5), WithDelay(time.Millisecond), WithMaxDelay(time.Millisecond))

		calls := 0
		err := r.Execute(t.Context(), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns the last error once attempts are exhausted", func(t *testing.T) {
		r := New(WithAttempts(2), WithDelay(time.Millisecond), WithMaxDelay(time.Millisecond))

		finalErr := errors.New("still broken")
		calls := 0
		err := r.Execute(t.Context(), func() error {
			calls++
			return finalErr
		})

		assert.ErrorIs(t, err, finalErr)
		assert.Equal(t, 2, calls)
	})

	t.Run("stops when the context is canceled", func(t *testing.T) {
		r := New(WithAttempts(100), WithDelay(50*time.Millisecond))

		ctx, cancel := context.WithCancel(t.Context())
		calls := 0
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		err := r.Execute(ctx, func() error {
			calls++
			return errors.New("transient")
		})

		assert.Error(t, err)
		assert.Less(t, calls, 100)
	})
}
