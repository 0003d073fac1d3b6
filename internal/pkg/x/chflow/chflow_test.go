package chflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceive(t *testing.T) {
	t.Run("receives an available value", func(t *testing.T) {
		ch := make(chan int, 1)
		ch <- 42

		got, ok := Receive(t.Context(), ch)
		require.True(t, ok)
		assert.Equal(t, 42, got)
	})

	t.Run("reports false on canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, ok := Receive(ctx, make(chan int))
		assert.False(t, ok)
	})

	t.Run("reports false on closed channel", func(t *testing.T) {
		ch := make(chan int)
		close(ch)

		_, ok := Receive(t.Context(), ch)
		assert.False(t, ok)
	})
}

func TestSend(t *testing.T) {
	t.Run("delivers into a buffered channel", func(t *testing.T) {
		ch := make(chan string, 1)

		ok := Send(t.Context(), ch, "hello")
		require.True(t, ok)
		assert.Equal(t, "hello", <-ch)
	})

	t.Run("reports false when the context ends first", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		ok := Send(ctx, make(chan string), "hello")
		assert.False(t, ok)
	})
}
