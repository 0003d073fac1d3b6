// Package chflow provides context-aware channel helpers so sends and
// receives always respect cancellation and deadlines.
package chflow

import "context"

// Receive waits for a value from ch or for ctx to be canceled. The boolean
// reports whether a value was actually received.
func Receive[T any](ctx context.Context, ch <-chan T) (T, bool) {
	var data T
	select {
	case <-ctx.Done():
		return data, false
	case data, ok := <-ch:
		return data, ok
	}
}

// Send attempts to deliver data to ch unless ctx is canceled first. It
// reports whether the send happened.
func Send[T any](ctx context.Context, ch chan<- T, data T) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- data:
		return true
	}
}
