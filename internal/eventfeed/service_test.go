package eventfeed

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gabapcia/movewatch/internal/moveevent"
	"github.com/gabapcia/movewatch/internal/moveschema"
	"github.com/gabapcia/movewatch/internal/movevalue"
	"github.com/gabapcia/movewatch/internal/pkg/logger"
	"github.com/gabapcia/movewatch/internal/pkg/resilience/retry"
	"github.com/gabapcia/movewatch/internal/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	_ = logger.Init(logger.WithLevel("error"))
}

// mapResolver is a minimal in-memory module resolver.
type mapResolver map[moveschema.ModuleID]*moveschema.ModuleDefinition

func (r mapResolver) GetModule(_ context.Context, id moveschema.ModuleID) (*moveschema.ModuleDefinition, error) {
	module, ok := r[id]
	if !ok {
		return nil, moveschema.ErrModuleNotFound
	}
	return module, nil
}

// flakyResolver fails a fixed number of times before delegating.
type flakyResolver struct {
	failures atomic.Int32
	inner    moveschema.ModuleResolver
	calls    atomic.Int32
}

func (r *flakyResolver) GetModule(ctx context.Context, id moveschema.ModuleID) (*moveschema.ModuleDefinition, error) {
	r.calls.Add(1)
	if r.failures.Add(-1) >= 0 {
		return nil, errors.New("registry unavailable")
	}
	return r.inner.GetModule(ctx, id)
}

func mustAddress(t *testing.T, s string) types.Address {
	t.Helper()
	addr, err := types.AddressFromString(s)
	require.NoError(t, err)
	return addr
}

func coinResolver(t *testing.T) mapResolver {
	t.Helper()

	id := moveschema.ModuleID{Address: mustAddress(t, "0x2"), Name: "coin"}
	return mapResolver{id: {
		ID: id,
		Structs: map[string]moveschema.StructDefinition{
			"Coin": {
				TypeParams: 1,
				Fields: []moveschema.FieldDefinition{
					{Name: "value", Type: moveschema.TypeParamTag{Index: 0}},
				},
			},
		},
	}}
}

func coinEnvelope(t *testing.T, timestamp, value uint64) moveevent.Envelope {
	t.Helper()

	tag, err := moveschema.ParseStructTag("0x2::coin::Coin<u64>")
	require.NoError(t, err)

	return moveevent.NewEnvelope(timestamp, nil, moveevent.Move{
		StructType: tag,
		Contents:   binary.LittleEndian.AppendUint64(nil, value),
	}, nil)
}

func collect(t *testing.T, ch <-chan moveevent.Envelope) []moveevent.Envelope {
	t.Helper()

	var out []moveevent.Envelope
	for {
		select {
		case envelope, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, envelope)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out draining the decorated stream")
		}
	}
}

func TestService_Start(t *testing.T) {
	t.Run("decorates Move envelopes with the rendered payload", func(t *testing.T) {
		svc := New(NewSliceSource(coinEnvelope(t, 1700000000000, 42)), coinResolver(t))
		defer svc.Close()

		out, err := svc.Start(t.Context())
		require.NoError(t, err)

		envelopes := collect(t, out)
		require.Len(t, envelopes, 1)
		assert.JSONEq(t, `{"value": "42"}`, string(envelopes[0].MoveStructJSON))
		assert.Equal(t, moveevent.EventTypeMove, envelopes[0].EventType())
	})

	t.Run("include-types mode wraps the rendered payload with its tag", func(t *testing.T) {
		svc := New(
			NewSliceSource(coinEnvelope(t, 1, 42)),
			coinResolver(t),
			WithFormat(moveschema.Format{IncludeTypes: true}),
		)
		defer svc.Close()

		out, err := svc.Start(t.Context())
		require.NoError(t, err)

		tag, err := moveschema.ParseStructTag("0x2::coin::Coin<u64>")
		require.NoError(t, err)

		envelopes := collect(t, out)
		require.Len(t, envelopes, 1)
		assert.JSONEq(t, fmt.Sprintf(`{"type": %q, "fields": {"value": "42"}}`, tag.String()), string(envelopes[0].MoveStructJSON))
	})

	t.Run("passes non-Move envelopes through untouched", func(t *testing.T) {
		objectID, err := types.ObjectIDFromString("0x1")
		require.NoError(t, err)

		envelope := moveevent.NewEnvelope(7, nil, moveevent.DeleteObject{ObjectID: objectID}, nil)

		svc := New(NewSliceSource(envelope), mapResolver{})
		defer svc.Close()

		out, err := svc.Start(t.Context())
		require.NoError(t, err)

		envelopes := collect(t, out)
		require.Len(t, envelopes, 1)
		assert.Equal(t, envelope, envelopes[0])
	})

	t.Run("keeps an already decorated envelope as is", func(t *testing.T) {
		envelope := coinEnvelope(t, 1, 42)
		envelope.MoveStructJSON = []byte(`{"value": "7"}`)

		svc := New(NewSliceSource(envelope), mapResolver{})
		defer svc.Close()

		out, err := svc.Start(t.Context())
		require.NoError(t, err)

		envelopes := collect(t, out)
		require.Len(t, envelopes, 1)
		assert.JSONEq(t, `{"value": "7"}`, string(envelopes[0].MoveStructJSON))
	})

	t.Run("fails when already started", func(t *testing.T) {
		svc := New(NewSliceSource(), mapResolver{})
		defer svc.Close()

		_, err := svc.Start(t.Context())
		require.NoError(t, err)

		_, err = svc.Start(t.Context())
		assert.ErrorIs(t, err, ErrServiceAlreadyStarted)
	})

	t.Run("can be restarted after Close", func(t *testing.T) {
		svc := New(NewSliceSource(), mapResolver{})

		_, err := svc.Start(t.Context())
		require.NoError(t, err)
		svc.Close()

		_, err = svc.Start(t.Context())
		require.NoError(t, err)
		svc.Close()
	})

	t.Run("propagates subscription failures", func(t *testing.T) {
		subErr := errors.New("stream unavailable")
		source := eventSourceFunc(func(context.Context) (<-chan moveevent.Envelope, error) {
			return nil, subErr
		})

		svc := New(source, mapResolver{})

		_, err := svc.Start(t.Context())
		assert.ErrorIs(t, err, subErr)
	})
}

func TestService_DecodeFailures(t *testing.T) {
	t.Run("forwards undecodable envelopes and reports the failure", func(t *testing.T) {
		envelope := coinEnvelope(t, 1, 42)

		var (
			mu       sync.Mutex
			failures []DecodeFailure
		)

		svc := New(
			NewSliceSource(envelope),
			mapResolver{}, // the coin module is not registered
			WithDecodeFailureHandler(func(_ context.Context, failure DecodeFailure) {
				mu.Lock()
				defer mu.Unlock()
				failures = append(failures, failure)
			}),
		)
		defer svc.Close()

		out, err := svc.Start(t.Context())
		require.NoError(t, err)

		envelopes := collect(t, out)
		require.Len(t, envelopes, 1)
		assert.Nil(t, envelopes[0].MoveStructJSON)

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, failures, 1)
		assert.ErrorIs(t, failures[0].Err, moveschema.ErrModuleNotFound)
		assert.NotEmpty(t, failures[0].ProcessingID)
	})

	t.Run("retries transient resolver failures", func(t *testing.T) {
		resolver := &flakyResolver{inner: coinResolver(t)}
		resolver.failures.Store(1)

		svc := New(
			NewSliceSource(coinEnvelope(t, 1, 42)),
			resolver,
			WithRetry(retry.New(retry.WithAttempts(3), retry.WithDelay(time.Millisecond), retry.WithMaxDelay(time.Millisecond))),
		)
		defer svc.Close()

		out, err := svc.Start(t.Context())
		require.NoError(t, err)

		envelopes := collect(t, out)
		require.Len(t, envelopes, 1)
		assert.JSONEq(t, `{"value": "42"}`, string(envelopes[0].MoveStructJSON))
		assert.GreaterOrEqual(t, resolver.calls.Load(), int32(2))
	})

	t.Run("does not retry registry misses", func(t *testing.T) {
		var calls atomic.Int32
		resolver := resolverFunc(func(context.Context, moveschema.ModuleID) (*moveschema.ModuleDefinition, error) {
			calls.Add(1)
			return nil, moveschema.ErrModuleNotFound
		})

		svc := New(
			NewSliceSource(coinEnvelope(t, 1, 42)),
			resolver,
			WithRetry(retry.New(retry.WithAttempts(5), retry.WithDelay(time.Millisecond))),
			WithDecodeFailureHandler(func(context.Context, DecodeFailure) {}),
		)
		defer svc.Close()

		out, err := svc.Start(t.Context())
		require.NoError(t, err)

		collect(t, out)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("does not retry payload mismatches", func(t *testing.T) {
		envelope := coinEnvelope(t, 1, 42)
		move := envelope.Event.(moveevent.Move)
		move.Contents = move.Contents[:3]
		envelope.Event = move

		resolver := &countingResolver{inner: coinResolver(t)}

		var failureErr error
		svc := New(
			NewSliceSource(envelope),
			resolver,
			WithRetry(retry.New(retry.WithAttempts(5), retry.WithDelay(time.Millisecond))),
			WithDecodeFailureHandler(func(_ context.Context, failure DecodeFailure) {
				failureErr = failure.Err
			}),
		)
		defer svc.Close()

		out, err := svc.Start(t.Context())
		require.NoError(t, err)

		collect(t, out)
		assert.ErrorIs(t, failureErr, movevalue.ErrDecode)
		assert.Equal(t, int32(1), resolver.calls.Load())
	})
}

// resolverFunc adapts a function into a module resolver.
type resolverFunc func(ctx context.Context, id moveschema.ModuleID) (*moveschema.ModuleDefinition, error)

func (f resolverFunc) GetModule(ctx context.Context, id moveschema.ModuleID) (*moveschema.ModuleDefinition, error) {
	return f(ctx, id)
}

// countingResolver counts lookups before delegating.
type countingResolver struct {
	inner moveschema.ModuleResolver
	calls atomic.Int32
}

func (r *countingResolver) GetModule(ctx context.Context, id moveschema.ModuleID) (*moveschema.ModuleDefinition, error) {
	r.calls.Add(1)
	return r.inner.GetModule(ctx, id)
}

func TestService_TxDeduplication(t *testing.T) {
	t.Run("drops envelopes with a repeated transaction digest", func(t *testing.T) {
		digest, err := types.DigestFromString("0xabc123")
		require.NoError(t, err)

		first := coinEnvelope(t, 1, 1)
		first.TxDigest = &digest
		repeat := coinEnvelope(t, 2, 2)
		repeat.TxDigest = &digest
		other := coinEnvelope(t, 3, 3)

		svc := New(
			NewSliceSource(first, repeat, other),
			coinResolver(t),
			WithTxDeduplication(),
			WithWorkerCount(1),
		)
		defer svc.Close()

		out, err := svc.Start(t.Context())
		require.NoError(t, err)

		envelopes := collect(t, out)
		require.Len(t, envelopes, 2)
		assert.Equal(t, uint64(1), envelopes[0].Timestamp)
		assert.Equal(t, uint64(3), envelopes[1].Timestamp)
	})
}

func TestNewReaderSource(t *testing.T) {
	t.Run("streams one envelope per line and skips blanks", func(t *testing.T) {
		lines := strings.Join([]string{
			`{"timestamp": 1, "event": {"type": "deleteObject", "deleteObject": {"objectId": "0x0000000000000000000000000000000000000001"}}}`,
			``,
			`{"timestamp": 2, "event": {"type": "checkpoint", "checkpoint": {"sequenceNumber": 9}}}`,
		}, "\n")

		source := NewReaderSource(strings.NewReader(lines))

		ch, err := source.Subscribe(t.Context())
		require.NoError(t, err)

		envelopes := collect(t, ch)
		require.Len(t, envelopes, 2)
		assert.Equal(t, moveevent.EventTypeDeleteObject, envelopes[0].EventType())
		assert.Equal(t, moveevent.EventTypeCheckpoint, envelopes[1].EventType())
	})

	t.Run("ends the stream on a malformed line", func(t *testing.T) {
		lines := strings.Join([]string{
			`{"timestamp": 1, "event": {"type": "checkpoint", "checkpoint": {"sequenceNumber": 1}}}`,
			`not json`,
			`{"timestamp": 2, "event": {"type": "checkpoint", "checkpoint": {"sequenceNumber": 2}}}`,
		}, "\n")

		source := NewReaderSource(strings.NewReader(lines))

		ch, err := source.Subscribe(t.Context())
		require.NoError(t, err)

		envelopes := collect(t, ch)
		assert.Len(t, envelopes, 1)
	})
}
