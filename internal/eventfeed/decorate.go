package eventfeed

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/gabapcia/movewatch/internal/moveevent"
	"github.com/gabapcia/movewatch/internal/moveschema"
	"github.com/gabapcia/movewatch/internal/movevalue"
	"github.com/gabapcia/movewatch/internal/pkg/logger"
)

// DecodeFailure describes an envelope whose Move payload could not be
// decoded. The envelope itself still flows downstream undecorated.
type DecodeFailure struct {
	ProcessingID string
	Envelope     moveevent.Envelope
	Err          error
}

type decodeFailureHandler func(ctx context.Context, failure DecodeFailure)

func defaultOnDecodeFailure(ctx context.Context, failure DecodeFailure) {
	logger.Error(ctx, "event decode failure",
		"processing.id", failure.ProcessingID,
		"event.type", failure.Envelope.EventType(),
		"error", failure.Err,
	)
}

// decorate attaches the rendered structured value to Move-event envelopes.
// Non-Move envelopes and envelopes that already carry a rendered value pass
// through untouched.
func (s *service) decorate(ctx context.Context, envelope moveevent.Envelope) moveevent.Envelope {
	moveEvent, ok := envelope.Event.(moveevent.Move)
	if !ok || envelope.MoveStructJSON != nil {
		return envelope
	}

	value, err := s.decodeWithRetry(ctx, moveEvent)
	if err != nil {
		s.onDecodeFailure(ctx, DecodeFailure{
			ProcessingID: uuid.Must(uuid.NewV7()).String(),
			Envelope:     envelope,
			Err:          err,
		})
		return envelope
	}

	rendered, err := json.Marshal(value.Render())
	if err != nil {
		// Render only emits maps, slices, strings, and numbers.
		panic("eventfeed: rendered value is not serializable: " + err.Error())
	}

	envelope.MoveStructJSON = rendered
	return envelope
}

// decodeWithRetry decodes the Move payload, retrying only transient resolver
// failures. A registry miss or a payload/layout mismatch is definitive and
// fails immediately.
func (s *service) decodeWithRetry(ctx context.Context, moveEvent moveevent.Move) (*movevalue.Struct, error) {
	decode := func() (*movevalue.Struct, error) {
		return moveEvent.ToStructWithResolver(ctx, s.format, s.resolver)
	}

	value, err := decode()
	if s.retry != nil && isTransient(err) {
		_ = s.retry.Execute(ctx, func() error {
			value, err = decode()
			if isTransient(err) {
				return err
			}
			return nil
		})
	}

	return value, err
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, moveschema.ErrModuleNotFound) || errors.Is(err, movevalue.ErrDecode) {
		return false
	}
	return errors.Is(err, moveschema.ErrLayoutResolution)
}
