package moveevent

import (
	"encoding/json"

	"github.com/gabapcia/movewatch/internal/pkg/types"
)

// Envelope wraps one event with its delivery metadata. It is constructed
// once at emission time and never mutated afterwards: consumers that render
// a Move payload attach the result to a copy, not to the original.
//
// The envelope never owns a module resolver and performs no network or
// storage access; MoveStructJSON is produced out-of-band by a consumer that
// holds one.
type Envelope struct {
	// Timestamp is the emission time in milliseconds since the Unix epoch.
	Timestamp uint64

	// TxDigest references the transaction that emitted the event, if any.
	TxDigest *types.TransactionDigest

	// Event is the wrapped event.
	Event Event

	// MoveStructJSON is the optional pre-rendered payload of a Move event,
	// filled in lazily by a consumer holding a module resolver.
	MoveStructJSON json.RawMessage
}

// NewEnvelope wraps the given event with its delivery metadata.
func NewEnvelope(timestamp uint64, txDigest *types.TransactionDigest, event Event, moveStructJSON json.RawMessage) Envelope {
	return Envelope{
		Timestamp:      timestamp,
		TxDigest:       txDigest,
		Event:          event,
		MoveStructJSON: moveStructJSON,
	}
}

// EventType returns the discriminant of the wrapped event.
func (e Envelope) EventType() EventType {
	return e.Event.Type()
}

// envelopeWire is the JSON shape of an envelope; the event rides in its
// tagged-union wire form.
type envelopeWire struct {
	Timestamp      uint64                   `json:"timestamp"`
	TxDigest       *types.TransactionDigest `json:"txDigest,omitempty"`
	Event          json.RawMessage          `json:"event"`
	MoveStructJSON json.RawMessage          `json:"moveStructJson,omitempty"`
}

// MarshalJSON encodes the envelope with the event in tagged-union form.
func (e Envelope) MarshalJSON() ([]byte, error) {
	event, err := MarshalEvent(e.Event)
	if err != nil {
		return nil, err
	}

	return json.Marshal(envelopeWire{
		Timestamp:      e.Timestamp,
		TxDigest:       e.TxDigest,
		Event:          event,
		MoveStructJSON: e.MoveStructJSON,
	})
}

// UnmarshalJSON decodes an envelope, including its tagged-union event.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var wire envelopeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	event, err := UnmarshalEvent(wire.Event)
	if err != nil {
		return err
	}

	e.Timestamp = wire.Timestamp
	e.TxDigest = wire.TxDigest
	e.Event = event
	e.MoveStructJSON = wire.MoveStructJSON
	return nil
}
