package moveevent

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gabapcia/movewatch/internal/moveschema"
	"github.com/gabapcia/movewatch/internal/pkg/types"
)

// ErrUnknownEventType is returned when a serialized event carries a
// discriminant tag outside the closed set.
var ErrUnknownEventType = errors.New("unknown event type")

// wire shapes for the self-describing tagged union: the discriminant rides
// in "type" and exactly one variant payload field is populated. Move payload
// bytes cross this boundary as-is (base64 in JSON), never partially decoded.
type (
	eventWire struct {
		Type           EventType           `json:"type"`
		Move           *moveEventWire      `json:"moveEvent,omitempty"`
		Publish        *publishWire        `json:"publish,omitempty"`
		TransferObject *transferObjectWire `json:"transferObject,omitempty"`
		DeleteObject   *objectWire         `json:"deleteObject,omitempty"`
		NewObject      *objectWire         `json:"newObject,omitempty"`
		EpochChange    *epochChangeWire    `json:"epochChange,omitempty"`
		Checkpoint     *checkpointWire     `json:"checkpoint,omitempty"`
	}

	moveEventWire struct {
		StructType string `json:"structType"`
		Contents   []byte `json:"contents"`
	}

	publishWire struct {
		PackageID types.ObjectID `json:"packageId"`
	}

	transferObjectWire struct {
		ObjectID    types.ObjectID       `json:"objectId"`
		Version     types.SequenceNumber `json:"version"`
		Destination types.Address        `json:"destinationAddr"`
		Kind        TransferKind         `json:"transferType"`
	}

	objectWire struct {
		ObjectID types.ObjectID `json:"objectId"`
	}

	epochChangeWire struct {
		Epoch types.EpochID `json:"epochId"`
	}

	checkpointWire struct {
		Sequence types.CheckpointSequenceNumber `json:"sequenceNumber"`
	}
)

// MarshalEvent serializes an event into its tagged-union wire form.
func MarshalEvent(e Event) ([]byte, error) {
	wire := eventWire{Type: e.Type()}

	switch event := e.(type) {
	case Move:
		wire.Move = &moveEventWire{
			StructType: event.StructType.String(),
			Contents:   event.Contents,
		}
	case Publish:
		wire.Publish = &publishWire{PackageID: event.PackageID}
	case TransferObject:
		wire.TransferObject = &transferObjectWire{
			ObjectID:    event.ObjectID,
			Version:     event.Version,
			Destination: event.Destination,
			Kind:        event.Kind,
		}
	case DeleteObject:
		wire.DeleteObject = &objectWire{ObjectID: event.ObjectID}
	case NewObject:
		wire.NewObject = &objectWire{ObjectID: event.ObjectID}
	case EpochChange:
		wire.EpochChange = &epochChangeWire{Epoch: event.Epoch}
	case Checkpoint:
		wire.Checkpoint = &checkpointWire{Sequence: event.Sequence}
	default:
		panic(unknownEventMessage(e))
	}

	return json.Marshal(wire)
}

// UnmarshalEvent deserializes the tagged-union wire form back into an Event.
// A discriminant outside the closed set, or a payload that does not match
// its discriminant, is an error.
func UnmarshalEvent(data []byte) (Event, error) {
	var wire eventWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}

	switch wire.Type {
	case EventTypeMove:
		if wire.Move == nil {
			return nil, missingPayloadError(wire.Type)
		}
		structType, err := moveschema.ParseStructTag(wire.Move.StructType)
		if err != nil {
			return nil, err
		}
		return Move{StructType: structType, Contents: wire.Move.Contents}, nil

	case EventTypePublish:
		if wire.Publish == nil {
			return nil, missingPayloadError(wire.Type)
		}
		return Publish{PackageID: wire.Publish.PackageID}, nil

	case EventTypeTransferObject:
		if wire.TransferObject == nil {
			return nil, missingPayloadError(wire.Type)
		}
		return TransferObject{
			ObjectID:    wire.TransferObject.ObjectID,
			Version:     wire.TransferObject.Version,
			Destination: wire.TransferObject.Destination,
			Kind:        wire.TransferObject.Kind,
		}, nil

	case EventTypeDeleteObject:
		if wire.DeleteObject == nil {
			return nil, missingPayloadError(wire.Type)
		}
		return DeleteObject{ObjectID: wire.DeleteObject.ObjectID}, nil

	case EventTypeNewObject:
		if wire.NewObject == nil {
			return nil, missingPayloadError(wire.Type)
		}
		return NewObject{ObjectID: wire.NewObject.ObjectID}, nil

	case EventTypeEpochChange:
		if wire.EpochChange == nil {
			return nil, missingPayloadError(wire.Type)
		}
		return EpochChange{Epoch: wire.EpochChange.Epoch}, nil

	case EventTypeCheckpoint:
		if wire.Checkpoint == nil {
			return nil, missingPayloadError(wire.Type)
		}
		return Checkpoint{Sequence: wire.Checkpoint.Sequence}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, wire.Type)
	}
}

func missingPayloadError(t EventType) error {
	return fmt.Errorf("event tagged %q carries no matching payload", t)
}
