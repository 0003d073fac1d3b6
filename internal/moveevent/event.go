// Package moveevent models the closed set of events a node exposes to
// external consumers: contract-emitted Move events carrying undecoded
// payload bytes, object lifecycle and transfer events, module publications,
// and epoch/checkpoint markers. Each event is an immutable value; the
// envelope wraps one event with its delivery metadata.
package moveevent

import (
	"github.com/gabapcia/movewatch/internal/moveschema"
	"github.com/gabapcia/movewatch/internal/pkg/types"
)

// EventType is the stable discriminant of an event kind. It is derivable
// without inspecting the payload, which makes it cheap to filter and index
// on, and doubles as the tag of the serialized wire form.
type EventType string

const (
	EventTypeMove           EventType = "moveEvent"
	EventTypePublish        EventType = "publish"
	EventTypeTransferObject EventType = "transferObject"
	EventTypeDeleteObject   EventType = "deleteObject"
	EventTypeNewObject      EventType = "newObject"
	EventTypeEpochChange    EventType = "epochChange"
	EventTypeCheckpoint     EventType = "checkpoint"
)

// TransferKind is the closed set of object-transfer flavors.
type TransferKind string

const (
	TransferKindCoin      TransferKind = "coin"
	TransferKindToAddress TransferKind = "toAddress"
	TransferKindToObject  TransferKind = "toObject" // wrap object in another object
)

// Event is the closed tagged union over event kinds. Construction of every
// variant is total: no validation happens beyond what the identifier types
// already enforce. The set of implementations is sealed to this package;
// consumers switch exhaustively over the concrete types or filter on Type().
type Event interface {
	// Type returns the stable discriminant of the event kind.
	Type() EventType

	// isEvent seals the interface to this package's variants.
	isEvent()
}

// Move is a contract-emitted event: an opaque struct tag plus the raw
// payload bytes. Contents is only meaningful relative to the layout resolved
// from StructType and is never interpreted before a layout is resolved.
type Move struct {
	StructType moveschema.StructTag
	Contents   []byte
}

// Publish records a module publication under a new package ID.
type Publish struct {
	PackageID types.ObjectID
}

// TransferObject records an object changing ownership: to an address, into
// another object, or as a coin transfer.
type TransferObject struct {
	ObjectID    types.ObjectID
	Version     types.SequenceNumber
	Destination types.Address
	Kind        TransferKind
}

// DeleteObject records the deletion of an object.
type DeleteObject struct {
	ObjectID types.ObjectID
}

// NewObject records the creation of an object.
type NewObject struct {
	ObjectID types.ObjectID
}

// EpochChange marks the transition into a new epoch.
type EpochChange struct {
	Epoch types.EpochID
}

// Checkpoint marks a new checkpoint in the global sequence.
type Checkpoint struct {
	Sequence types.CheckpointSequenceNumber
}

func (Move) isEvent()           {}
func (Publish) isEvent()        {}
func (TransferObject) isEvent() {}
func (DeleteObject) isEvent()   {}
func (NewObject) isEvent()      {}
func (EpochChange) isEvent()    {}
func (Checkpoint) isEvent()     {}

func (Move) Type() EventType           { return EventTypeMove }
func (Publish) Type() EventType        { return EventTypePublish }
func (TransferObject) Type() EventType { return EventTypeTransferObject }
func (DeleteObject) Type() EventType   { return EventTypeDeleteObject }
func (NewObject) Type() EventType      { return EventTypeNewObject }
func (EpochChange) Type() EventType    { return EventTypeEpochChange }
func (Checkpoint) Type() EventType     { return EventTypeCheckpoint }

// ObjectID returns the object or package identifier associated with the
// event, if it has one:
//
//   - Publish: the package ID (the object ID of the published module)
//   - TransferObject: the object being transferred
//   - DeleteObject and NewObject: the affected object
//
// Every other kind — including Move, which has no implicit object
// association — reports false.
func ObjectID(e Event) (types.ObjectID, bool) {
	switch event := e.(type) {
	case Publish:
		return event.PackageID, true
	case TransferObject:
		return event.ObjectID, true
	case DeleteObject:
		return event.ObjectID, true
	case NewObject:
		return event.ObjectID, true
	case Move, EpochChange, Checkpoint:
		return types.ObjectID{}, false
	default:
		panic(unknownEventMessage(e))
	}
}

// ModuleID returns the identifier of the module that defines the event's
// payload type. Only Move events have one; every other kind reports false.
func ModuleID(e Event) (moveschema.ModuleID, bool) {
	switch event := e.(type) {
	case Move:
		return event.StructType.ModuleID(), true
	case Publish, TransferObject, DeleteObject, NewObject, EpochChange, Checkpoint:
		return moveschema.ModuleID{}, false
	default:
		panic(unknownEventMessage(e))
	}
}

func unknownEventMessage(e Event) string {
	return "moveevent: unknown event variant " + string(e.Type())
}
