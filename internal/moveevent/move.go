package moveevent

import (
	"context"

	"github.com/gabapcia/movewatch/internal/moveschema"
	"github.com/gabapcia/movewatch/internal/movevalue"
)

// Layout resolves the field layout of the event's payload type.
//
// The resolver must contain the module declaring StructType and all of its
// transitive dependencies; any gap surfaces as a layout-resolution error.
func (e Move) Layout(ctx context.Context, format moveschema.Format, resolver moveschema.ModuleResolver) (*moveschema.StructLayout, error) {
	return moveschema.BuildLayout(ctx, e.StructType, format, resolver)
}

// ToStruct decodes the event's payload bytes against an already resolved
// layout.
func (e Move) ToStruct(layout *moveschema.StructLayout) (*movevalue.Struct, error) {
	return movevalue.Decode(e.Contents, layout)
}

// ToStructWithResolver resolves the payload layout and decodes the payload
// in one step. It fails atomically on either sub-step.
func (e Move) ToStructWithResolver(ctx context.Context, format moveschema.Format, resolver moveschema.ModuleResolver) (*movevalue.Struct, error) {
	return movevalue.DecodeWithResolver(ctx, e.Contents, e.StructType, format, resolver)
}

// ExtractStruct decodes the payload of a Move event into a structured value,
// resolving its layout through the given resolver. For every other event
// kind it returns (nil, nil): only Move events carry a decodable payload.
func ExtractStruct(ctx context.Context, e Event, resolver moveschema.ModuleResolver) (*movevalue.Struct, error) {
	event, ok := e.(Move)
	if !ok {
		return nil, nil
	}

	return event.ToStructWithResolver(ctx, moveschema.Format{}, resolver)
}
