package moveschema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gabapcia/movewatch/internal/pkg/types"
	"github.com/gabapcia/movewatch/internal/pkg/validator"
)

// ErrModuleNotFound is returned by ModuleResolver implementations when the
// requested module does not exist in the underlying registry.
var ErrModuleNotFound = errors.New("module not found")

// ModuleResolver is the external capability that maps a module identifier to
// its compiled definition. The engine never owns a concrete registry; the
// caller injects one on every resolution.
//
// Implementations must be deterministic within one resolution call graph: a
// module may not change shape while a layout is being built against it.
type ModuleResolver interface {
	// GetModule returns the definition of the module identified by id.
	//
	// If the module is not present in the registry, GetModule returns
	// ErrModuleNotFound. Any other error indicates an infrastructure
	// failure (storage, network) rather than a definite absence.
	//
	// ctx controls cancellation and deadlines for any underlying I/O.
	GetModule(ctx context.Context, id ModuleID) (*ModuleDefinition, error)
}

// FieldDefinition is one declared field of a struct: its name and declared
// type. The type may reference the enclosing struct's type parameters via
// TypeParamTag.
type FieldDefinition struct {
	Name string
	Type TypeTag
}

// StructDefinition is the declaration of one struct inside a module: the
// arity of its generic type parameters and its fields in declaration order.
type StructDefinition struct {
	TypeParams int
	Fields     []FieldDefinition
}

// ModuleDefinition is the narrow compiled-module descriptor the engine
// depends on: the struct declarations of one deployed module. How modules
// are compiled, stored, or cached is out of scope; resolvers only need to
// produce this shape.
type ModuleDefinition struct {
	ID      ModuleID
	Structs map[string]StructDefinition
}

// wire shapes for the JSON encoding of module definitions. Field types are
// encoded in their canonical text form so the same representation works for
// storage backends and RPC payloads.
type (
	moduleDefinitionWire struct {
		Address string                          `json:"address" validate:"required"`
		Name    string                          `json:"name" validate:"required"`
		Structs map[string]structDefinitionWire `json:"structs"`
	}

	structDefinitionWire struct {
		TypeParams int                   `json:"typeParams" validate:"gte=0"`
		Fields     []fieldDefinitionWire `json:"fields"`
	}

	fieldDefinitionWire struct {
		Name string `json:"name" validate:"required"`
		Type string `json:"type" validate:"required"`
	}
)

// MarshalJSON encodes the module definition in its wire form.
func (m ModuleDefinition) MarshalJSON() ([]byte, error) {
	wire := moduleDefinitionWire{
		Address: m.ID.Address.String(),
		Name:    m.ID.Name,
		Structs: make(map[string]structDefinitionWire, len(m.Structs)),
	}

	for name, def := range m.Structs {
		fields := make([]fieldDefinitionWire, len(def.Fields))
		for i, field := range def.Fields {
			fields[i] = fieldDefinitionWire{
				Name: field.Name,
				Type: field.Type.String(),
			}
		}

		wire.Structs[name] = structDefinitionWire{
			TypeParams: def.TypeParams,
			Fields:     fields,
		}
	}

	return json.Marshal(wire)
}

// UnmarshalJSON decodes and validates a wire-form module definition,
// parsing every declared field type back into a TypeTag.
func (m *ModuleDefinition) UnmarshalJSON(data []byte) error {
	var wire moduleDefinitionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	if err := validator.Validate(wire); err != nil {
		return err
	}

	address, err := types.AddressFromString(wire.Address)
	if err != nil {
		return err
	}

	structs := make(map[string]StructDefinition, len(wire.Structs))
	for name, structWire := range wire.Structs {
		if err := validator.Validate(structWire); err != nil {
			return err
		}

		fields := make([]FieldDefinition, len(structWire.Fields))
		for i, fieldWire := range structWire.Fields {
			if err := validator.Validate(fieldWire); err != nil {
				return err
			}

			fieldType, err := ParseTypeTag(fieldWire.Type)
			if err != nil {
				return fmt.Errorf("struct %q field %q: %w", name, fieldWire.Name, err)
			}

			fields[i] = FieldDefinition{Name: fieldWire.Name, Type: fieldType}
		}

		structs[name] = StructDefinition{
			TypeParams: structWire.TypeParams,
			Fields:     fields,
		}
	}

	m.ID = ModuleID{Address: address, Name: wire.Name}
	m.Structs = structs
	return nil
}
