// Package movevalue deserializes raw Move payload bytes against a resolved
// layout into an inspectable value tree. Decoding is a pure function of
// (contents, layout): the decoder performs no schema inference and no I/O of
// its own.
package movevalue

import (
	"math/big"
	"strconv"

	"github.com/gabapcia/movewatch/internal/moveschema"
	"github.com/gabapcia/movewatch/internal/pkg/types"
)

// Value is the decoded counterpart of a moveschema.TypeLayout node: leaves
// carry their primitive kind and raw value, internal nodes mirror vectors
// and structs. The set of implementations is closed.
type Value interface {
	// Render converts the value into a generic map/slice/scalar tree
	// suitable for display or JSON encoding by a consumer. The engine
	// itself never emits textual output.
	Render() any

	// isValue seals the interface to this package's variants.
	isValue()
}

// Bool is a decoded boolean.
type Bool bool

// U8 is a decoded unsigned 8-bit integer.
type U8 uint8

// U16 is a decoded unsigned 16-bit integer.
type U16 uint16

// U32 is a decoded unsigned 32-bit integer.
type U32 uint32

// U64 is a decoded unsigned 64-bit integer.
type U64 uint64

// U128 is a decoded unsigned 128-bit integer, kept in its little-endian
// wire representation. Use Big for arithmetic or display.
type U128 [16]byte

// Address is a decoded account address.
type Address types.Address

// Signer is a decoded signer reference. It shares the address width.
type Signer types.Address

// Vector is a decoded homogeneous sequence.
type Vector []Value

// Field pairs a field name with its decoded value.
type Field struct {
	Name  string
	Value Value
}

// Struct is a decoded struct value: fields in declaration order, plus the
// originating struct tag when the layout was resolved with type retention.
type Struct struct {
	Tag    *moveschema.StructTag
	Fields []Field
}

func (Bool) isValue()    {}
func (U8) isValue()      {}
func (U16) isValue()     {}
func (U32) isValue()     {}
func (U64) isValue()     {}
func (U128) isValue()    {}
func (Address) isValue() {}
func (Signer) isValue()  {}
func (Vector) isValue()  {}
func (*Struct) isValue() {}

// Big returns the integer as a big.Int.
func (u U128) Big() *big.Int {
	buf := make([]byte, len(u))
	for i, b := range u {
		buf[len(u)-1-i] = b
	}
	return new(big.Int).SetBytes(buf)
}

// Render returns the boolean as-is.
func (v Bool) Render() any { return bool(v) }

// Render returns the integer widened to uint64.
func (v U8) Render() any { return uint64(v) }

// Render returns the integer widened to uint64.
func (v U16) Render() any { return uint64(v) }

// Render returns the integer widened to uint64.
func (v U32) Render() any { return uint64(v) }

// Render returns the integer as a decimal string. u64 values can exceed the
// exact range of JSON numbers, so they are never rendered numerically.
func (v U64) Render() any { return strconv.FormatUint(uint64(v), 10) }

// Render returns the integer as a decimal string.
func (v U128) Render() any { return v.Big().String() }

// Render returns the address as a 0x-prefixed hex string.
func (v Address) Render() any { return types.Address(v).String() }

// Render returns the signer address as a 0x-prefixed hex string.
func (v Signer) Render() any { return types.Address(v).String() }

// Render returns a slice with every element rendered.
func (v Vector) Render() any {
	out := make([]any, len(v))
	for i, elem := range v {
		out[i] = elem.Render()
	}
	return out
}

// Render returns the struct as a field-name-keyed map. When the value
// carries its struct tag, the result is wrapped as
// {"type": <canonical tag>, "fields": {...}} so nested type names survive
// into the rendered form.
func (v *Struct) Render() any {
	fields := make(map[string]any, len(v.Fields))
	for _, field := range v.Fields {
		fields[field.Name] = field.Value.Render()
	}

	if v.Tag == nil {
		return fields
	}

	return map[string]any{
		"type":   v.Tag.String(),
		"fields": fields,
	}
}
