package movevalue

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gabapcia/movewatch/internal/moveschema"
)

// ErrDecode is the uniform error kind for every payload-decoding failure:
// truncated input, malformed length prefixes, and trailing unconsumed bytes.
// It is never retryable — the payload is fixed at emission time.
var ErrDecode = errors.New("struct decode failed")

// maxVectorLength caps the element count a single length prefix may claim,
// so a malformed prefix fails fast instead of driving huge allocations.
const maxVectorLength = 1 << 24

// decodeErrorf wraps a cause into the uniform ErrDecode kind.
func decodeErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDecode, fmt.Sprintf(format, args...))
}

// Decode deserializes contents against the resolved layout, depth-first in
// field declaration order: fixed-width primitives consume their exact byte
// count little-endian, vectors are ULEB128 length-prefixed, nested structs
// consume exactly the bytes their own layout implies, with no padding.
//
// The encoding is tightly packed, so any bytes left over after the top-level
// struct are an error. All failures surface as ErrDecode; no partial value
// is ever returned.
func Decode(contents []byte, layout *moveschema.StructLayout) (*Struct, error) {
	r := &byteReader{buf: contents}

	value, err := decodeStruct(r, layout)
	if err != nil {
		return nil, err
	}

	if remaining := r.remaining(); remaining > 0 {
		return nil, decodeErrorf("%d trailing bytes after a complete value", remaining)
	}

	return value, nil
}

// DecodeWithResolver composes layout resolution and decoding as one
// operation: it builds the layout for tag via the resolver and then decodes
// contents against it. It fails atomically on either sub-step, with the
// error kind identifying which one.
func DecodeWithResolver(ctx context.Context, contents []byte, tag moveschema.StructTag, format moveschema.Format, resolver moveschema.ModuleResolver) (*Struct, error) {
	layout, err := moveschema.BuildLayout(ctx, tag, format, resolver)
	if err != nil {
		return nil, err
	}

	return Decode(contents, layout)
}

// byteReader is a bounds-checked cursor over the payload bytes.
type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) remaining() int {
	return len(r.buf) - r.pos
}

// take consumes exactly n bytes or fails with a decode error.
func (r *byteReader) take(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, decodeErrorf("need %d bytes at offset %d, only %d remain", n, r.pos, r.remaining())
	}

	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// takeULEB128 consumes an unsigned LEB128-encoded 32-bit length prefix.
func (r *byteReader) takeULEB128() (uint32, error) {
	var (
		value uint64
		shift uint
	)

	for {
		chunk, err := r.take(1)
		if err != nil {
			return 0, err
		}

		b := chunk[0]
		value |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}

		shift += 7
		if shift > 31 {
			return 0, decodeErrorf("length prefix at offset %d exceeds 32 bits", r.pos)
		}
	}

	if value > maxVectorLength {
		return 0, decodeErrorf("length prefix %d exceeds the maximum of %d", value, maxVectorLength)
	}
	return uint32(value), nil
}

func decodeStruct(r *byteReader, layout *moveschema.StructLayout) (*Struct, error) {
	fields := make([]Field, len(layout.Fields))
	for i, field := range layout.Fields {
		value, err := decodeValue(r, field.Layout)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name, err)
		}
		fields[i] = Field{Name: field.Name, Value: value}
	}

	return &Struct{Tag: layout.Tag, Fields: fields}, nil
}

func decodeValue(r *byteReader, layout moveschema.TypeLayout) (Value, error) {
	switch l := layout.(type) {
	case moveschema.BoolLayout:
		raw, err := r.take(1)
		if err != nil {
			return nil, err
		}
		switch raw[0] {
		case 0:
			return Bool(false), nil
		case 1:
			return Bool(true), nil
		default:
			return nil, decodeErrorf("invalid boolean discriminant %#x at offset %d", raw[0], r.pos-1)
		}

	case moveschema.U8Layout:
		raw, err := r.take(1)
		if err != nil {
			return nil, err
		}
		return U8(raw[0]), nil

	case moveschema.U16Layout:
		raw, err := r.take(2)
		if err != nil {
			return nil, err
		}
		return U16(binary.LittleEndian.Uint16(raw)), nil

	case moveschema.U32Layout:
		raw, err := r.take(4)
		if err != nil {
			return nil, err
		}
		return U32(binary.LittleEndian.Uint32(raw)), nil

	case moveschema.U64Layout:
		raw, err := r.take(8)
		if err != nil {
			return nil, err
		}
		return U64(binary.LittleEndian.Uint64(raw)), nil

	case moveschema.U128Layout:
		raw, err := r.take(16)
		if err != nil {
			return nil, err
		}
		var value U128
		copy(value[:], raw)
		return value, nil

	case moveschema.AddressLayout:
		raw, err := r.take(len(Address{}))
		if err != nil {
			return nil, err
		}
		var value Address
		copy(value[:], raw)
		return value, nil

	case moveschema.SignerLayout:
		raw, err := r.take(len(Signer{}))
		if err != nil {
			return nil, err
		}
		var value Signer
		copy(value[:], raw)
		return value, nil

	case moveschema.VectorLayout:
		length, err := r.takeULEB128()
		if err != nil {
			return nil, err
		}

		elems := make(Vector, length)
		for i := range elems {
			elem, err := decodeValue(r, l.Elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = elem
		}
		return elems, nil

	case *moveschema.StructLayout:
		return decodeStruct(r, l)

	default:
		// The layout sum is closed; a new variant here is a programming
		// error in this package, not a malformed payload.
		panic(fmt.Sprintf("movevalue: unknown layout %T", layout))
	}
}
