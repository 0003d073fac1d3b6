// Package moveschema models the runtime type system of Move-emitted data:
// type tags, fully-qualified struct tags, compiled-module descriptors, and
// the layout builder that turns a struct tag into a concrete field layout by
// recursively querying a module resolver.
//
// Everything in this package is an immutable value; all functions are pure
// and safe for concurrent use. The only external capability is the
// ModuleResolver, supplied by the caller on every resolution.
package moveschema

import (
	"fmt"
	"strings"

	"github.com/gabapcia/movewatch/internal/pkg/types"
)

// TypeTag is the recursive sum of runtime Move types: fixed-width integers,
// bool, address, signer, vectors, struct instantiations, and (only inside
// module declarations) positional type parameters.
//
// The set of implementations is closed; consumers switch exhaustively over
// the concrete tag types.
type TypeTag interface {
	fmt.Stringer

	// isTypeTag seals the interface to this package's variants.
	isTypeTag()
}

// BoolTag is the boolean type.
type BoolTag struct{}

// U8Tag is the unsigned 8-bit integer type.
type U8Tag struct{}

// U16Tag is the unsigned 16-bit integer type.
type U16Tag struct{}

// U32Tag is the unsigned 32-bit integer type.
type U32Tag struct{}

// U64Tag is the unsigned 64-bit integer type.
type U64Tag struct{}

// U128Tag is the unsigned 128-bit integer type.
type U128Tag struct{}

// AddressTag is the account address type.
type AddressTag struct{}

// SignerTag is the transaction signer type. It shares the address width.
type SignerTag struct{}

// VectorTag is a homogeneous variable-length sequence of Elem values.
type VectorTag struct {
	Elem TypeTag
}

// TypeParamTag is a positional reference to a generic type parameter of the
// enclosing struct declaration. It is only legal inside a ModuleDefinition;
// the layout builder substitutes it with the concrete type argument before
// any layout is produced.
type TypeParamTag struct {
	Index int
}

// StructTag is the fully-qualified name of a contract-defined struct type,
// including the concrete type arguments of a generic instantiation. It is
// immutable and doubles as a TypeTag variant.
type StructTag struct {
	Address    types.Address // address the defining module is published under
	Module     string        // defining module name
	Name       string        // struct name within the module
	TypeParams []TypeTag     // concrete type arguments, in declaration order
}

// ModuleID identifies a deployed module: the publishing address plus the
// module name. It is comparable and used as the resolver lookup key.
type ModuleID struct {
	Address types.Address
	Name    string
}

// String renders the module ID as "<address>::<name>".
func (m ModuleID) String() string {
	return fmt.Sprintf("%s::%s", m.Address, m.Name)
}

// ModuleID returns the identifier of the module defining this struct.
func (t StructTag) ModuleID() ModuleID {
	return ModuleID{Address: t.Address, Name: t.Module}
}

func (BoolTag) isTypeTag()      {}
func (U8Tag) isTypeTag()        {}
func (U16Tag) isTypeTag()       {}
func (U32Tag) isTypeTag()       {}
func (U64Tag) isTypeTag()       {}
func (U128Tag) isTypeTag()      {}
func (AddressTag) isTypeTag()   {}
func (SignerTag) isTypeTag()    {}
func (VectorTag) isTypeTag()    {}
func (TypeParamTag) isTypeTag() {}
func (StructTag) isTypeTag()    {}

func (BoolTag) String() string    { return "bool" }
func (U8Tag) String() string      { return "u8" }
func (U16Tag) String() string     { return "u16" }
func (U32Tag) String() string     { return "u32" }
func (U64Tag) String() string     { return "u64" }
func (U128Tag) String() string    { return "u128" }
func (AddressTag) String() string { return "address" }
func (SignerTag) String() string  { return "signer" }

func (t VectorTag) String() string {
	return fmt.Sprintf("vector<%s>", t.Elem)
}

func (t TypeParamTag) String() string {
	return fmt.Sprintf("T%d", t.Index)
}

// String renders the struct tag in its canonical text form:
// "<address>::<module>::<name>" followed by "<...>" type arguments when the
// instantiation is generic. The canonical form is what ParseStructTag
// accepts, and serves as the hashable identity of the tag.
func (t StructTag) String() string {
	var sb strings.Builder
	sb.WriteString(t.Address.String())
	sb.WriteString("::")
	sb.WriteString(t.Module)
	sb.WriteString("::")
	sb.WriteString(t.Name)

	if len(t.TypeParams) > 0 {
		sb.WriteByte('<')
		for i, param := range t.TypeParams {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(param.String())
		}
		sb.WriteByte('>')
	}

	return sb.String()
}
