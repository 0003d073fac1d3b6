package moveschema

import (
	"context"
	"errors"
	"fmt"
)

// ErrLayoutResolution is the uniform error kind for every layout-resolution
// failure: missing modules, unknown structs, type-argument arity mismatches,
// unresolvable field types, and malformed definitions. It is non-retryable
// unless the underlying module registry changes.
var ErrLayoutResolution = errors.New("layout resolution failed")

// maxLayoutDepth bounds the recursive expansion of nested struct and vector
// types. Well-formed type definitions are acyclic, so real layouts stay
// shallow; the bound turns adversarial generic-instantiation blowup into a
// resolution error instead of a stack overflow.
const maxLayoutDepth = 128

// Format selects the layout resolution mode. It is the only recognized
// option: with IncludeTypes set, every struct-typed layout node retains its
// originating StructTag so consumers can re-render nested type names; without
// it, layouts carry field names only.
type Format struct {
	IncludeTypes bool
}

// TypeLayout is the resolved, concrete structure of one Move type: a tree
// whose leaves are primitive-kind descriptors and whose internal nodes are
// vectors and structs. The set of implementations is closed.
type TypeLayout interface {
	// isTypeLayout seals the interface to this package's variants.
	isTypeLayout()
}

// BoolLayout is the layout leaf for bool values.
type BoolLayout struct{}

// U8Layout is the layout leaf for u8 values.
type U8Layout struct{}

// U16Layout is the layout leaf for u16 values.
type U16Layout struct{}

// U32Layout is the layout leaf for u32 values.
type U32Layout struct{}

// U64Layout is the layout leaf for u64 values.
type U64Layout struct{}

// U128Layout is the layout leaf for u128 values.
type U128Layout struct{}

// AddressLayout is the layout leaf for account addresses.
type AddressLayout struct{}

// SignerLayout is the layout leaf for signer values.
type SignerLayout struct{}

// VectorLayout is the layout of a length-prefixed homogeneous sequence.
type VectorLayout struct {
	Elem TypeLayout
}

// FieldLayout pairs a field name with the resolved layout of its type.
type FieldLayout struct {
	Name   string
	Layout TypeLayout
}

// StructLayout is the resolved field structure of one struct instantiation,
// in declaration order. Tag is populated only when the layout was built with
// Format.IncludeTypes.
type StructLayout struct {
	Tag    *StructTag
	Fields []FieldLayout
}

func (BoolLayout) isTypeLayout()    {}
func (U8Layout) isTypeLayout()      {}
func (U16Layout) isTypeLayout()     {}
func (U32Layout) isTypeLayout()     {}
func (U64Layout) isTypeLayout()     {}
func (U128Layout) isTypeLayout()    {}
func (AddressLayout) isTypeLayout() {}
func (SignerLayout) isTypeLayout()  {}
func (VectorLayout) isTypeLayout()  {}
func (*StructLayout) isTypeLayout() {}

// resolutionErrorf wraps a cause into the uniform ErrLayoutResolution kind.
func resolutionErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLayoutResolution, fmt.Sprintf(format, args...))
}

// BuildLayout resolves the given struct tag into its concrete field layout
// by recursively querying the resolver for every (transitively) referenced
// module. Generic type parameters are substituted with the concrete type
// arguments carried by the tag before recursing.
//
// Any failure — a missing module, an unknown struct, an unresolvable field
// type, a malformed definition — surfaces as ErrLayoutResolution; no partial
// layout is ever returned. Acyclicity of the type definitions is a resolver
// contract; pathologically deep expansions fail once maxLayoutDepth is hit.
func BuildLayout(ctx context.Context, tag StructTag, format Format, resolver ModuleResolver) (*StructLayout, error) {
	return buildStructLayout(ctx, tag, format, resolver, 0)
}

func buildStructLayout(ctx context.Context, tag StructTag, format Format, resolver ModuleResolver, depth int) (*StructLayout, error) {
	if depth > maxLayoutDepth {
		return nil, resolutionErrorf("type %s exceeds the maximum expansion depth of %d", tag, maxLayoutDepth)
	}

	module, err := resolver.GetModule(ctx, tag.ModuleID())
	if err != nil {
		return nil, fmt.Errorf("%w: resolving module %s: %w", ErrLayoutResolution, tag.ModuleID(), err)
	}

	def, ok := module.Structs[tag.Name]
	if !ok {
		return nil, resolutionErrorf("module %s does not declare struct %q", tag.ModuleID(), tag.Name)
	}

	if def.TypeParams != len(tag.TypeParams) {
		return nil, resolutionErrorf("struct %s expects %d type arguments, got %d", tag, def.TypeParams, len(tag.TypeParams))
	}

	fields := make([]FieldLayout, len(def.Fields))
	for i, field := range def.Fields {
		fieldLayout, err := buildFieldLayout(ctx, field.Type, tag.TypeParams, format, resolver, depth+1)
		if err != nil {
			return nil, fmt.Errorf("struct %s field %q: %w", tag, field.Name, err)
		}
		fields[i] = FieldLayout{Name: field.Name, Layout: fieldLayout}
	}

	layout := &StructLayout{Fields: fields}
	if format.IncludeTypes {
		instantiated := tag
		layout.Tag = &instantiated
	}
	return layout, nil
}

// buildFieldLayout resolves one declared field type: it substitutes the
// enclosing struct's type arguments and expands the concrete result.
func buildFieldLayout(ctx context.Context, declared TypeTag, typeArgs []TypeTag, format Format, resolver ModuleResolver, depth int) (TypeLayout, error) {
	concrete, err := substituteTypeParams(declared, typeArgs)
	if err != nil {
		return nil, err
	}

	switch tag := concrete.(type) {
	case BoolTag:
		return BoolLayout{}, nil
	case U8Tag:
		return U8Layout{}, nil
	case U16Tag:
		return U16Layout{}, nil
	case U32Tag:
		return U32Layout{}, nil
	case U64Tag:
		return U64Layout{}, nil
	case U128Tag:
		return U128Layout{}, nil
	case AddressTag:
		return AddressLayout{}, nil
	case SignerTag:
		return SignerLayout{}, nil
	case VectorTag:
		elem, err := buildFieldLayout(ctx, tag.Elem, nil, format, resolver, depth+1)
		if err != nil {
			return nil, err
		}
		return VectorLayout{Elem: elem}, nil
	case StructTag:
		return buildStructLayout(ctx, tag, format, resolver, depth)
	case TypeParamTag:
		// substituteTypeParams already rejected out-of-range references,
		// and in-range ones were replaced. Reaching this means the
		// substitution itself produced a type parameter.
		return nil, resolutionErrorf("type argument resolves to unsubstituted type parameter T%d", tag.Index)
	default:
		panic(fmt.Sprintf("moveschema: unknown type tag %T", concrete))
	}
}

// substituteTypeParams replaces every TypeParamTag in t with the
// corresponding concrete type argument. References beyond the supplied
// arguments are a resolution error.
func substituteTypeParams(t TypeTag, typeArgs []TypeTag) (TypeTag, error) {
	switch tag := t.(type) {
	case TypeParamTag:
		if tag.Index >= len(typeArgs) {
			return nil, resolutionErrorf("type parameter T%d out of range (%d type arguments supplied)", tag.Index, len(typeArgs))
		}
		return typeArgs[tag.Index], nil

	case VectorTag:
		elem, err := substituteTypeParams(tag.Elem, typeArgs)
		if err != nil {
			return nil, err
		}
		return VectorTag{Elem: elem}, nil

	case StructTag:
		if len(tag.TypeParams) == 0 {
			return tag, nil
		}
		params := make([]TypeTag, len(tag.TypeParams))
		for i, param := range tag.TypeParams {
			substituted, err := substituteTypeParams(param, typeArgs)
			if err != nil {
				return nil, err
			}
			params[i] = substituted
		}
		return StructTag{
			Address:    tag.Address,
			Module:     tag.Module,
			Name:       tag.Name,
			TypeParams: params,
		}, nil

	default:
		return t, nil
	}
}
