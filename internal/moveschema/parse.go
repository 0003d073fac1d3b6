package moveschema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gabapcia/movewatch/internal/pkg/types"
)

// ErrInvalidTypeTag is returned when a canonical type string cannot be
// parsed back into a TypeTag.
var ErrInvalidTypeTag = errors.New("invalid type tag")

// ParseTypeTag parses the canonical text form produced by TypeTag.String
// (e.g. "u64", "vector<address>", "0x2::coin::Coin<u64>", "T0") back into a
// TypeTag. The whole input must be consumed.
func ParseTypeTag(s string) (TypeTag, error) {
	p := &tagParser{input: s}

	tag, err := p.parseType()
	if err != nil {
		return nil, err
	}

	p.skipSpaces()
	if p.pos != len(p.input) {
		return nil, p.errorf("unexpected trailing input %q", p.input[p.pos:])
	}

	return tag, nil
}

// ParseStructTag parses the canonical text form of a fully-qualified struct
// type (e.g. "0x2::coin::Coin<u64>").
func ParseStructTag(s string) (StructTag, error) {
	tag, err := ParseTypeTag(s)
	if err != nil {
		return StructTag{}, err
	}

	structTag, ok := tag.(StructTag)
	if !ok {
		return StructTag{}, fmt.Errorf("%w: %q is not a struct type", ErrInvalidTypeTag, s)
	}

	return structTag, nil
}

// tagParser is a single-pass recursive-descent parser over the canonical
// type-tag grammar.
type tagParser struct {
	input string
	pos   int
}

func (p *tagParser) errorf(format string, args ...any) error {
	cause := fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: %s (at offset %d of %q)", ErrInvalidTypeTag, cause, p.pos, p.input)
}

func (p *tagParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

// readToken consumes the next run of token characters (letters, digits and
// underscores) and returns it.
func (p *tagParser) readToken() string {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '_' ||
			(c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

// expect consumes the given literal or fails.
func (p *tagParser) expect(literal string) error {
	if !strings.HasPrefix(p.input[p.pos:], literal) {
		return p.errorf("expected %q", literal)
	}
	p.pos += len(literal)
	return nil
}

func (p *tagParser) parseType() (TypeTag, error) {
	p.skipSpaces()

	token := p.readToken()
	if token == "" {
		return nil, p.errorf("expected a type")
	}

	switch token {
	case "bool":
		return BoolTag{}, nil
	case "u8":
		return U8Tag{}, nil
	case "u16":
		return U16Tag{}, nil
	case "u32":
		return U32Tag{}, nil
	case "u64":
		return U64Tag{}, nil
	case "u128":
		return U128Tag{}, nil
	case "address":
		return AddressTag{}, nil
	case "signer":
		return SignerTag{}, nil
	case "vector":
		return p.parseVector()
	}

	if index, ok := typeParamIndex(token); ok {
		return TypeParamTag{Index: index}, nil
	}

	return p.parseStruct(token)
}

func (p *tagParser) parseVector() (TypeTag, error) {
	if err := p.expect("<"); err != nil {
		return nil, err
	}

	elem, err := p.parseType()
	if err != nil {
		return nil, err
	}

	p.skipSpaces()
	if err := p.expect(">"); err != nil {
		return nil, err
	}

	return VectorTag{Elem: elem}, nil
}

// typeParamIndex recognizes positional type-parameter references of the form
// "T<digits>" (T0, T1, ...).
func typeParamIndex(token string) (int, bool) {
	if len(token) < 2 || token[0] != 'T' {
		return 0, false
	}

	index, err := strconv.Atoi(token[1:])
	if err != nil || index < 0 {
		return 0, false
	}

	return index, true
}

// parseStruct parses "<address>::<module>::<name>[<args>]" given the already
// consumed address token.
func (p *tagParser) parseStruct(addressToken string) (TypeTag, error) {
	address, err := types.AddressFromString(addressToken)
	if err != nil {
		return nil, p.errorf("invalid address %q: %v", addressToken, err)
	}

	if err := p.expect("::"); err != nil {
		return nil, err
	}
	module := p.readToken()
	if module == "" {
		return nil, p.errorf("expected a module name")
	}

	if err := p.expect("::"); err != nil {
		return nil, err
	}
	name := p.readToken()
	if name == "" {
		return nil, p.errorf("expected a struct name")
	}

	tag := StructTag{
		Address: address,
		Module:  module,
		Name:    name,
	}

	p.skipSpaces()
	if p.pos < len(p.input) && p.input[p.pos] == '<' {
		params, err := p.parseTypeParams()
		if err != nil {
			return nil, err
		}
		tag.TypeParams = params
	}

	return tag, nil
}

func (p *tagParser) parseTypeParams() ([]TypeTag, error) {
	if err := p.expect("<"); err != nil {
		return nil, err
	}

	var params []TypeTag
	for {
		param, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, param)

		p.skipSpaces()
		if p.pos < len(p.input) && p.input[p.pos] == ',' {
			p.pos++
			continue
		}
		break
	}

	if err := p.expect(">"); err != nil {
		return nil, err
	}

	return params, nil
}
