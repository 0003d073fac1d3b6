// Package types defines the opaque on-chain identifier types shared across
// the codebase: account addresses, object IDs, transaction digests, and the
// scalar sequence counters. All of them are fixed-width values compared
// byte-wise, rendered and parsed as 0x-prefixed hexadecimal strings.
package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// AddressLength is the byte width of an account address and an object ID.
	AddressLength = 20

	// DigestLength is the byte width of a transaction digest.
	DigestLength = 32
)

// Address is a fixed-width on-chain account address.
// It is an opaque identifier: the derivation algorithm is out of scope here.
type Address [AddressLength]byte

// ObjectID uniquely identifies an on-chain object or published package.
// It shares the address width and hex rendering of Address.
type ObjectID [AddressLength]byte

// TransactionDigest identifies the transaction an event originated from.
type TransactionDigest [DigestLength]byte

// SequenceNumber is the version counter of an on-chain object.
type SequenceNumber uint64

// EpochID identifies a consensus epoch.
type EpochID uint64

// CheckpointSequenceNumber identifies a checkpoint in the global sequence.
type CheckpointSequenceNumber uint64

// parseFixedHex decodes a 0x-prefixed hex string into dst, requiring the
// decoded value to be exactly len(dst) bytes. Shorter inputs are left-padded
// with zeros, matching the short forms commonly used for well-known
// addresses (e.g. "0x2").
func parseFixedHex(dst []byte, s string) error {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return fmt.Errorf("hex string must start with 0x")
	}

	raw := s[2:]
	if len(raw) == 0 || len(raw) > len(dst)*2 {
		return fmt.Errorf("hex string must encode between 1 and %d bytes", len(dst))
	}
	if len(raw)%2 != 0 {
		raw = "0" + raw
	}

	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return fmt.Errorf("invalid hexadecimal value: %w", err)
	}

	for i := range dst {
		dst[i] = 0
	}
	copy(dst[len(dst)-len(decoded):], decoded)
	return nil
}

func renderFixedHex(src []byte) string {
	return "0x" + hex.EncodeToString(src)
}

// AddressFromString validates the input string and returns the Address it
// encodes. Short forms are zero-padded on the left.
func AddressFromString(s string) (Address, error) {
	var a Address
	err := parseFixedHex(a[:], s)
	return a, err
}

// ObjectIDFromString validates the input string and returns the ObjectID it
// encodes. Short forms are zero-padded on the left.
func ObjectIDFromString(s string) (ObjectID, error) {
	var id ObjectID
	err := parseFixedHex(id[:], s)
	return id, err
}

// DigestFromString validates the input string and returns the
// TransactionDigest it encodes.
func DigestFromString(s string) (TransactionDigest, error) {
	var d TransactionDigest
	err := parseFixedHex(d[:], s)
	return d, err
}

// String renders the address as a 0x-prefixed hex string.
func (a Address) String() string { return renderFixedHex(a[:]) }

// String renders the object ID as a 0x-prefixed hex string.
func (id ObjectID) String() string { return renderFixedHex(id[:]) }

// String renders the digest as a 0x-prefixed hex string.
func (d TransactionDigest) String() string { return renderFixedHex(d[:]) }

// Compare orders two addresses byte-wise.
func (a Address) Compare(other Address) int { return bytes.Compare(a[:], other[:]) }

// Compare orders two object IDs byte-wise.
func (id ObjectID) Compare(other ObjectID) int { return bytes.Compare(id[:], other[:]) }

// MarshalJSON encodes the address as a JSON hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON parses and validates a JSON-encoded hex address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid hex string: %w", err)
	}
	return parseFixedHex(a[:], s)
}

// MarshalJSON encodes the object ID as a JSON hex string.
func (id ObjectID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON parses and validates a JSON-encoded hex object ID.
func (id *ObjectID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid hex string: %w", err)
	}
	return parseFixedHex(id[:], s)
}

// MarshalJSON encodes the digest as a JSON hex string.
func (d TransactionDigest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON parses and validates a JSON-encoded hex digest.
func (d *TransactionDigest) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid hex string: %w", err)
	}
	return parseFixedHex(d[:], s)
}
