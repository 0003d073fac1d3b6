package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressFromString(t *testing.T) {
	t.Run("parses full-width address", func(t *testing.T) {
		addr, err := AddressFromString("0x00112233445566778899aabbccddeeff00112233")
		require.NoError(t, err)
		assert.Equal(t, "0x00112233445566778899aabbccddeeff00112233", addr.String())
	})

	t.Run("zero-pads short forms on the left", func(t *testing.T) {
		addr, err := AddressFromString("0x2")
		require.NoError(t, err)

		var expected Address
		expected[AddressLength-1] = 0x02
		assert.Equal(t, expected, addr)
	})

	t.Run("rejects missing 0x prefix", func(t *testing.T) {
		_, err := AddressFromString("00112233445566778899aabbccddeeff00112233")
		assert.Error(t, err)
	})

	t.Run("rejects empty hex body", func(t *testing.T) {
		_, err := AddressFromString("0x")
		assert.Error(t, err)
	})

	t.Run("rejects oversized input", func(t *testing.T) {
		_, err := AddressFromString("0x00112233445566778899aabbccddeeff0011223344")
		assert.Error(t, err)
	})

	t.Run("rejects non-hex characters", func(t *testing.T) {
		_, err := AddressFromString("0xzz")
		assert.Error(t, err)
	})
}

func TestObjectIDFromString(t *testing.T) {
	t.Run("parses and renders round-trip", func(t *testing.T) {
		id, err := ObjectIDFromString("0x0000000000000000000000000000000000000001")
		require.NoError(t, err)
		assert.Equal(t, "0x0000000000000000000000000000000000000001", id.String())
	})
}

func TestDigestFromString(t *testing.T) {
	t.Run("parses a 32-byte digest", func(t *testing.T) {
		d, err := DigestFromString("0x0000000000000000000000000000000000000000000000000000000000000042")
		require.NoError(t, err)
		assert.Equal(t, byte(0x42), d[DigestLength-1])
	})

	t.Run("rejects digest wider than 32 bytes", func(t *testing.T) {
		_, err := DigestFromString("0x00000000000000000000000000000000000000000000000000000000000000000001")
		assert.Error(t, err)
	})
}

func TestObjectIDCompare(t *testing.T) {
	t.Run("orders byte-wise", func(t *testing.T) {
		low, err := ObjectIDFromString("0x01")
		require.NoError(t, err)
		high, err := ObjectIDFromString("0x02")
		require.NoError(t, err)

		assert.Negative(t, low.Compare(high))
		assert.Positive(t, high.Compare(low))
		assert.Zero(t, low.Compare(low))
	})
}

func TestIdentifierJSON(t *testing.T) {
	t.Run("object id round-trips through JSON", func(t *testing.T) {
		original, err := ObjectIDFromString("0xabcdef")
		require.NoError(t, err)

		data, err := json.Marshal(original)
		require.NoError(t, err)

		var decoded ObjectID
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, original, decoded)
	})

	t.Run("digest round-trips through JSON", func(t *testing.T) {
		original, err := DigestFromString("0x42")
		require.NoError(t, err)

		data, err := json.Marshal(original)
		require.NoError(t, err)

		var decoded TransactionDigest
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, original, decoded)
	})

	t.Run("unmarshal rejects invalid hex", func(t *testing.T) {
		var id ObjectID
		err := json.Unmarshal([]byte(`"not-hex"`), &id)
		assert.Error(t, err)
	})

	t.Run("unmarshal rejects non-string JSON", func(t *testing.T) {
		var addr Address
		err := json.Unmarshal([]byte(`42`), &addr)
		assert.Error(t, err)
	})
}
