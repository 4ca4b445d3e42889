package frost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/frostkit/group"
	"github.com/f3rmion/frostkit/secp256k1"
)

func TestDeriveIdentifier(t *testing.T) {
	g := &secp256k1.Secp256k1{}
	f, err := New(g, 2, 3)
	require.NoError(t, err)

	seed := []byte("party-one-seed")
	a, err := f.DeriveIdentifier(seed)
	require.NoError(t, err)
	b, err := f.DeriveIdentifier(append([]byte(nil), seed...))
	require.NoError(t, err)
	assert.True(t, a.Equal(b), "derivation must be deterministic")

	c, err := f.DeriveIdentifier([]byte("party-two-seed"))
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
	assert.False(t, a.IsZero())
}

// zeroHIDHasher returns zero from HID for the first zeros calls.
type zeroHIDHasher struct {
	*SHA256Hasher
	zeros int
	calls int
}

func (h *zeroHIDHasher) HID(g group.Group, seed []byte) (group.Scalar, error) {
	h.calls++
	if h.calls <= h.zeros {
		return g.NewScalar(), nil
	}
	return h.SHA256Hasher.HID(g, seed)
}

func TestDeriveIdentifierRetries(t *testing.T) {
	g := &secp256k1.Secp256k1{}

	t.Run("RecoversAfterZero", func(t *testing.T) {
		h := &zeroHIDHasher{SHA256Hasher: NewSHA256Hasher(g), zeros: 2}
		f, err := NewWithHasher(g, 1, 1, h)
		require.NoError(t, err)

		id, err := f.DeriveIdentifier([]byte("seed"))
		require.NoError(t, err)
		assert.False(t, id.IsZero())
		assert.Equal(t, 3, h.calls)

		// The third attempt hashes seed || 0x02.
		want, err := NewSHA256Hasher(g).HID(g, []byte("seed\x02"))
		require.NoError(t, err)
		assert.True(t, id.Scalar().Equal(want))
	})

	t.Run("GivesUp", func(t *testing.T) {
		h := &zeroHIDHasher{SHA256Hasher: NewSHA256Hasher(g), zeros: maxDeriveAttempts}
		f, err := NewWithHasher(g, 1, 1, h)
		require.NoError(t, err)

		_, err = f.DeriveIdentifier([]byte("seed"))
		assert.ErrorIs(t, err, ErrIdentifierDerivation)
		assert.Equal(t, maxDeriveAttempts, h.calls)
	})
}

func TestIdentifierFromUint16(t *testing.T) {
	g := &secp256k1.Secp256k1{}

	_, err := IdentifierFromUint16(g, 0)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	id, err := IdentifierFromUint16(g, 258)
	require.NoError(t, err)
	assert.Equal(t, "258", id.String())

	enc := id.Bytes()
	assert.Len(t, enc, 32)
	assert.Equal(t, []byte{1, 2}, enc[30:])
}

func TestIdentifierFromBytes(t *testing.T) {
	g := &secp256k1.Secp256k1{}
	id, err := IdentifierFromUint16(g, 7)
	require.NoError(t, err)

	decoded, err := IdentifierFromBytes(g, id.Bytes())
	require.NoError(t, err)
	assert.True(t, decoded.Equal(id))

	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte{7}},
		{"zero", make([]byte, 32)},
		{"order", g.Order()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := IdentifierFromBytes(g, tt.data)
			assert.ErrorIs(t, err, ErrInvalidIdentifier)
		})
	}
}

func TestValidateIdentifiers(t *testing.T) {
	g := &secp256k1.Secp256k1{}
	ids := testIDs(t, g, 3)

	assert.NoError(t, ValidateIdentifiers(ids))
	assert.ErrorIs(t, ValidateIdentifiers(append(ids, ids[1])), ErrDuplicateIdentifier)
	assert.ErrorIs(t, ValidateIdentifiers([]Identifier{ids[0], {}}), ErrInvalidIdentifier)
}

func TestSortIdentifiers(t *testing.T) {
	g := &secp256k1.Secp256k1{}
	ids := testIDs(t, g, 4)
	shuffled := []Identifier{ids[3], ids[0], ids[2], ids[1]}
	SortIdentifiers(shuffled)
	for i := range ids {
		assert.True(t, shuffled[i].Equal(ids[i]))
	}
}
