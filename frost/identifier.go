package frost

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"

	"github.com/f3rmion/frostkit/group"
)

// maxDeriveAttempts bounds the rehash loop in DeriveIdentifier.
const maxDeriveAttempts = 8

// Identifier is a non-zero scalar naming one party. Polynomials are
// evaluated at identifiers, so they must be distinct within a ceremony.
//
// The zero value is invalid.
type Identifier struct {
	s group.Scalar
}

// DeriveIdentifier hashes seed to an identifier. The same seed always
// yields the same identifier. If the hash is zero the seed is rehashed
// with a one-byte counter appended.
func (f *FROST) DeriveIdentifier(seed []byte) (Identifier, error) {
	input := append([]byte(nil), seed...)
	for attempt := 0; attempt < maxDeriveAttempts; attempt++ {
		if attempt > 0 {
			input = append(append([]byte(nil), seed...), byte(attempt))
		}
		s, err := f.hasher.HID(f.group, input)
		if err != nil {
			return Identifier{}, fmt.Errorf("%w: %v", ErrIdentifierDerivation, err)
		}
		if !s.IsZero() {
			return Identifier{s: s}, nil
		}
	}
	return Identifier{}, ErrIdentifierDerivation
}

// IdentifierFromUint16 maps a 1-based party index to its identifier.
func IdentifierFromUint16(g group.Group, i uint16) (Identifier, error) {
	if i == 0 {
		return Identifier{}, fmt.Errorf("%w: index 0", ErrInvalidIdentifier)
	}
	s, err := g.NewScalar().SetBytes([]byte{byte(i >> 8), byte(i)})
	if err != nil {
		return Identifier{}, err
	}
	return Identifier{s: s}, nil
}

// IdentifierFromBytes decodes a canonical scalar encoding. Non-canonical
// or zero encodings are rejected.
func IdentifierFromBytes(g group.Group, data []byte) (Identifier, error) {
	if len(data) != g.ScalarLength() {
		return Identifier{}, fmt.Errorf("%w: length %d", ErrInvalidIdentifier, len(data))
	}
	s, err := g.NewScalar().SetBytes(data)
	if err != nil {
		return Identifier{}, fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}
	if !bytes.Equal(s.Bytes(), data) {
		return Identifier{}, fmt.Errorf("%w: non-canonical encoding", ErrInvalidIdentifier)
	}
	if s.IsZero() {
		return Identifier{}, fmt.Errorf("%w: zero", ErrInvalidIdentifier)
	}
	return Identifier{s: s}, nil
}

// NewIdentifier wraps a scalar. It fails if s is nil or zero.
func NewIdentifier(s group.Scalar) (Identifier, error) {
	if s == nil || s.IsZero() {
		return Identifier{}, ErrInvalidIdentifier
	}
	return Identifier{s: s}, nil
}

// Scalar returns the identifier as a scalar.
func (id Identifier) Scalar() group.Scalar { return id.s }

// Bytes returns the scalar encoding, or nil for the zero value.
func (id Identifier) Bytes() []byte {
	if id.s == nil {
		return nil
	}
	return id.s.Bytes()
}

// IsZero reports whether id is unset or zero.
func (id Identifier) IsZero() bool {
	return id.s == nil || id.s.IsZero()
}

// Equal reports whether two identifiers name the same party.
func (id Identifier) Equal(o Identifier) bool {
	if id.s == nil || o.s == nil {
		return id.s == nil && o.s == nil
	}
	return id.s.Equal(o.s)
}

// Compare orders identifiers by integer value.
func (id Identifier) Compare(o Identifier) int {
	return bytes.Compare(id.Bytes(), o.Bytes())
}

// String prints small identifiers in decimal and others in hex.
func (id Identifier) String() string {
	if id.s == nil {
		return "<nil>"
	}
	b := id.s.Bytes()
	v := new(big.Int).SetBytes(b)
	if v.BitLen() <= 16 {
		return v.String()
	}
	return hex.EncodeToString(b)
}

func (id Identifier) key() string {
	return string(id.Bytes())
}

// ValidateIdentifiers checks that every identifier is non-zero and
// that no two are equal.
func ValidateIdentifiers(ids []Identifier) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id.IsZero() {
			return ErrInvalidIdentifier
		}
		if _, ok := seen[id.key()]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateIdentifier, id)
		}
		seen[id.key()] = struct{}{}
	}
	return nil
}

// SortIdentifiers sorts ids in place by integer value.
func SortIdentifiers(ids []Identifier) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
}
