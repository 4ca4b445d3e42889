package frost

import (
	"bytes"
	"fmt"

	"github.com/f3rmion/frostkit/group"
)

// FROST holds the group, hash suite and threshold parameters shared by
// every party in a ceremony.
type FROST struct {
	group     group.Group
	hasher    Hasher
	threshold int // t - minimum signers needed
	total     int // n - total participants
}

// Signature is a Schnorr signature.
type Signature struct {
	R group.Point
	Z group.Scalar
}

// Bytes returns R || Z.
func (s *Signature) Bytes() []byte {
	return append(s.R.Bytes(), s.Z.Bytes()...)
}

// Equal reports whether two signatures are identical.
func (s *Signature) Equal(o *Signature) bool {
	if s == nil || o == nil {
		return s == o
	}
	return bytes.Equal(s.Bytes(), o.Bytes())
}

// New creates a FROST instance using the group's SHA-256 suite.
// threshold is the minimum number of signers required (t).
// total is the total number of participants (n).
func New(g group.Group, threshold, total int) (*FROST, error) {
	return NewWithHasher(g, threshold, total, NewSHA256Hasher(g))
}

// NewWithHasher creates a FROST instance with a custom hash suite.
// Parties in one ceremony must agree on the group and the hasher.
func NewWithHasher(g group.Group, threshold, total int, h Hasher) (*FROST, error) {
	if g == nil || h == nil {
		return nil, fmt.Errorf("%w: group and hasher are required", ErrInvalidConfiguration)
	}
	if threshold < 1 {
		return nil, fmt.Errorf("%w: threshold must be at least 1, got %d", ErrInvalidConfiguration, threshold)
	}
	if total < threshold {
		return nil, fmt.Errorf("%w: total %d must be >= threshold %d", ErrInvalidConfiguration, total, threshold)
	}
	if total > maxParticipants {
		return nil, fmt.Errorf("%w: total %d exceeds %d", ErrInvalidConfiguration, total, maxParticipants)
	}

	return &FROST{
		group:     g,
		hasher:    h,
		threshold: threshold,
		total:     total,
	}, nil
}

// maxParticipants bounds n so that every party fits a uint16 index.
const maxParticipants = 65535

// Group returns the group the instance operates over.
func (f *FROST) Group() group.Group { return f.group }

// Hasher returns the hash suite.
func (f *FROST) Hasher() Hasher { return f.hasher }

// Threshold returns t.
func (f *FROST) Threshold() int { return f.threshold }

// Total returns n.
func (f *FROST) Total() int { return f.total }

func (f *FROST) scalarFromInt(n int) group.Scalar {
	buf := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		buf[i] = byte(n)
		n >>= 8
	}
	s, _ := f.group.NewScalar().SetBytes(buf)
	return s
}

// zeroize overwrites secret scalars in place.
func zeroize(g group.Group, scalars ...group.Scalar) {
	zero := g.NewScalar()
	for _, s := range scalars {
		if s != nil {
			s.Set(zero)
		}
	}
}
