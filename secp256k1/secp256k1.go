package secp256k1

import (
	"crypto/sha256"
	"errors"
	"io"
	"math/big"

	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/f3rmion/frostkit/group"
)

const (
	scalarLen = 32
	pointLen  = 33
)

var (
	errZeroInverse = errors.New("secp256k1: cannot invert zero scalar")
	errPointLength = errors.New("secp256k1: invalid point length")
)

var curveOrder = new(big.Int).Set(secp.S256().Params().N)

// Scalar is an integer modulo the secp256k1 group order.
type Scalar struct {
	inner secp.ModNScalar
}

// Add sets s to a + b and returns s.
func (s *Scalar) Add(a, b group.Scalar) group.Scalar {
	s.inner.Add2(&a.(*Scalar).inner, &b.(*Scalar).inner)
	return s
}

// Sub sets s to a - b and returns s.
func (s *Scalar) Sub(a, b group.Scalar) group.Scalar {
	var negB secp.ModNScalar
	negB.NegateVal(&b.(*Scalar).inner)
	s.inner.Add2(&a.(*Scalar).inner, &negB)
	return s
}

// Mul sets s to a * b and returns s.
func (s *Scalar) Mul(a, b group.Scalar) group.Scalar {
	s.inner.Mul2(&a.(*Scalar).inner, &b.(*Scalar).inner)
	return s
}

// Negate sets s to -a and returns s.
func (s *Scalar) Negate(a group.Scalar) group.Scalar {
	s.inner.NegateVal(&a.(*Scalar).inner)
	return s
}

// Invert sets s to a^(-1) and returns s. Zero has no inverse.
func (s *Scalar) Invert(a group.Scalar) (group.Scalar, error) {
	aScalar := a.(*Scalar)
	if aScalar.inner.IsZero() {
		return nil, errZeroInverse
	}
	s.inner.InverseValNonConst(&aScalar.inner)
	return s, nil
}

// Set copies a into s and returns s.
func (s *Scalar) Set(a group.Scalar) group.Scalar {
	s.inner.Set(&a.(*Scalar).inner)
	return s
}

// Bytes returns the 32-byte big-endian encoding of s.
func (s *Scalar) Bytes() []byte {
	b := s.inner.Bytes()
	return b[:]
}

// SetBytes sets s from a big-endian integer of any length, reduced
// modulo the group order.
func (s *Scalar) SetBytes(data []byte) (group.Scalar, error) {
	if len(data) <= scalarLen {
		s.inner.SetByteSlice(data)
		return s, nil
	}
	v := new(big.Int).SetBytes(data)
	v.Mod(v, curveOrder)
	var buf [scalarLen]byte
	v.FillBytes(buf[:])
	s.inner.SetBytes(&buf)
	return s, nil
}

// Equal reports whether s and b are the same scalar.
func (s *Scalar) Equal(b group.Scalar) bool {
	return s.inner.Equals(&b.(*Scalar).inner)
}

// IsZero reports whether s is zero.
func (s *Scalar) IsZero() bool {
	return s.inner.IsZero()
}

// Point is a secp256k1 curve point held in Jacobian coordinates.
// The zero value is the identity.
type Point struct {
	inner secp.JacobianPoint
}

func (p *Point) isInfinity() bool {
	return (p.inner.X.IsZero() && p.inner.Y.IsZero()) || p.inner.Z.IsZero()
}

// affine returns a normalized affine copy of p. p must not be the identity.
func (p *Point) affine() secp.JacobianPoint {
	var a secp.JacobianPoint
	a.Set(&p.inner)
	a.ToAffine()
	return a
}

// Add sets p to a + b and returns p.
func (p *Point) Add(a, b group.Point) group.Point {
	var r secp.JacobianPoint
	secp.AddNonConst(&a.(*Point).inner, &b.(*Point).inner, &r)
	p.inner.Set(&r)
	return p
}

// Sub sets p to a - b and returns p.
func (p *Point) Sub(a, b group.Point) group.Point {
	var negB Point
	negB.Negate(b)
	return p.Add(a, &negB)
}

// Negate sets p to -a and returns p.
func (p *Point) Negate(a group.Point) group.Point {
	ap := a.(*Point)
	if ap.isInfinity() {
		p.inner = secp.JacobianPoint{}
		return p
	}
	r := ap.affine()
	r.Y.Negate(1).Normalize()
	p.inner.Set(&r)
	return p
}

// ScalarMult sets p to s * q and returns p. It runs in variable time
// for every s, secret or not.
func (p *Point) ScalarMult(s group.Scalar, q group.Point) group.Point {
	var r secp.JacobianPoint
	secp.ScalarMultNonConst(&s.(*Scalar).inner, &q.(*Point).inner, &r)
	p.inner.Set(&r)
	return p
}

// Set copies a into p and returns p.
func (p *Point) Set(a group.Point) group.Point {
	p.inner.Set(&a.(*Point).inner)
	return p
}

// Bytes returns the 33-byte compressed encoding of p.
func (p *Point) Bytes() []byte {
	if p.isInfinity() {
		return make([]byte, pointLen)
	}
	a := p.affine()
	return secp.NewPublicKey(&a.X, &a.Y).SerializeCompressed()
}

// SetBytes decodes a 33-byte compressed point. 33 zero bytes decode to
// the identity.
func (p *Point) SetBytes(data []byte) (group.Point, error) {
	if len(data) != pointLen {
		return nil, errPointLength
	}
	if isAllZero(data) {
		p.inner = secp.JacobianPoint{}
		return p, nil
	}
	pk, err := secp.ParsePubKey(data)
	if err != nil {
		return nil, err
	}
	pk.AsJacobian(&p.inner)
	return p, nil
}

// Equal reports whether p and b are the same point.
func (p *Point) Equal(b group.Point) bool {
	bp := b.(*Point)
	pInf, bInf := p.isInfinity(), bp.isInfinity()
	if pInf || bInf {
		return pInf == bInf
	}
	pa, ba := p.affine(), bp.affine()
	return pa.X.Equals(&ba.X) && pa.Y.Equals(&ba.Y)
}

// IsIdentity reports whether p is the point at infinity.
func (p *Point) IsIdentity() bool {
	return p.isInfinity()
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// Secp256k1 implements [group.Group] for the secp256k1 curve.
type Secp256k1 struct{}

// Name returns "secp256k1".
func (g *Secp256k1) Name() string { return "secp256k1" }

// NewScalar returns a zero scalar.
func (g *Secp256k1) NewScalar() group.Scalar {
	return &Scalar{}
}

// NewPoint returns the identity point.
func (g *Secp256k1) NewPoint() group.Point {
	return &Point{}
}

// Generator returns the standard base point G.
func (g *Secp256k1) Generator() group.Point {
	var one secp.ModNScalar
	one.SetInt(1)
	var p Point
	secp.ScalarBaseMultNonConst(&one, &p.inner)
	return &p
}

// RandomScalar draws a uniform non-zero scalar by rejection sampling.
func (g *Secp256k1) RandomScalar(r io.Reader) (group.Scalar, error) {
	var buf [scalarLen]byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		var s Scalar
		overflow := s.inner.SetBytes(&buf)
		if overflow == 0 && !s.inner.IsZero() {
			return &s, nil
		}
	}
}

// HashToScalar hashes the domain and data with SHA-256 and reduces the
// digest modulo the group order.
func (g *Secp256k1) HashToScalar(domain string, data ...[]byte) (group.Scalar, error) {
	h := sha256.New()
	h.Write([]byte(domain))
	for _, d := range data {
		h.Write(d)
	}
	var s Scalar
	s.inner.SetByteSlice(h.Sum(nil))
	return &s, nil
}

// Order returns the group order as a big-endian byte slice.
func (g *Secp256k1) Order() []byte {
	return curveOrder.Bytes()
}

// ScalarLength returns 32.
func (g *Secp256k1) ScalarLength() int { return scalarLen }

// PointLength returns 33.
func (g *Secp256k1) PointLength() int { return pointLen }
