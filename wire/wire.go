package wire

import (
	"bytes"
	"fmt"

	"github.com/f3rmion/frostkit/frost"
	"github.com/f3rmion/frostkit/group"
)

// Round1Package is the wire form of [frost.Round1Package].
type Round1Package struct {
	Identifier []byte   `json:"identifier" msgpack:"identifier" cbor:"1,keyasint" yaml:"identifier"`
	Commitment [][]byte `json:"commitment" msgpack:"commitment" cbor:"2,keyasint" yaml:"commitment"`
	ProofR     []byte   `json:"proof_r" msgpack:"proof_r" cbor:"3,keyasint" yaml:"proof_r"`
	ProofZ     []byte   `json:"proof_z" msgpack:"proof_z" cbor:"4,keyasint" yaml:"proof_z"`
}

// Round2Package is the wire form of [frost.Round2Package].
type Round2Package struct {
	From  []byte `json:"from" msgpack:"from" cbor:"1,keyasint" yaml:"from"`
	To    []byte `json:"to" msgpack:"to" cbor:"2,keyasint" yaml:"to"`
	Share []byte `json:"share" msgpack:"share" cbor:"3,keyasint" yaml:"share"`
}

// SigningCommitment is the wire form of [frost.SigningCommitment].
type SigningCommitment struct {
	Identifier []byte `json:"identifier" msgpack:"identifier" cbor:"1,keyasint" yaml:"identifier"`
	Hiding     []byte `json:"hiding" msgpack:"hiding" cbor:"2,keyasint" yaml:"hiding"`
	Binding    []byte `json:"binding" msgpack:"binding" cbor:"3,keyasint" yaml:"binding"`
}

// SigningPackage is the wire form of [frost.SigningPackage].
type SigningPackage struct {
	Message     []byte              `json:"message" msgpack:"message" cbor:"1,keyasint" yaml:"message"`
	Commitments []SigningCommitment `json:"commitments" msgpack:"commitments" cbor:"2,keyasint" yaml:"commitments"`
}

// SignatureShare is the wire form of [frost.SignatureShare].
type SignatureShare struct {
	Identifier []byte `json:"identifier" msgpack:"identifier" cbor:"1,keyasint" yaml:"identifier"`
	Z          []byte `json:"z" msgpack:"z" cbor:"2,keyasint" yaml:"z"`
}

// Signature is the wire form of [frost.Signature].
type Signature struct {
	R []byte `json:"r" msgpack:"r" cbor:"1,keyasint" yaml:"r"`
	Z []byte `json:"z" msgpack:"z" cbor:"2,keyasint" yaml:"z"`
}

// VerifyingShare is one entry of a PublicKeyPackage.
type VerifyingShare struct {
	Identifier []byte `json:"identifier" msgpack:"identifier" cbor:"1,keyasint" yaml:"identifier"`
	Share      []byte `json:"share" msgpack:"share" cbor:"2,keyasint" yaml:"share"`
}

// PublicKeyPackage is the wire form of [frost.PublicKeyPackage].
type PublicKeyPackage struct {
	Curve           string           `json:"curve" msgpack:"curve" cbor:"1,keyasint" yaml:"curve"`
	MinSigners      int              `json:"min_signers" msgpack:"min_signers" cbor:"2,keyasint" yaml:"min_signers"`
	GroupKey        []byte           `json:"group_key" msgpack:"group_key" cbor:"3,keyasint" yaml:"group_key"`
	VerifyingShares []VerifyingShare `json:"verifying_shares" msgpack:"verifying_shares" cbor:"4,keyasint" yaml:"verifying_shares"`
}

// KeyPackage is the storage form of [frost.KeyPackage]. It is secret.
type KeyPackage struct {
	Curve          string `json:"curve" msgpack:"curve" cbor:"1,keyasint" yaml:"curve"`
	Identifier     []byte `json:"identifier" msgpack:"identifier" cbor:"2,keyasint" yaml:"identifier"`
	SigningShare   []byte `json:"signing_share" msgpack:"signing_share" cbor:"3,keyasint" yaml:"signing_share"`
	VerifyingShare []byte `json:"verifying_share" msgpack:"verifying_share" cbor:"4,keyasint" yaml:"verifying_share"`
	GroupKey       []byte `json:"group_key" msgpack:"group_key" cbor:"5,keyasint" yaml:"group_key"`
	MinSigners     int    `json:"min_signers" msgpack:"min_signers" cbor:"6,keyasint" yaml:"min_signers"`
}

func malformed(what string, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %v", frost.ErrMalformed, what, err)
	}
	return fmt.Errorf("%w: %s", frost.ErrMalformed, what)
}

// decodeScalar accepts only the canonical fixed-length encoding.
func decodeScalar(g group.Group, what string, b []byte) (group.Scalar, error) {
	if len(b) != g.ScalarLength() {
		return nil, malformed(what, fmt.Errorf("length %d, want %d", len(b), g.ScalarLength()))
	}
	s, err := g.NewScalar().SetBytes(b)
	if err != nil {
		return nil, malformed(what, err)
	}
	if !bytes.Equal(s.Bytes(), b) {
		return nil, malformed(what, fmt.Errorf("non-canonical scalar"))
	}
	return s, nil
}

// decodePoint accepts only the canonical compressed encoding of a
// non-identity element. No boundary object carries the identity.
func decodePoint(g group.Group, what string, b []byte) (group.Point, error) {
	p, err := g.NewPoint().SetBytes(b)
	if err != nil {
		return nil, malformed(what, err)
	}
	if !bytes.Equal(p.Bytes(), b) {
		return nil, malformed(what, fmt.Errorf("non-canonical point"))
	}
	if p.IsIdentity() {
		return nil, fmt.Errorf("%w: %s", frost.ErrIdentityElement, what)
	}
	return p, nil
}

func decodeIdentifier(g group.Group, what string, b []byte) (frost.Identifier, error) {
	id, err := frost.IdentifierFromBytes(g, b)
	if err != nil {
		return frost.Identifier{}, fmt.Errorf("%s: %w", what, err)
	}
	return id, nil
}

// FromRound1Package encodes p.
func FromRound1Package(p *frost.Round1Package) *Round1Package {
	commitment := make([][]byte, len(p.Commitment))
	for i, c := range p.Commitment {
		commitment[i] = c.Bytes()
	}
	return &Round1Package{
		Identifier: p.Identifier.Bytes(),
		Commitment: commitment,
		ProofR:     p.Proof.R.Bytes(),
		ProofZ:     p.Proof.Z.Bytes(),
	}
}

// Decode converts w back into a [frost.Round1Package].
func (w *Round1Package) Decode(g group.Group) (*frost.Round1Package, error) {
	id, err := decodeIdentifier(g, "round1 identifier", w.Identifier)
	if err != nil {
		return nil, err
	}
	if len(w.Commitment) == 0 {
		return nil, malformed("round1 commitment", fmt.Errorf("empty"))
	}
	commitment := make([]group.Point, len(w.Commitment))
	for i, c := range w.Commitment {
		if commitment[i], err = decodePoint(g, "round1 commitment", c); err != nil {
			return nil, err
		}
	}
	R, err := decodePoint(g, "round1 proof R", w.ProofR)
	if err != nil {
		return nil, err
	}
	z, err := decodeScalar(g, "round1 proof z", w.ProofZ)
	if err != nil {
		return nil, err
	}
	return &frost.Round1Package{
		Identifier: id,
		Commitment: commitment,
		Proof:      frost.ProofOfKnowledge{R: R, Z: z},
	}, nil
}

// FromRound2Package encodes p.
func FromRound2Package(p *frost.Round2Package) *Round2Package {
	return &Round2Package{
		From:  p.From.Bytes(),
		To:    p.To.Bytes(),
		Share: p.Share.Bytes(),
	}
}

// Decode converts w back into a [frost.Round2Package].
func (w *Round2Package) Decode(g group.Group) (*frost.Round2Package, error) {
	from, err := decodeIdentifier(g, "round2 from", w.From)
	if err != nil {
		return nil, err
	}
	to, err := decodeIdentifier(g, "round2 to", w.To)
	if err != nil {
		return nil, err
	}
	share, err := decodeScalar(g, "round2 share", w.Share)
	if err != nil {
		return nil, err
	}
	return &frost.Round2Package{From: from, To: to, Share: share}, nil
}

// FromSigningCommitment encodes c.
func FromSigningCommitment(c *frost.SigningCommitment) *SigningCommitment {
	return &SigningCommitment{
		Identifier: c.Identifier.Bytes(),
		Hiding:     c.HidingPoint.Bytes(),
		Binding:    c.BindingPoint.Bytes(),
	}
}

// Decode converts w back into a [frost.SigningCommitment].
func (w *SigningCommitment) Decode(g group.Group) (*frost.SigningCommitment, error) {
	id, err := decodeIdentifier(g, "commitment identifier", w.Identifier)
	if err != nil {
		return nil, err
	}
	hiding, err := decodePoint(g, "hiding commitment", w.Hiding)
	if err != nil {
		return nil, err
	}
	binding, err := decodePoint(g, "binding commitment", w.Binding)
	if err != nil {
		return nil, err
	}
	return &frost.SigningCommitment{Identifier: id, HidingPoint: hiding, BindingPoint: binding}, nil
}

// FromSigningPackage encodes p.
func FromSigningPackage(p *frost.SigningPackage) *SigningPackage {
	commitments := make([]SigningCommitment, len(p.Commitments))
	for i, c := range p.Commitments {
		commitments[i] = *FromSigningCommitment(c)
	}
	return &SigningPackage{
		Message:     append([]byte(nil), p.Message...),
		Commitments: commitments,
	}
}

// Decode converts w back into a [frost.SigningPackage]. Quorum and
// ordering are checked by the signer, not here.
func (w *SigningPackage) Decode(g group.Group) (*frost.SigningPackage, error) {
	commitments := make([]*frost.SigningCommitment, len(w.Commitments))
	for i := range w.Commitments {
		c, err := w.Commitments[i].Decode(g)
		if err != nil {
			return nil, err
		}
		commitments[i] = c
	}
	return &frost.SigningPackage{
		Message:     append([]byte(nil), w.Message...),
		Commitments: commitments,
	}, nil
}

// FromSignatureShare encodes s.
func FromSignatureShare(s *frost.SignatureShare) *SignatureShare {
	return &SignatureShare{Identifier: s.Identifier.Bytes(), Z: s.Z.Bytes()}
}

// Decode converts w back into a [frost.SignatureShare].
func (w *SignatureShare) Decode(g group.Group) (*frost.SignatureShare, error) {
	id, err := decodeIdentifier(g, "share identifier", w.Identifier)
	if err != nil {
		return nil, err
	}
	z, err := decodeScalar(g, "signature share", w.Z)
	if err != nil {
		return nil, err
	}
	return &frost.SignatureShare{Identifier: id, Z: z}, nil
}

// FromSignature encodes s.
func FromSignature(s *frost.Signature) *Signature {
	return &Signature{R: s.R.Bytes(), Z: s.Z.Bytes()}
}

// Decode converts w back into a [frost.Signature].
func (w *Signature) Decode(g group.Group) (*frost.Signature, error) {
	R, err := decodePoint(g, "signature R", w.R)
	if err != nil {
		return nil, err
	}
	z, err := decodeScalar(g, "signature z", w.Z)
	if err != nil {
		return nil, err
	}
	return &frost.Signature{R: R, Z: z}, nil
}

// FromPublicKeyPackage encodes p, recording the curve name.
func FromPublicKeyPackage(g group.Group, p *frost.PublicKeyPackage) *PublicKeyPackage {
	shares := make([]VerifyingShare, len(p.VerifyingShares))
	for i, vs := range p.VerifyingShares {
		shares[i] = VerifyingShare{Identifier: vs.Identifier.Bytes(), Share: vs.Share.Bytes()}
	}
	return &PublicKeyPackage{
		Curve:           g.Name(),
		MinSigners:      p.MinSigners,
		GroupKey:        p.GroupKey.Bytes(),
		VerifyingShares: shares,
	}
}

// Decode converts w back into a [frost.PublicKeyPackage]. Shares must be
// strictly ordered by identifier.
func (w *PublicKeyPackage) Decode(g group.Group) (*frost.PublicKeyPackage, error) {
	if w.Curve != "" && w.Curve != g.Name() {
		return nil, malformed("public key package", fmt.Errorf("curve %q, want %q", w.Curve, g.Name()))
	}
	if w.MinSigners < 1 || w.MinSigners > len(w.VerifyingShares) {
		return nil, malformed("public key package", fmt.Errorf("min signers %d with %d shares", w.MinSigners, len(w.VerifyingShares)))
	}
	groupKey, err := decodePoint(g, "group key", w.GroupKey)
	if err != nil {
		return nil, err
	}
	shares := make([]frost.VerifyingShare, len(w.VerifyingShares))
	for i, vs := range w.VerifyingShares {
		id, err := decodeIdentifier(g, "verifying share identifier", vs.Identifier)
		if err != nil {
			return nil, err
		}
		if i > 0 && shares[i-1].Identifier.Compare(id) >= 0 {
			return nil, malformed("public key package", fmt.Errorf("verifying shares out of order"))
		}
		Y, err := decodePoint(g, "verifying share", vs.Share)
		if err != nil {
			return nil, err
		}
		shares[i] = frost.VerifyingShare{Identifier: id, Share: Y}
	}
	return &frost.PublicKeyPackage{
		VerifyingShares: shares,
		GroupKey:        groupKey,
		MinSigners:      w.MinSigners,
	}, nil
}

// FromKeyPackage encodes k for local storage.
func FromKeyPackage(g group.Group, k *frost.KeyPackage) *KeyPackage {
	return &KeyPackage{
		Curve:          g.Name(),
		Identifier:     k.Identifier.Bytes(),
		SigningShare:   k.SigningShare.Bytes(),
		VerifyingShare: k.VerifyingShare.Bytes(),
		GroupKey:       k.GroupKey.Bytes(),
		MinSigners:     k.MinSigners,
	}
}

// Decode converts w back into a [frost.KeyPackage] and checks that the
// signing share matches the verifying share.
func (w *KeyPackage) Decode(g group.Group) (*frost.KeyPackage, error) {
	if w.Curve != "" && w.Curve != g.Name() {
		return nil, malformed("key package", fmt.Errorf("curve %q, want %q", w.Curve, g.Name()))
	}
	id, err := decodeIdentifier(g, "key package identifier", w.Identifier)
	if err != nil {
		return nil, err
	}
	s, err := decodeScalar(g, "signing share", w.SigningShare)
	if err != nil {
		return nil, err
	}
	Y, err := decodePoint(g, "verifying share", w.VerifyingShare)
	if err != nil {
		return nil, err
	}
	if !g.NewPoint().ScalarMult(s, g.Generator()).Equal(Y) {
		return nil, malformed("key package", fmt.Errorf("signing share does not match verifying share"))
	}
	groupKey, err := decodePoint(g, "group key", w.GroupKey)
	if err != nil {
		return nil, err
	}
	return &frost.KeyPackage{
		Identifier:     id,
		SigningShare:   s,
		VerifyingShare: Y,
		GroupKey:       groupKey,
		MinSigners:     w.MinSigners,
	}, nil
}
