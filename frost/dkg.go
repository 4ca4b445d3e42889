package frost

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync/atomic"

	"github.com/f3rmion/frostkit/group"
)

// ProofOfKnowledge is a Schnorr proof that the sender knows the constant
// term of its polynomial.
type ProofOfKnowledge struct {
	R group.Point
	Z group.Scalar
}

// Round1Package is broadcast by each participant in round 1.
type Round1Package struct {
	Identifier Identifier
	Commitment []group.Point // commitments to polynomial coefficients
	Proof      ProofOfKnowledge
}

// Round1SecretPackage is the private state carried from Round1 to
// Round2. Round2 consumes it: the polynomial is zeroized and any further
// use fails with ErrSecretConsumed.
type Round1SecretPackage struct {
	identifier Identifier
	poly       *Polynomial
	commitment []group.Point
	consumed   atomic.Bool
}

// Identifier returns the owner's identifier.
func (s *Round1SecretPackage) Identifier() Identifier { return s.identifier }

// Consumed reports whether Round2 has already used the package.
func (s *Round1SecretPackage) Consumed() bool { return s.consumed.Load() }

// wipe must only run after the caller won the consumed flag.
func (s *Round1SecretPackage) wipe() {
	if s.poly != nil {
		s.poly.zeroize()
		s.poly = nil
	}
}

// Round2Package carries the sender's polynomial evaluated at the
// recipient's identifier. It must travel over a private channel.
type Round2Package struct {
	From  Identifier
	To    Identifier
	Share group.Scalar
}

// Round2SecretPackage is the private state carried from Round2 to
// Round3. Round3 consumes it.
type Round2SecretPackage struct {
	g          group.Group
	identifier Identifier
	commitment []group.Point
	ownShare   group.Scalar
	consumed   atomic.Bool
}

// Identifier returns the owner's identifier.
func (s *Round2SecretPackage) Identifier() Identifier { return s.identifier }

// Consumed reports whether Round3 has already used the package.
func (s *Round2SecretPackage) Consumed() bool { return s.consumed.Load() }

// wipe must only run after the caller won the consumed flag.
func (s *Round2SecretPackage) wipe() {
	if s.ownShare != nil {
		zeroize(s.g, s.ownShare)
	}
	s.ownShare = nil
}

// KeyPackage is a participant's long-lived signing key material.
type KeyPackage struct {
	Identifier     Identifier
	SigningShare   group.Scalar // s_i
	VerifyingShare group.Point  // s_i * G
	GroupKey       group.Point  // Y
	MinSigners     int
}

// VerifyingShare pairs a party with its public share.
type VerifyingShare struct {
	Identifier Identifier
	Share      group.Point
}

// PublicKeyPackage is the public output of DKG. Honest parties compute
// byte-identical packages.
type PublicKeyPackage struct {
	VerifyingShares []VerifyingShare // sorted by identifier
	GroupKey        group.Point
	MinSigners      int
}

// VerifyingShare returns the public share of id.
func (p *PublicKeyPackage) VerifyingShare(id Identifier) (group.Point, bool) {
	for _, vs := range p.VerifyingShares {
		if vs.Identifier.Equal(id) {
			return vs.Share, true
		}
	}
	return nil, false
}

// Identifiers returns the parties in identifier order.
func (p *PublicKeyPackage) Identifiers() []Identifier {
	ids := make([]Identifier, len(p.VerifyingShares))
	for i, vs := range p.VerifyingShares {
		ids[i] = vs.Identifier
	}
	return ids
}

// Bytes returns a deterministic encoding: min signers (2 bytes), group
// key, then each identifier and verifying share in order.
func (p *PublicKeyPackage) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(p.MinSigners >> 8))
	buf.WriteByte(byte(p.MinSigners))
	buf.Write(p.GroupKey.Bytes())
	for _, vs := range p.VerifyingShares {
		buf.Write(vs.Identifier.Bytes())
		buf.Write(vs.Share.Bytes())
	}
	return buf.Bytes()
}

// Equal reports whether two packages encode identically.
func (p *PublicKeyPackage) Equal(o *PublicKeyPackage) bool {
	if p == nil || o == nil {
		return p == o
	}
	return bytes.Equal(p.Bytes(), o.Bytes())
}

// Round1 samples a random polynomial of degree t-1, commits to it, and
// proves knowledge of its constant term.
func (f *FROST) Round1(id Identifier, r io.Reader) (*Round1SecretPackage, *Round1Package, error) {
	if id.IsZero() {
		return nil, nil, ErrInvalidIdentifier
	}

	poly, err := randomPolynomial(f.group, f.threshold, r)
	if err != nil {
		return nil, nil, fmt.Errorf("frost: sample polynomial: %w", err)
	}
	commitment := poly.Commit()

	proof, err := f.proveKnowledge(id, poly.Secret(), commitment[0], r)
	if err != nil {
		poly.zeroize()
		return nil, nil, err
	}

	// The secret keeps its own copy; the broadcast package belongs to
	// the caller.
	secret := &Round1SecretPackage{
		identifier: id,
		poly:       poly,
		commitment: copyPoints(f.group, commitment),
	}
	pkg := &Round1Package{
		Identifier: id,
		Commitment: commitment,
		Proof:      proof,
	}
	return secret, pkg, nil
}

// proveKnowledge computes k random, R = k*G, c = HDKG(id, phi0, R),
// mu = k + a0*c.
func (f *FROST) proveKnowledge(id Identifier, a0 group.Scalar, phi0 group.Point, r io.Reader) (ProofOfKnowledge, error) {
	k, err := f.group.RandomScalar(r)
	if err != nil {
		return ProofOfKnowledge{}, fmt.Errorf("frost: sample proof nonce: %w", err)
	}
	defer zeroize(f.group, k)

	R := f.group.NewPoint().ScalarMult(k, f.group.Generator())
	c, err := f.hasher.HDKG(f.group, id.Bytes(), phi0.Bytes(), R.Bytes())
	if err != nil {
		return ProofOfKnowledge{}, err
	}

	mu := f.group.NewScalar().Mul(a0, c)
	mu = f.group.NewScalar().Add(k, mu)
	return ProofOfKnowledge{R: R, Z: mu}, nil
}

// verifyKnowledge checks mu*G == R + c*phi0.
func (f *FROST) verifyKnowledge(pkg *Round1Package) bool {
	if pkg.Proof.R == nil || pkg.Proof.Z == nil {
		return false
	}
	phi0 := pkg.Commitment[0]
	c, err := f.hasher.HDKG(f.group, pkg.Identifier.Bytes(), phi0.Bytes(), pkg.Proof.R.Bytes())
	if err != nil {
		return false
	}
	lhs := f.group.NewPoint().ScalarMult(pkg.Proof.Z, f.group.Generator())
	rhs := f.group.NewPoint().ScalarMult(c, phi0)
	rhs = f.group.NewPoint().Add(pkg.Proof.R, rhs)
	return lhs.Equal(rhs)
}

// checkRound1Packages validates the peer set seen by own: exact count,
// distinct identifiers excluding own, and commitments of length t with
// no identity coefficient.
func (f *FROST) checkRound1Packages(phase Phase, own Identifier, peers []*Round1Package) error {
	if len(peers) != f.total-1 {
		return &IncompletePackageSetError{Phase: phase, Expected: f.total - 1, Got: len(peers)}
	}
	seen := map[string]struct{}{own.key(): {}}
	for _, pkg := range peers {
		if pkg == nil {
			return &IncompletePackageSetError{Phase: phase, Expected: f.total - 1, Got: len(peers)}
		}
		if pkg.Identifier.IsZero() {
			return ErrInvalidIdentifier
		}
		if _, ok := seen[pkg.Identifier.key()]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateIdentifier, pkg.Identifier)
		}
		seen[pkg.Identifier.key()] = struct{}{}
	}
	for _, pkg := range peers {
		if len(pkg.Commitment) != f.threshold {
			return &InvalidCommitmentError{From: pkg.Identifier, Expected: f.threshold, Got: len(pkg.Commitment)}
		}
		for k, c := range pkg.Commitment {
			if c == nil {
				return &InvalidCommitmentError{From: pkg.Identifier, Expected: f.threshold, Got: len(pkg.Commitment)}
			}
			if c.IsIdentity() {
				return fmt.Errorf("%w: coefficient %d committed by %s", ErrIdentityElement, k, pkg.Identifier)
			}
		}
	}
	return nil
}

// Round2 consumes the Round1 secret, verifies every peer's proof of
// knowledge, and produces one share per peer. peers must hold exactly
// the n-1 other parties' Round1 packages.
//
// The secret package is destroyed whether or not Round2 succeeds.
func (f *FROST) Round2(secret *Round1SecretPackage, peers []*Round1Package) ([]*Round2Package, *Round2SecretPackage, error) {
	if secret == nil || !secret.consumed.CompareAndSwap(false, true) {
		return nil, nil, ErrSecretConsumed
	}
	defer secret.wipe()
	if secret.poly == nil {
		return nil, nil, ErrSecretConsumed
	}

	if err := f.checkRound1Packages(PhaseDKGRound2, secret.identifier, peers); err != nil {
		return nil, nil, err
	}
	for _, pkg := range sortedRound1(peers) {
		if !f.verifyKnowledge(pkg) {
			return nil, nil, &InvalidProofOfKnowledgeError{From: pkg.Identifier}
		}
	}

	out := make([]*Round2Package, 0, len(peers))
	for _, pkg := range sortedRound1(peers) {
		share, err := secret.poly.Eval(pkg.Identifier.Scalar())
		if err != nil {
			return nil, nil, err
		}
		out = append(out, &Round2Package{
			From:  secret.identifier,
			To:    pkg.Identifier,
			Share: share,
		})
	}

	ownShare, err := secret.poly.Eval(secret.identifier.Scalar())
	if err != nil {
		return nil, nil, err
	}

	next := &Round2SecretPackage{
		g:          f.group,
		identifier: secret.identifier,
		commitment: secret.commitment,
		ownShare:   ownShare,
	}
	return out, next, nil
}

// Round3 consumes the Round2 secret, verifies every received share
// against its sender's commitment, and derives the key material.
// round1 holds the same n-1 peer packages given to Round2; round2 holds
// the n-1 shares addressed to this party.
func (f *FROST) Round3(secret *Round2SecretPackage, round1 []*Round1Package, round2 []*Round2Package) (*KeyPackage, *PublicKeyPackage, error) {
	if secret == nil || !secret.consumed.CompareAndSwap(false, true) {
		return nil, nil, ErrSecretConsumed
	}
	defer secret.wipe()
	if secret.ownShare == nil {
		return nil, nil, ErrSecretConsumed
	}

	own := secret.identifier
	if err := f.checkRound1Packages(PhaseDKGRound3, own, round1); err != nil {
		return nil, nil, err
	}
	if len(round2) != f.total-1 {
		return nil, nil, &IncompletePackageSetError{Phase: PhaseDKGRound3, Expected: f.total - 1, Got: len(round2)}
	}

	byFrom := make(map[string]*Round2Package, len(round2))
	for _, pkg := range round2 {
		if pkg == nil {
			return nil, nil, &IncompletePackageSetError{Phase: PhaseDKGRound3, Expected: f.total - 1, Got: len(round2)}
		}
		if _, ok := byFrom[pkg.From.key()]; ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateIdentifier, pkg.From)
		}
		byFrom[pkg.From.key()] = pkg
	}

	signingShare := f.group.NewScalar().Set(secret.ownShare)
	for _, peer := range sortedRound1(round1) {
		pkg, ok := byFrom[peer.Identifier.key()]
		if !ok {
			zeroize(f.group, signingShare)
			return nil, nil, &MissingPackageError{Phase: PhaseDKGRound3, Identifier: peer.Identifier}
		}
		if err := f.verifyShare(own, peer, pkg); err != nil {
			zeroize(f.group, signingShare)
			return nil, nil, err
		}
		signingShare = f.group.NewScalar().Add(signingShare, pkg.Share)
	}

	// Commitments of every party, own included.
	commitments := make([][]group.Point, 0, f.total)
	commitments = append(commitments, secret.commitment)
	ids := []Identifier{own}
	for _, peer := range round1 {
		commitments = append(commitments, peer.Commitment)
		ids = append(ids, peer.Identifier)
	}
	SortIdentifiers(ids)

	groupKey := f.group.NewPoint()
	for _, c := range commitments {
		groupKey = f.group.NewPoint().Add(groupKey, c[0])
	}

	shares := make([]VerifyingShare, len(ids))
	for i, id := range ids {
		Y := f.group.NewPoint()
		for _, c := range commitments {
			Y = f.group.NewPoint().Add(Y, evalCommitment(f.group, c, id.Scalar()))
		}
		shares[i] = VerifyingShare{Identifier: id, Share: Y}
	}

	verifyingShare := f.group.NewPoint().ScalarMult(signingShare, f.group.Generator())
	if expected, _ := (&PublicKeyPackage{VerifyingShares: shares}).VerifyingShare(own); !expected.Equal(verifyingShare) {
		zeroize(f.group, signingShare)
		return nil, nil, fmt.Errorf("%w: signing share does not match verifying share", ErrInvalidShare)
	}

	kp := &KeyPackage{
		Identifier:     own,
		SigningShare:   signingShare,
		VerifyingShare: verifyingShare,
		GroupKey:       groupKey,
		MinSigners:     f.threshold,
	}
	pub := &PublicKeyPackage{
		VerifyingShares: shares,
		GroupKey:        groupKey,
		MinSigners:      f.threshold,
	}
	return kp, pub, nil
}

// verifyShare checks share*G == sum(commitment[k] * own^k).
func (f *FROST) verifyShare(own Identifier, sender *Round1Package, pkg *Round2Package) error {
	if !pkg.To.Equal(own) {
		return &InvalidShareError{From: pkg.From, Reason: fmt.Sprintf("addressed to %s", pkg.To)}
	}
	if pkg.Share == nil {
		return &InvalidShareError{From: pkg.From, Reason: "empty share"}
	}
	lhs := f.group.NewPoint().ScalarMult(pkg.Share, f.group.Generator())
	rhs := evalCommitment(f.group, sender.Commitment, own.Scalar())
	if !lhs.Equal(rhs) {
		return &InvalidShareError{From: pkg.From, Reason: "share does not match commitment"}
	}
	return nil
}

func copyPoints(g group.Group, points []group.Point) []group.Point {
	out := make([]group.Point, len(points))
	for i, p := range points {
		out[i] = g.NewPoint().Set(p)
	}
	return out
}

func sortedRound1(pkgs []*Round1Package) []*Round1Package {
	out := append([]*Round1Package(nil), pkgs...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Identifier.Compare(out[j].Identifier) < 0
	})
	return out
}
