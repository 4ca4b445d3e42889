package frost

import (
	"fmt"
	"io"
	"sort"
	"sync/atomic"

	"github.com/f3rmion/frostkit/group"
)

// nonceRandomLen is the number of fresh random bytes mixed into each nonce.
const nonceRandomLen = 32

// SigningNonce holds a participant's nonce pair for one signing session.
// The first call to Sign destroys it; it has no exported fields and is
// never serialized.
type SigningNonce struct {
	g          group.Group
	hiding     group.Scalar // d
	binding    group.Scalar // e
	commitment *SigningCommitment
	consumed   atomic.Bool
}

// Commitment returns the public commitment to the nonce pair.
func (n *SigningNonce) Commitment() *SigningCommitment { return n.commitment }

// Consumed reports whether the nonce has been used or discarded.
func (n *SigningNonce) Consumed() bool { return n.consumed.Load() }

// Discard destroys an unused nonce, for a signing attempt abandoned
// before Sign. It is a no-op once the nonce is consumed.
func (n *SigningNonce) Discard() {
	if n != nil && n.consumed.CompareAndSwap(false, true) {
		n.wipe()
	}
}

// wipe must only run after the caller won the consumed flag.
func (n *SigningNonce) wipe() {
	if n.hiding != nil {
		zeroize(n.g, n.hiding, n.binding)
	}
	n.hiding, n.binding = nil, nil
}

// SigningCommitment is broadcast in round 1 of signing.
type SigningCommitment struct {
	Identifier   Identifier
	HidingPoint  group.Point // d * G
	BindingPoint group.Point // e * G
}

// SigningPackage is the message plus the commitments of every signer in
// the session, sorted by identifier.
type SigningPackage struct {
	Message     []byte
	Commitments []*SigningCommitment
}

// Identifiers returns the signers in the package.
func (p *SigningPackage) Identifiers() []Identifier {
	ids := make([]Identifier, 0, len(p.Commitments))
	for _, c := range p.Commitments {
		if c != nil {
			ids = append(ids, c.Identifier)
		}
	}
	return ids
}

func (p *SigningPackage) commitment(id Identifier) *SigningCommitment {
	for _, c := range p.Commitments {
		if c != nil && c.Identifier.Equal(id) {
			return c
		}
	}
	return nil
}

// SignatureShare is a participant's share of the signature.
type SignatureShare struct {
	Identifier Identifier
	Z          group.Scalar
}

// Commit generates a fresh nonce pair for kp and its public commitment.
// Each nonce is H3 of fresh randomness and the signing share, so a weak
// rng alone does not expose the key. Nonces never depend on the message.
func (f *FROST) Commit(kp *KeyPackage, r io.Reader) (*SigningNonce, *SigningCommitment, error) {
	if kp == nil || kp.SigningShare == nil || kp.Identifier.IsZero() {
		return nil, nil, fmt.Errorf("%w: key package", ErrMalformed)
	}

	d, err := f.generateNonce(kp.SigningShare, r)
	if err != nil {
		return nil, nil, err
	}
	e, err := f.generateNonce(kp.SigningShare, r)
	if err != nil {
		zeroize(f.group, d)
		return nil, nil, err
	}

	commitment := &SigningCommitment{
		Identifier:   kp.Identifier,
		HidingPoint:  f.group.NewPoint().ScalarMult(d, f.group.Generator()),
		BindingPoint: f.group.NewPoint().ScalarMult(e, f.group.Generator()),
	}
	nonce := &SigningNonce{
		g:          f.group,
		hiding:     d,
		binding:    e,
		commitment: commitment,
	}
	return nonce, commitment, nil
}

func (f *FROST) generateNonce(secret group.Scalar, r io.Reader) (group.Scalar, error) {
	var buf [nonceRandomLen]byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("frost: %s: read randomness: %w", PhaseSignCommit, err)
		}
		k, err := f.hasher.H3(f.group, buf[:], secret.Bytes())
		if err != nil {
			return nil, err
		}
		if !k.IsZero() {
			return k, nil
		}
	}
}

// NewSigningPackage builds the package distributed to signers. It fails
// if fewer than t commitments are given or two share an identifier.
func (f *FROST) NewSigningPackage(message []byte, commitments []*SigningCommitment) (*SigningPackage, error) {
	if err := f.checkCommitments(PhaseSign, commitments); err != nil {
		return nil, err
	}
	sorted := append([]*SigningCommitment(nil), commitments...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Identifier.Compare(sorted[j].Identifier) < 0
	})
	return &SigningPackage{
		Message:     append([]byte(nil), message...),
		Commitments: sorted,
	}, nil
}

func (f *FROST) checkCommitments(phase Phase, commitments []*SigningCommitment) error {
	if len(commitments) < f.threshold {
		return &QuorumError{Phase: phase, Required: f.threshold, Got: len(commitments)}
	}
	seen := make(map[string]struct{}, len(commitments))
	for _, c := range commitments {
		if c == nil || c.HidingPoint == nil || c.BindingPoint == nil {
			return fmt.Errorf("%w: signing commitment", ErrMalformed)
		}
		if c.HidingPoint.IsIdentity() || c.BindingPoint.IsIdentity() {
			return fmt.Errorf("%w: signing commitment from %s", ErrIdentityElement, c.Identifier)
		}
		if c.Identifier.IsZero() {
			return ErrInvalidIdentifier
		}
		if _, ok := seen[c.Identifier.key()]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateIdentifier, c.Identifier)
		}
		seen[c.Identifier.key()] = struct{}{}
	}
	return nil
}

// Sign produces kp's signature share for pkg. The nonce is destroyed on
// entry, so it can never sign twice even if this call fails.
func (f *FROST) Sign(pkg *SigningPackage, nonce *SigningNonce, kp *KeyPackage) (*SignatureShare, error) {
	if nonce == nil || !nonce.consumed.CompareAndSwap(false, true) {
		return nil, ErrNonceConsumed
	}
	defer nonce.wipe()
	d, e := nonce.hiding, nonce.binding
	own := nonce.commitment
	if d == nil || e == nil || own == nil {
		return nil, ErrNonceConsumed
	}

	if pkg == nil || kp == nil || kp.SigningShare == nil || kp.GroupKey == nil {
		return nil, fmt.Errorf("%w: signing input", ErrMalformed)
	}

	mine := pkg.commitment(kp.Identifier)
	if mine == nil {
		return nil, &MissingPackageError{Phase: PhaseSign, Identifier: kp.Identifier}
	}
	if !own.Identifier.Equal(kp.Identifier) ||
		!mine.HidingPoint.Equal(own.HidingPoint) ||
		!mine.BindingPoint.Equal(own.BindingPoint) {
		return nil, ErrIncorrectCommitment
	}
	if err := f.checkCommitments(PhaseSign, pkg.Commitments); err != nil {
		return nil, err
	}

	sc, err := f.newSigningContext(pkg, kp.GroupKey)
	if err != nil {
		return nil, err
	}
	lambda, err := f.lagrangeCoefficient(kp.Identifier, pkg.Identifiers())
	if err != nil {
		return nil, err
	}

	// z_i = d + rho * e + lambda * s * c
	rho := sc.bindingFactors[kp.Identifier.key()]
	z := f.group.NewScalar().Mul(rho, e)
	z = f.group.NewScalar().Add(d, z)
	lambdaS := f.group.NewScalar().Mul(lambda, kp.SigningShare)
	lambdaSC := f.group.NewScalar().Mul(lambdaS, sc.c)
	z = f.group.NewScalar().Add(z, lambdaSC)
	zeroize(f.group, lambdaS, lambdaSC)

	return &SignatureShare{
		Identifier: kp.Identifier,
		Z:          z,
	}, nil
}

// Aggregate verifies every share against its signer's verifying share,
// sums them, and verifies the resulting signature before returning it.
// All failing shares are reported together in an
// InvalidSignatureShareError so the caller can exclude them and retry.
func (f *FROST) Aggregate(pkg *SigningPackage, shares []*SignatureShare, pub *PublicKeyPackage) (*Signature, error) {
	if pkg == nil || pub == nil || pub.GroupKey == nil {
		return nil, fmt.Errorf("%w: aggregation input", ErrMalformed)
	}
	if pub.GroupKey.IsIdentity() {
		return nil, fmt.Errorf("%w: group key", ErrIdentityElement)
	}
	if err := f.checkCommitments(PhaseAggregate, pkg.Commitments); err != nil {
		return nil, err
	}

	byID := make(map[string]*SignatureShare, len(shares))
	for _, s := range shares {
		if s == nil || s.Z == nil {
			return nil, fmt.Errorf("%w: signature share", ErrMalformed)
		}
		if _, ok := byID[s.Identifier.key()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentifier, s.Identifier)
		}
		if pkg.commitment(s.Identifier) == nil {
			return nil, &MissingPackageError{Phase: PhaseAggregate, Identifier: s.Identifier}
		}
		byID[s.Identifier.key()] = s
	}
	for _, c := range pkg.Commitments {
		if _, ok := byID[c.Identifier.key()]; !ok {
			return nil, &MissingPackageError{Phase: PhaseAggregate, Identifier: c.Identifier}
		}
	}

	sc, err := f.newSigningContext(pkg, pub.GroupKey)
	if err != nil {
		return nil, err
	}

	ids := sortedIdentifiers(pkg.Identifiers())
	var culprits []Identifier
	for _, id := range ids {
		Y, ok := pub.VerifyingShare(id)
		if !ok {
			return nil, &MissingPackageError{Phase: PhaseAggregate, Identifier: id}
		}
		if Y.IsIdentity() {
			return nil, fmt.Errorf("%w: verifying share of %s", ErrIdentityElement, id)
		}
		lambda, err := f.lagrangeCoefficient(id, ids)
		if err != nil {
			return nil, err
		}
		if !f.verifySignatureShare(byID[id.key()], pkg.commitment(id), sc, lambda, Y) {
			culprits = append(culprits, id)
		}
	}
	if len(culprits) > 0 {
		return nil, &InvalidSignatureShareError{From: culprits[0], Culprits: culprits}
	}

	z := f.group.NewScalar()
	for _, id := range ids {
		z = f.group.NewScalar().Add(z, byID[id.key()].Z)
	}
	sig := &Signature{R: sc.R, Z: z}

	if !f.Verify(pkg.Message, sig, pub.GroupKey) {
		return nil, ErrSignatureVerificationFailed
	}
	return sig, nil
}

// verifySignatureShare checks z_i*G == D_i + rho_i*E_i + c*lambda_i*Y_i.
func (f *FROST) verifySignatureShare(share *SignatureShare, comm *SigningCommitment, sc *signingContext, lambda group.Scalar, Y group.Point) bool {
	rho := sc.bindingFactors[comm.Identifier.key()]

	lhs := f.group.NewPoint().ScalarMult(share.Z, f.group.Generator())

	rhoE := f.group.NewPoint().ScalarMult(rho, comm.BindingPoint)
	rhs := f.group.NewPoint().Add(comm.HidingPoint, rhoE)
	cLambda := f.group.NewScalar().Mul(sc.c, lambda)
	rhs = f.group.NewPoint().Add(rhs, f.group.NewPoint().ScalarMult(cLambda, Y))

	return lhs.Equal(rhs)
}

// Verify checks a FROST signature.
func (f *FROST) Verify(message []byte, sig *Signature, groupKey group.Point) bool {
	if sig == nil || sig.R == nil || sig.Z == nil || groupKey == nil || groupKey.IsIdentity() {
		return false
	}

	// c = H2(R, GroupKey, message)
	c, err := f.hasher.H2(f.group, sig.R.Bytes(), groupKey.Bytes(), message)
	if err != nil {
		return false
	}

	// Check: z*G == R + c*Y
	lhs := f.group.NewPoint().ScalarMult(sig.Z, f.group.Generator())

	cY := f.group.NewPoint().ScalarMult(c, groupKey)
	rhs := f.group.NewPoint().Add(sig.R, cY)

	return lhs.Equal(rhs)
}

// signingContext holds the values every signer and the aggregator
// derive identically from a signing package.
type signingContext struct {
	bindingFactors map[string]group.Scalar
	R              group.Point
	c              group.Scalar
}

func (f *FROST) newSigningContext(pkg *SigningPackage, groupKey group.Point) (*signingContext, error) {
	factors, err := f.computeBindingFactors(pkg, groupKey)
	if err != nil {
		return nil, err
	}

	// R = sum(D_i + rho_i * E_i)
	R := f.group.NewPoint()
	for _, comm := range pkg.Commitments {
		rho := factors[comm.Identifier.key()]
		rhoE := f.group.NewPoint().ScalarMult(rho, comm.BindingPoint)
		term := f.group.NewPoint().Add(comm.HidingPoint, rhoE)
		R = f.group.NewPoint().Add(R, term)
	}

	c, err := f.hasher.H2(f.group, R.Bytes(), groupKey.Bytes(), pkg.Message)
	if err != nil {
		return nil, err
	}
	return &signingContext{bindingFactors: factors, R: R, c: c}, nil
}

// computeBindingFactors derives rho_i = H1(Y, H4(msg), H5(list), id_i)
// over the commitment list in identifier order.
func (f *FROST) computeBindingFactors(pkg *SigningPackage, groupKey group.Point) (map[string]group.Scalar, error) {
	sorted := append([]*SigningCommitment(nil), pkg.Commitments...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Identifier.Compare(sorted[j].Identifier) < 0
	})

	var commBytes []byte
	for _, c := range sorted {
		commBytes = append(commBytes, c.Identifier.Bytes()...)
		commBytes = append(commBytes, c.HidingPoint.Bytes()...)
		commBytes = append(commBytes, c.BindingPoint.Bytes()...)
	}
	msgHash := f.hasher.H4(f.group, pkg.Message)
	commHash := f.hasher.H5(f.group, commBytes)
	Y := groupKey.Bytes()

	factors := make(map[string]group.Scalar, len(sorted))
	for _, c := range sorted {
		rho, err := f.hasher.H1(f.group, Y, msgHash, commHash, c.Identifier.Bytes())
		if err != nil {
			return nil, err
		}
		factors[c.Identifier.key()] = rho
	}
	return factors, nil
}

// lagrangeCoefficient computes prod_{j != i} x_j / (x_j - x_i).
func (f *FROST) lagrangeCoefficient(id Identifier, signers []Identifier) (group.Scalar, error) {
	num := f.scalarFromInt(1)
	den := f.scalarFromInt(1)

	for _, other := range signers {
		if other.Equal(id) {
			continue
		}
		num = f.group.NewScalar().Mul(num, other.Scalar())
		diff := f.group.NewScalar().Sub(other.Scalar(), id.Scalar())
		den = f.group.NewScalar().Mul(den, diff)
	}

	denInv, err := f.group.NewScalar().Invert(den)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDuplicateIdentifier, err)
	}
	return f.group.NewScalar().Mul(num, denInv), nil
}

func sortedIdentifiers(ids []Identifier) []Identifier {
	out := append([]Identifier(nil), ids...)
	SortIdentifiers(out)
	return out
}
