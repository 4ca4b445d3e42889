package frost

import (
	"errors"
	"fmt"
	"strings"
)

// Phase names a protocol step. It is carried by errors so callers can
// tell which round failed.
type Phase string

// Protocol phases.
const (
	PhaseDKGRound1  Phase = "dkg-round1"
	PhaseDKGRound2  Phase = "dkg-round2"
	PhaseDKGRound3  Phase = "dkg-round3"
	PhaseSignCommit Phase = "sign-commit"
	PhaseSign       Phase = "sign"
	PhaseAggregate  Phase = "aggregate"
)

// Sentinel errors. Typed errors below match these with [errors.Is].
var (
	// ErrInvalidConfiguration indicates threshold or participant count out of range.
	ErrInvalidConfiguration = errors.New("frost: invalid configuration")

	// ErrIdentifierDerivation indicates every derivation attempt hashed to zero.
	ErrIdentifierDerivation = errors.New("frost: identifier derivation failed")

	// ErrInvalidIdentifier indicates a zero or malformed identifier.
	ErrInvalidIdentifier = errors.New("frost: invalid identifier")

	// ErrDuplicateIdentifier indicates two parties share an identifier.
	ErrDuplicateIdentifier = errors.New("frost: duplicate identifier")

	// ErrIncompletePackageSet indicates a round received the wrong number of packages.
	ErrIncompletePackageSet = errors.New("frost: incomplete package set")

	// ErrInvalidCommitment indicates a Feldman commitment of the wrong shape.
	ErrInvalidCommitment = errors.New("frost: invalid commitment")

	// ErrInvalidProofOfKnowledge indicates a Round1 proof failed to verify.
	ErrInvalidProofOfKnowledge = errors.New("frost: invalid proof of knowledge")

	// ErrInvalidShare indicates a secret share inconsistent with its sender's commitment.
	ErrInvalidShare = errors.New("frost: invalid share")

	// ErrMissingPackage indicates an expected party contributed nothing.
	ErrMissingPackage = errors.New("frost: missing package")

	// ErrInsufficientSigners indicates fewer than threshold signers.
	ErrInsufficientSigners = errors.New("frost: insufficient signers")

	// ErrIncorrectCommitment indicates the signing package does not carry
	// the signer's own commitment.
	ErrIncorrectCommitment = errors.New("frost: incorrect commitment")

	// ErrInvalidSignatureShare indicates one or more signature shares failed verification.
	ErrInvalidSignatureShare = errors.New("frost: invalid signature share")

	// ErrSignatureVerificationFailed indicates the aggregated signature does not verify.
	ErrSignatureVerificationFailed = errors.New("frost: signature verification failed")

	// ErrSecretConsumed indicates a DKG secret package was already used.
	ErrSecretConsumed = errors.New("frost: secret package already consumed")

	// ErrNonceConsumed indicates a signing nonce was already used.
	ErrNonceConsumed = errors.New("frost: signing nonce already consumed")

	// ErrIdentityElement indicates the group identity where a commitment,
	// group key or verifying share is expected.
	ErrIdentityElement = errors.New("frost: identity element")

	// ErrMalformed indicates a nil or structurally broken input.
	ErrMalformed = errors.New("frost: malformed input")
)

// IncompletePackageSetError reports a package count mismatch.
type IncompletePackageSetError struct {
	Phase    Phase
	Expected int
	Got      int
}

func (e *IncompletePackageSetError) Error() string {
	return fmt.Sprintf("frost: %s: incomplete package set: expected %d, got %d",
		e.Phase, e.Expected, e.Got)
}

// Is reports whether target is ErrIncompletePackageSet.
func (e *IncompletePackageSetError) Is(target error) bool {
	return target == ErrIncompletePackageSet
}

// InvalidProofOfKnowledgeError names the sender whose proof failed.
type InvalidProofOfKnowledgeError struct {
	From Identifier
}

func (e *InvalidProofOfKnowledgeError) Error() string {
	return fmt.Sprintf("frost: invalid proof of knowledge from %s", e.From)
}

// Is reports whether target is ErrInvalidProofOfKnowledge.
func (e *InvalidProofOfKnowledgeError) Is(target error) bool {
	return target == ErrInvalidProofOfKnowledge
}

// InvalidShareError names the sender of a bad DKG share.
type InvalidShareError struct {
	From   Identifier
	Reason string
}

func (e *InvalidShareError) Error() string {
	return fmt.Sprintf("frost: invalid share from %s: %s", e.From, e.Reason)
}

// Is reports whether target is ErrInvalidShare.
func (e *InvalidShareError) Is(target error) bool {
	return target == ErrInvalidShare
}

// MissingPackageError names a party whose package is absent, or present
// where it was not expected.
type MissingPackageError struct {
	Phase      Phase
	Identifier Identifier
}

func (e *MissingPackageError) Error() string {
	return fmt.Sprintf("frost: %s: missing package for %s", e.Phase, e.Identifier)
}

// Is reports whether target is ErrMissingPackage.
func (e *MissingPackageError) Is(target error) bool {
	return target == ErrMissingPackage
}

// InvalidCommitmentError reports a commitment of unexpected length.
type InvalidCommitmentError struct {
	From     Identifier
	Expected int
	Got      int
}

func (e *InvalidCommitmentError) Error() string {
	return fmt.Sprintf("frost: invalid commitment from %s: expected %d coefficients, got %d",
		e.From, e.Expected, e.Got)
}

// Is reports whether target is ErrInvalidCommitment.
func (e *InvalidCommitmentError) Is(target error) bool {
	return target == ErrInvalidCommitment
}

// QuorumError reports a signer set smaller than the threshold.
type QuorumError struct {
	Phase    Phase
	Required int
	Got      int
}

func (e *QuorumError) Error() string {
	return fmt.Sprintf("frost: %s: need at least %d signers, got %d", e.Phase, e.Required, e.Got)
}

// Is reports whether target is ErrInsufficientSigners.
func (e *QuorumError) Is(target error) bool {
	return target == ErrInsufficientSigners
}

// InvalidSignatureShareError lists every signer whose share failed
// verification during aggregation. From is the first culprit in
// identifier order.
type InvalidSignatureShareError struct {
	From     Identifier
	Culprits []Identifier
}

func (e *InvalidSignatureShareError) Error() string {
	names := make([]string, len(e.Culprits))
	for i, id := range e.Culprits {
		names[i] = id.String()
	}
	return fmt.Sprintf("frost: invalid signature share from %s", strings.Join(names, ", "))
}

// Is reports whether target is ErrInvalidSignatureShare.
func (e *InvalidSignatureShareError) Is(target error) bool {
	return target == ErrInvalidSignatureShare
}
