package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/f3rmion/frostkit/frost"
	"github.com/f3rmion/frostkit/group"
)

// SigningSession manages a single signing operation with built-in nonce safety.
// Each session can only be used once; attempting to sign twice returns an error.
//
// Create sessions using [Participant.NewSigningSession].
type SigningSession struct {
	mu         sync.Mutex
	frost      *frost.FROST
	keyPackage *frost.KeyPackage
	message    []byte
	nonce      *frost.SigningNonce
	commitment *frost.SigningCommitment
	consumed   bool
}

// NewSigningSession creates a new signing session for the given message.
//
// This generates fresh nonces internally. The session must be used exactly
// once; a cancelled session is discarded and a new one created for any retry.
func (p *Participant) NewSigningSession(rng io.Reader, message []byte) (*SigningSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.expect("NewSigningSession", Ready); err != nil {
		return nil, err
	}

	nonce, commitment, err := p.frost.Commit(p.keyPackage, rng)
	if err != nil {
		return nil, fmt.Errorf("session: commit: %w", err)
	}

	return &SigningSession{
		frost:      p.frost,
		keyPackage: p.keyPackage,
		message:    append([]byte(nil), message...),
		nonce:      nonce,
		commitment: commitment,
	}, nil
}

// Commitment returns the public commitment that must be sent to the coordinator.
func (s *SigningSession) Commitment() *frost.SigningCommitment {
	return s.commitment
}

// Message returns the message being signed.
func (s *SigningSession) Message() []byte {
	return s.message
}

// Sign produces a signature share for pkg, which must carry this
// session's message and commitment.
//
// This method consumes the session. Calling Sign a second time returns
// ErrSessionConsumed. The nonce is destroyed whether or not signing succeeds.
func (s *SigningSession) Sign(pkg *frost.SigningPackage) (*frost.SignatureShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.consumed {
		return nil, ErrSessionConsumed
	}
	s.consumed = true
	nonce := s.nonce
	s.nonce = nil

	if pkg != nil && !bytes.Equal(pkg.Message, s.message) {
		nonce.Discard()
		return nil, ErrMessageMismatch
	}

	share, err := s.frost.Sign(pkg, nonce, s.keyPackage)
	if err != nil {
		return nil, fmt.Errorf("session: sign: %w", err)
	}
	return share, nil
}

// Discard destroys the session's nonce without signing. Call it when an
// attempt is abandoned before Sign; after Sign it does nothing.
func (s *SigningSession) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.consumed {
		return
	}
	s.consumed = true
	s.nonce.Discard()
	s.nonce = nil
}

// IsConsumed returns true if this session has already been used for signing.
func (s *SigningSession) IsConsumed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumed
}

// Aggregate combines signature shares into a verified signature.
//
// This is typically called by a coordinator after collecting shares from
// every signer in pkg.
func Aggregate(
	f *frost.FROST,
	pkg *frost.SigningPackage,
	shares []*frost.SignatureShare,
	pub *frost.PublicKeyPackage,
) (*frost.Signature, error) {
	if len(shares) == 0 {
		return nil, errors.New("session: no signature shares provided")
	}
	sig, err := f.Aggregate(pkg, shares, pub)
	if err != nil {
		return nil, fmt.Errorf("session: aggregate: %w", err)
	}
	return sig, nil
}

// Verify checks whether a signature is valid for the given message and group key.
//
// Returns nil if the signature is valid, or an error describing why it's invalid.
func Verify(f *frost.FROST, message []byte, sig *frost.Signature, groupKey group.Point) error {
	if !f.Verify(message, sig, groupKey) {
		return frost.ErrSignatureVerificationFailed
	}
	return nil
}

// QuickSign performs a complete signing operation when all key packages
// are local.
//
// This is useful for testing or single-machine threshold setups where all
// participants are in the same process. For distributed signing, use
// [SigningSession] instead.
func QuickSign(
	f *frost.FROST,
	rng io.Reader,
	signers []*frost.KeyPackage,
	pub *frost.PublicKeyPackage,
	message []byte,
) (*frost.Signature, error) {
	if len(signers) == 0 {
		return nil, errors.New("session: no key packages provided")
	}

	nonces := make([]*frost.SigningNonce, len(signers))
	commitments := make([]*frost.SigningCommitment, len(signers))
	defer func() {
		// Nonces not used by Sign are destroyed on every exit path.
		for _, n := range nonces {
			n.Discard()
		}
	}()
	for i, kp := range signers {
		nonce, commitment, err := f.Commit(kp, rng)
		if err != nil {
			return nil, fmt.Errorf("session: commit: %w", err)
		}
		nonces[i] = nonce
		commitments[i] = commitment
	}

	pkg, err := f.NewSigningPackage(message, commitments)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	shares := make([]*frost.SignatureShare, len(signers))
	for i, kp := range signers {
		share, err := f.Sign(pkg, nonces[i], kp)
		if err != nil {
			return nil, fmt.Errorf("session: sign: %w", err)
		}
		shares[i] = share
	}

	return Aggregate(f, pkg, shares, pub)
}
