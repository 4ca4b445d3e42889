package session

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/f3rmion/frostkit/frost"
)

// Phase is the position of a [Participant] in the DKG state machine.
type Phase int

// DKG phases, in order. A participant that fails a round moves to Failed
// and cannot resume; the ceremony has to be restarted.
const (
	AwaitingRound1 Phase = iota
	AwaitingRound2
	AwaitingRound3
	Ready
	Failed
)

func (p Phase) String() string {
	switch p {
	case AwaitingRound1:
		return "awaiting-round1"
	case AwaitingRound2:
		return "awaiting-round2"
	case AwaitingRound3:
		return "awaiting-round3"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

var (
	// ErrOutOfOrder indicates a DKG call made in the wrong phase.
	ErrOutOfOrder = errors.New("session: call out of order")

	// ErrSessionConsumed indicates a signing session was already used.
	ErrSessionConsumed = errors.New("session: signing session already consumed")

	// ErrMessageMismatch indicates a signing package for a different message.
	ErrMessageMismatch = errors.New("session: signing package message does not match session")
)

// PhaseError reports a call made in the wrong phase.
type PhaseError struct {
	Op   string
	Want Phase
	Got  Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("session: %s requires phase %s, participant is %s", e.Op, e.Want, e.Got)
}

// Is reports whether target is ErrOutOfOrder.
func (e *PhaseError) Is(target error) bool {
	return target == ErrOutOfOrder
}

// Participant manages a single participant's state throughout DKG and
// signing. Each DKG call moves it one phase forward and hands the
// previous round's secret package to frost, which destroys it.
//
// Participant is safe for concurrent use; calls are serialized.
type Participant struct {
	mu    sync.Mutex
	frost *frost.FROST
	id    frost.Identifier
	phase Phase

	round1Secret *frost.Round1SecretPackage
	round2Secret *frost.Round2SecretPackage
	peers        []*frost.Round1Package

	keyPackage       *frost.KeyPackage
	publicKeyPackage *frost.PublicKeyPackage
}

// DKGResult contains the output of a successful DKG ceremony.
type DKGResult struct {
	// KeyPackage is this participant's secret key material.
	// Store this securely; it is required for signing.
	KeyPackage *frost.KeyPackage

	// PublicKeyPackage holds the group key and every verifying share.
	// It is identical for all honest participants.
	PublicKeyPackage *frost.PublicKeyPackage
}

// NewParticipant creates a participant in phase AwaitingRound1.
func NewParticipant(f *frost.FROST, id frost.Identifier) (*Participant, error) {
	if f == nil {
		return nil, fmt.Errorf("session: %w", frost.ErrInvalidConfiguration)
	}
	if id.IsZero() {
		return nil, fmt.Errorf("session: %w", frost.ErrInvalidIdentifier)
	}
	return &Participant{
		frost: f,
		id:    id,
		phase: AwaitingRound1,
	}, nil
}

// DeriveIdentifiers derives one identifier per seed and fails if any two
// collide.
func DeriveIdentifiers(f *frost.FROST, seeds [][]byte) ([]frost.Identifier, error) {
	ids := make([]frost.Identifier, len(seeds))
	for i, seed := range seeds {
		id, err := f.DeriveIdentifier(seed)
		if err != nil {
			return nil, fmt.Errorf("session: derive identifier %d: %w", i+1, err)
		}
		ids[i] = id
	}
	if err := frost.ValidateIdentifiers(ids); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	return ids, nil
}

// Identifier returns this participant's identifier.
func (p *Participant) Identifier() frost.Identifier {
	return p.id
}

// Phase returns the current phase.
func (p *Participant) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// FROST returns the underlying FROST instance for advanced use cases.
func (p *Participant) FROST() *frost.FROST {
	return p.frost
}

// KeyPackage returns the key package once the participant is Ready.
func (p *Participant) KeyPackage() *frost.KeyPackage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.keyPackage
}

// PublicKeyPackage returns the public key package once the participant
// is Ready.
func (p *Participant) PublicKeyPackage() *frost.PublicKeyPackage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.publicKeyPackage
}

func (p *Participant) expect(op string, want Phase) error {
	if p.phase != want {
		return &PhaseError{Op: op, Want: want, Got: p.phase}
	}
	return nil
}

func (p *Participant) fail() {
	p.phase = Failed
	p.round1Secret = nil
	p.round2Secret = nil
	p.peers = nil
}

// Round1 starts DKG and returns the package to broadcast.
func (p *Participant) Round1(rng io.Reader) (*frost.Round1Package, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.expect("Round1", AwaitingRound1); err != nil {
		return nil, err
	}
	secret, pkg, err := p.frost.Round1(p.id, rng)
	if err != nil {
		p.fail()
		return nil, fmt.Errorf("session: round1: %w", err)
	}
	p.round1Secret = secret
	p.phase = AwaitingRound2
	return pkg, nil
}

// Round2 takes the other parties' Round1 packages and returns one
// private package per peer.
func (p *Participant) Round2(peers []*frost.Round1Package) ([]*frost.Round2Package, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.expect("Round2", AwaitingRound2); err != nil {
		return nil, err
	}
	secret := p.round1Secret
	p.round1Secret = nil

	out, next, err := p.frost.Round2(secret, peers)
	if err != nil {
		p.fail()
		return nil, fmt.Errorf("session: round2: %w", err)
	}
	p.round2Secret = next
	p.peers = append([]*frost.Round1Package(nil), peers...)
	p.phase = AwaitingRound3
	return out, nil
}

// Round3 takes the Round2 packages addressed to this participant and
// completes DKG.
func (p *Participant) Round3(received []*frost.Round2Package) (*DKGResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.expect("Round3", AwaitingRound3); err != nil {
		return nil, err
	}
	secret := p.round2Secret
	p.round2Secret = nil

	kp, pub, err := p.frost.Round3(secret, p.peers, received)
	if err != nil {
		p.fail()
		return nil, fmt.Errorf("session: round3: %w", err)
	}
	p.peers = nil
	p.keyPackage = kp
	p.publicKeyPackage = pub
	p.phase = Ready

	return &DKGResult{
		KeyPackage:       kp,
		PublicKeyPackage: pub,
	}, nil
}

// Restore loads previously saved key material and moves the participant
// to Ready. It is only valid before DKG has started.
func (p *Participant) Restore(kp *frost.KeyPackage, pub *frost.PublicKeyPackage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.expect("Restore", AwaitingRound1); err != nil {
		return err
	}
	if kp == nil || pub == nil || !kp.Identifier.Equal(p.id) {
		return fmt.Errorf("session: restore: %w", frost.ErrMalformed)
	}
	p.keyPackage = kp
	p.publicKeyPackage = pub
	p.phase = Ready
	return nil
}
