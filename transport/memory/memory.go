// Package memory implements transport.Transport inside one process.
// Every payload is wrapped in an envelope and run through the configured
// serializer, so codec bugs surface in tests exactly as they would on a
// network.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/f3rmion/frostkit/transport"
)

type mailboxKey struct {
	phase transport.Phase
	to    transport.PartyID
}

// mailbox holds the envelopes addressed to one party for one phase.
// notify is closed and replaced on every delivery.
type mailbox struct {
	envelopes map[transport.PartyID][]byte
	notify    chan struct{}
}

// Transport is a channel-based rendezvous between in-process parties.
type Transport struct {
	sessionID  string
	serializer *transport.Serializer
	parties    map[transport.PartyID]struct{}

	mu        sync.Mutex
	mailboxes map[mailboxKey]*mailbox
	closed    bool
	done      chan struct{}
}

var _ transport.Transport = (*Transport)(nil)

// New creates a transport for the given parties. codecType defaults to json.
func New(sessionID string, parties []transport.PartyID, codecType string) (*Transport, error) {
	if sessionID == "" || len(parties) == 0 {
		return nil, transport.ErrInvalidConfig
	}
	if codecType == "" {
		codecType = transport.CodecJSON
	}
	serializer, err := transport.NewSerializer(codecType)
	if err != nil {
		return nil, fmt.Errorf("failed to create serializer: %w", err)
	}

	set := make(map[transport.PartyID]struct{}, len(parties))
	for _, p := range parties {
		if _, dup := set[p]; dup {
			return nil, fmt.Errorf("%w: duplicate party %d", transport.ErrInvalidConfig, p)
		}
		set[p] = struct{}{}
	}

	return &Transport{
		sessionID:  sessionID,
		serializer: serializer,
		parties:    set,
		mailboxes:  make(map[mailboxKey]*mailbox),
		done:       make(chan struct{}),
	}, nil
}

// SessionID returns the session this transport serves.
func (t *Transport) SessionID() string {
	return t.sessionID
}

func (t *Transport) known(p transport.PartyID) error {
	if _, ok := t.parties[p]; !ok {
		return &transport.ParticipantError{Party: p, Err: transport.ErrUnknownParty}
	}
	return nil
}

// box returns the mailbox for key, creating it. Callers hold t.mu.
func (t *Transport) box(key mailboxKey) *mailbox {
	b, ok := t.mailboxes[key]
	if !ok {
		b = &mailbox{
			envelopes: make(map[transport.PartyID][]byte),
			notify:    make(chan struct{}),
		}
		t.mailboxes[key] = b
	}
	return b
}

// Broadcast delivers payload to every other party.
func (t *Transport) Broadcast(ctx context.Context, phase transport.Phase, from transport.PartyID, payload []byte) error {
	if err := t.known(from); err != nil {
		return err
	}
	for to := range t.parties {
		if to == from {
			continue
		}
		if err := t.Send(ctx, phase, from, to, payload); err != nil {
			return err
		}
	}
	return nil
}

// Send delivers payload to one party.
func (t *Transport) Send(ctx context.Context, phase transport.Phase, from, to transport.PartyID, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.known(from); err != nil {
		return err
	}
	if err := t.known(to); err != nil {
		return err
	}

	data, err := t.serializer.Marshal(transport.NewEnvelope(t.sessionID, phase, from, to, payload))
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return transport.ErrClosed
	}
	b := t.box(mailboxKey{phase: phase, to: to})
	if _, dup := b.envelopes[from]; dup {
		return &transport.ParticipantError{Party: from, Err: transport.ErrDuplicateMessage}
	}
	b.envelopes[from] = data
	close(b.notify)
	b.notify = make(chan struct{})
	return nil
}

// CollectAll waits for expected payloads addressed to to in phase.
func (t *Transport) CollectAll(ctx context.Context, phase transport.Phase, to transport.PartyID, expected int) (map[transport.PartyID][]byte, error) {
	if err := t.known(to); err != nil {
		return nil, err
	}
	key := mailboxKey{phase: phase, to: to}

	for {
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			return nil, transport.ErrClosed
		}
		b := t.box(key)
		if len(b.envelopes) >= expected {
			raw := b.envelopes
			delete(t.mailboxes, key)
			t.mu.Unlock()
			return t.open(raw, phase, to)
		}
		received, notify := len(b.envelopes), b.notify
		t.mu.Unlock()

		select {
		case <-notify:
		case <-t.done:
			return nil, transport.ErrClosed
		case <-ctx.Done():
			err := ctx.Err()
			if errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("%w: %v", transport.ErrTimeout, err)
			}
			return nil, &transport.CollectError{
				Phase:    phase,
				To:       to,
				Expected: expected,
				Received: received,
				Err:      err,
			}
		}
	}
}

// open decodes envelopes and checks their routing.
func (t *Transport) open(raw map[transport.PartyID][]byte, phase transport.Phase, to transport.PartyID) (map[transport.PartyID][]byte, error) {
	out := make(map[transport.PartyID][]byte, len(raw))
	for from, data := range raw {
		var env transport.Envelope
		if err := t.serializer.UnmarshalEnvelope(data, &env); err != nil {
			return nil, &transport.ParticipantError{Party: from, Err: err}
		}
		if env.SessionID != t.sessionID || env.Phase != phase || env.From != from || env.To != to {
			return nil, &transport.SessionError{SessionID: t.sessionID, Phase: phase, Err: transport.ErrInvalidMessage}
		}
		out[from] = env.Payload
	}
	return out, nil
}

// Close wakes every blocked collector with ErrClosed.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.done)
	return nil
}
