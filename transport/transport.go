// Package transport defines how ceremony parties exchange protocol
// messages. The protocol core never talks to a network; ceremony drives
// a Transport and hands the decoded packages to frost.
//
// Implementations must deliver each payload at most once per
// (phase, sender, recipient) and must not reorder payloads across
// phases. They are not required to authenticate or encrypt; a production
// transport must add both before DKG shares cross a network.
package transport

import (
	"context"
	"strconv"
	"time"
)

// PartyID is the 1-based index of a party within a ceremony.
type PartyID uint16

func (p PartyID) String() string {
	return strconv.Itoa(int(p))
}

// Phase names the protocol step a message belongs to. Payloads of
// different phases never satisfy each other's barriers.
type Phase string

// Transport moves opaque payloads between parties.
type Transport interface {
	// Broadcast delivers payload to every party except from.
	Broadcast(ctx context.Context, phase Phase, from PartyID, payload []byte) error

	// Send delivers payload to a single party.
	Send(ctx context.Context, phase Phase, from, to PartyID, payload []byte) error

	// CollectAll blocks until expected payloads addressed to to have
	// arrived for phase, then returns them keyed by sender. It returns
	// early with an error if ctx ends or the transport closes.
	CollectAll(ctx context.Context, phase Phase, to PartyID, expected int) (map[PartyID][]byte, error)

	// Close releases resources and wakes blocked collectors.
	Close() error
}

// Envelope wraps a payload with its routing metadata.
type Envelope struct {
	SessionID string  `json:"session_id" msgpack:"session_id" cbor:"1,keyasint" yaml:"session_id"`
	Phase     Phase   `json:"phase" msgpack:"phase" cbor:"2,keyasint" yaml:"phase"`
	From      PartyID `json:"from" msgpack:"from" cbor:"3,keyasint" yaml:"from"`
	To        PartyID `json:"to" msgpack:"to" cbor:"4,keyasint" yaml:"to"`
	Payload   []byte  `json:"payload" msgpack:"payload" cbor:"5,keyasint" yaml:"payload"`
	Timestamp int64   `json:"timestamp" msgpack:"timestamp" cbor:"6,keyasint" yaml:"timestamp"`
}

// NewEnvelope stamps an envelope with the current time.
func NewEnvelope(sessionID string, phase Phase, from, to PartyID, payload []byte) *Envelope {
	return &Envelope{
		SessionID: sessionID,
		Phase:     phase,
		From:      from,
		To:        to,
		Payload:   payload,
		Timestamp: time.Now().UnixNano(),
	}
}
