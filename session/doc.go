// Package session provides a high-level API for FROST threshold signature
// ceremonies. It wraps the low-level primitives in the [frost] package with
// a state machine that handles round management and prevents common
// mistakes like nonce reuse or calling rounds out of order.
//
// For full control over the protocol, use the [frost] package directly.
//
// # DKG Ceremony
//
// A [Participant] moves through the phases AwaitingRound1, AwaitingRound2,
// AwaitingRound3 and Ready. Each call is accepted only in its own phase;
// anything else fails with a [PhaseError] before touching key material.
// A failed round moves the participant to Failed.
//
//	p, err := session.NewParticipant(f, myID)
//	if err != nil {
//		return err
//	}
//
//	r1, err := p.Round1(rand.Reader)
//	// Broadcast r1, collect the n-1 other Round1 packages.
//
//	out, err := p.Round2(peers)
//	// Send out[i] to out[i].To over a secure channel,
//	// collect the n-1 packages addressed to p.
//
//	result, err := p.Round3(received)
//	// Store result.KeyPackage securely, publish result.PublicKeyPackage.
//
// # Signing
//
// Signing uses a session-based API that ensures nonces are never reused:
//
//	sess, err := p.NewSigningSession(rand.Reader, message)
//	if err != nil {
//		return err
//	}
//
//	// Send sess.Commitment() to the coordinator, receive the SigningPackage.
//	share, err := sess.Sign(pkg)
//
//	// Coordinator:
//	sig, err := session.Aggregate(f, pkg, shares, pub)
//
// A [SigningSession] signs at most once. If a session is abandoned, start
// a new one; the old commitment must not be reused.
package session
