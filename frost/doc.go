// Package frost implements the FROST (Flexible Round-Optimized Schnorr Threshold)
// signature scheme over an arbitrary elliptic curve group.
//
// FROST is a threshold signature scheme that allows t-of-n participants to
// collaboratively generate a Schnorr signature without any single participant
// knowing the full private key. The scheme consists of two main phases:
//
// # Distributed Key Generation (DKG)
//
// Before signing, participants run a dealer-less key generation in three
// rounds:
//
//  1. [FROST.Round1] samples a random polynomial, commits to its coefficients
//     and proves knowledge of the constant term. The [Round1Package] is
//     broadcast; the [Round1SecretPackage] stays local.
//  2. [FROST.Round2] verifies every peer's proof and evaluates the secret
//     polynomial at each peer's identifier. Each [Round2Package] goes to
//     exactly one peer over a private channel.
//  3. [FROST.Round3] verifies the received shares against the senders'
//     commitments and outputs the [KeyPackage] and [PublicKeyPackage].
//
// Secret packages are consumed by the next round. They are zeroized on
// first use, whether or not the round succeeds, and a second use returns
// [ErrSecretConsumed]. First use is claimed atomically, so of two
// concurrent calls with the same package exactly one proceeds. Signing
// nonces follow the same rule with [ErrNonceConsumed].
//
// # Threshold Signing
//
// Once key shares are established, any t participants can collaboratively
// sign a message:
//
//  1. Each signer generates nonces and commitments using [FROST.Commit].
//  2. The coordinator collects commitments into a [SigningPackage] with
//     [FROST.NewSigningPackage].
//  3. Each signer computes their signature share using [FROST.Sign].
//  4. [FROST.Aggregate] checks every share, combines them, and verifies the
//     final signature before returning it.
//
// Anyone can check a signature with [FROST.Verify].
//
// # Example
//
// Basic usage with 2-of-3 threshold:
//
//	f, _ := frost.New(g, 2, 3)
//
//	id1, _ := frost.IdentifierFromUint16(g, 1)
//	secret1, pkg1, _ := f.Round1(id1, rand.Reader)
//	// ... broadcast pkg1, collect the other two Round1 packages ...
//	shares, secret2, _ := f.Round2(secret1, peers)
//	// ... send shares[i] to shares[i].To, collect two incoming shares ...
//	kp1, pub, _ := f.Round3(secret2, peers, incoming)
//
//	nonce1, commit1, _ := f.Commit(kp1, rand.Reader)
//	// ... collect commit2 from another signer ...
//	sp, _ := f.NewSigningPackage(message, []*frost.SigningCommitment{commit1, commit2})
//	share1, _ := f.Sign(sp, nonce1, kp1)
//	sig, err := f.Aggregate(sp, []*frost.SignatureShare{share1, share2}, pub)
//
// # Errors
//
// Failures carry the phase and, where one exists, the identifier of the
// offending party. Match them with [errors.Is] against the sentinels or
// with [errors.As] against the typed errors.
//
// # Security Considerations
//
// Nonces returned by [FROST.Commit] are single use. [FROST.Sign] destroys
// its nonce on entry, so a retried session must commit again.
//
// DKG messages are neither encrypted nor authenticated here; callers must
// supply a transport that provides both.
package frost
