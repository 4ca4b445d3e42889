// Package secp256k1 implements the group interfaces for the secp256k1
// elliptic curve.
//
// secp256k1 is the short Weierstrass curve y^2 = x^3 + 7 used by Bitcoin
// and Ethereum. It has prime order, so every valid curve point lies in
// the group used by FROST and no cofactor handling is needed.
//
// # Usage
//
//	g := &secp256k1.Secp256k1{}
//	f, err := frost.New(g, threshold, total)
//
// # Encoding
//
// Scalars encode as 32-byte big-endian integers. Points use the 33-byte
// SEC1 compressed form; the identity, which has no SEC1 encoding, is
// written as 33 zero bytes.
//
// # Security
//
// Scalar arithmetic uses the constant-time ModNScalar type from
// github.com/decred/dcrd/dcrec/secp256k1/v4. Point multiplication uses the
// library's NonConst routines, the only variable-base multiplication it
// offers, and is not constant time. This includes multiplications by
// secret scalars: signing nonces, the DKG proof nonce, polynomial
// coefficients and signing shares. Timing of those operations can leak
// information about the secret to a local observer.
package secp256k1
