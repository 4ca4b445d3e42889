package frost

import (
	"crypto/sha256"

	"golang.org/x/crypto/blake2b"

	"github.com/f3rmion/frostkit/group"
)

// Hasher defines the hash operations required by FROST.
// Different implementations can provide different hash functions
// and domain separation schemes. Every method uses its own tag so
// outputs never collide across call sites.
type Hasher interface {
	// HID derives a party identifier from seed bytes.
	HID(g group.Group, seed []byte) (group.Scalar, error)

	// HDKG computes the DKG proof-of-knowledge challenge.
	// Inputs: party identifier, constant-term commitment, proof nonce R.
	HDKG(g group.Group, id, phi0, R []byte) (group.Scalar, error)

	// H1 computes the binding factor for a signer.
	// Inputs: group key, H4(message), H5(commitment list), signer ID.
	H1(g group.Group, groupKey, msgHash, commitHash, signerID []byte) (group.Scalar, error)

	// H2 computes the Schnorr challenge.
	// Inputs: R point, public key Y, message.
	H2(g group.Group, R, Y, msg []byte) (group.Scalar, error)

	// H3 computes a nonce from fresh randomness and the signing share.
	H3(g group.Group, random, secret []byte) (group.Scalar, error)

	// H4 hashes a message for signing.
	H4(g group.Group, msg []byte) []byte

	// H5 hashes the commitment list.
	H5(g group.Group, encCommitList []byte) []byte
}

// SHA256Hasher implements Hasher on top of the group's own
// hash-to-scalar, with SHA-256 for the message and commitment digests.
// This is the default hasher for general use.
type SHA256Hasher struct {
	// Context prefixes every tag.
	Context string
}

// NewSHA256Hasher returns a SHA256Hasher whose context names the group.
func NewSHA256Hasher(g group.Group) *SHA256Hasher {
	return &SHA256Hasher{Context: "FROST-" + g.Name() + "-SHA256-v1"}
}

func (h *SHA256Hasher) hash(tag string, data ...[]byte) []byte {
	hasher := sha256.New()
	hasher.Write([]byte(h.Context))
	hasher.Write([]byte(tag))
	for _, d := range data {
		hasher.Write(d)
	}
	return hasher.Sum(nil)
}

// HID implements Hasher.HID.
func (h *SHA256Hasher) HID(g group.Group, seed []byte) (group.Scalar, error) {
	return g.HashToScalar(h.Context+"id", seed)
}

// HDKG implements Hasher.HDKG.
func (h *SHA256Hasher) HDKG(g group.Group, id, phi0, R []byte) (group.Scalar, error) {
	return g.HashToScalar(h.Context+"dkg", id, phi0, R)
}

// H1 implements Hasher.H1.
func (h *SHA256Hasher) H1(g group.Group, groupKey, msgHash, commitHash, signerID []byte) (group.Scalar, error) {
	return g.HashToScalar(h.Context+"rho", groupKey, msgHash, commitHash, signerID)
}

// H2 implements Hasher.H2.
func (h *SHA256Hasher) H2(g group.Group, R, Y, msg []byte) (group.Scalar, error) {
	return g.HashToScalar(h.Context+"chal", R, Y, msg)
}

// H3 implements Hasher.H3.
func (h *SHA256Hasher) H3(g group.Group, random, secret []byte) (group.Scalar, error) {
	return g.HashToScalar(h.Context+"nonce", random, secret)
}

// H4 implements Hasher.H4.
func (h *SHA256Hasher) H4(g group.Group, msg []byte) []byte {
	return h.hash("msg", msg)
}

// H5 implements Hasher.H5.
func (h *SHA256Hasher) H5(g group.Group, encCommitList []byte) []byte {
	return h.hash("com", encCommitList)
}

// Blake2bHasher implements Hasher using Blake2b-512 with domain separation.
// This is compatible with Ledger/iden3 FROST implementations.
//
// Domain separation format: prefix + tag + input
// Output is interpreted as little-endian before reducing mod curve order.
type Blake2bHasher struct {
	// Prefix is the domain separation prefix.
	// Default: "FROST-EDBABYJUJUB-BLAKE512-v1"
	Prefix string
}

// NewBlake2bHasher creates a Blake2bHasher with the Ledger-compatible prefix.
func NewBlake2bHasher() *Blake2bHasher {
	return &Blake2bHasher{
		Prefix: "FROST-EDBABYJUJUB-BLAKE512-v1",
	}
}

func (h *Blake2bHasher) hash(tag string, data ...[]byte) []byte {
	hasher, _ := blake2b.New512(nil)
	hasher.Write([]byte(h.Prefix))
	hasher.Write([]byte(tag))
	for _, d := range data {
		hasher.Write(d)
	}
	return hasher.Sum(nil)
}

// hashToScalar hashes data and converts to a scalar.
// The 64-byte output is interpreted as little-endian before reducing mod order.
func (h *Blake2bHasher) hashToScalar(g group.Group, tag string, data ...[]byte) (group.Scalar, error) {
	hash := h.hash(tag, data...)

	reversed := make([]byte, len(hash))
	for i := 0; i < len(hash); i++ {
		reversed[i] = hash[len(hash)-1-i]
	}

	return g.NewScalar().SetBytes(reversed)
}

// HID implements Hasher.HID.
func (h *Blake2bHasher) HID(g group.Group, seed []byte) (group.Scalar, error) {
	return h.hashToScalar(g, "id", seed)
}

// HDKG implements Hasher.HDKG.
func (h *Blake2bHasher) HDKG(g group.Group, id, phi0, R []byte) (group.Scalar, error) {
	return h.hashToScalar(g, "dkg", id, phi0, R)
}

// H1 implements Hasher.H1 (binding factor computation).
func (h *Blake2bHasher) H1(g group.Group, groupKey, msgHash, commitHash, signerID []byte) (group.Scalar, error) {
	return h.hashToScalar(g, "rho", groupKey, msgHash, commitHash, signerID)
}

// H2 implements Hasher.H2 (Schnorr challenge).
func (h *Blake2bHasher) H2(g group.Group, R, Y, msg []byte) (group.Scalar, error) {
	return h.hashToScalar(g, "chal", R, Y, msg)
}

// H3 implements Hasher.H3 (nonce generation).
func (h *Blake2bHasher) H3(g group.Group, random, secret []byte) (group.Scalar, error) {
	return h.hashToScalar(g, "nonce", random, secret)
}

// H4 implements Hasher.H4 (message hashing).
func (h *Blake2bHasher) H4(g group.Group, msg []byte) []byte {
	return h.hash("msg", msg)
}

// H5 implements Hasher.H5 (commitment list hashing).
func (h *Blake2bHasher) H5(g group.Group, encCommitList []byte) []byte {
	return h.hash("com", encCommitList)
}
