package consortium

import (
	"io"

	"github.com/cronokirby/saferith"
	"github.com/quorumnet/threshold-keys/internal/hash"
	"github.com/quorumnet/threshold-keys/pkg/math/arith"
	"github.com/quorumnet/threshold-keys/pkg/math/sample"
	"golang.org/x/crypto/sha3"
)

// Signature is a Schnorr signature over the consortium's safe-prime group.
//
// R = gᵏ (mod p) commits to a fresh nonce k, and Z = k + e⋅s (mod q) is the
// response to the challenge e derived from R, the public key and the message.
// Verification needs only the group and the public key gˢ.
type Signature struct {
	R *saferith.Nat
	Z *saferith.Nat
}

// messageDigest maps an arbitrary message to a fixed 64 byte digest before it
// enters the challenge transcript.
func messageDigest(message []byte) []byte {
	digest := make([]byte, 64)
	sha3.ShakeSum128(digest, message)
	return digest
}

// challenge computes e = H(p ∥ Y ∥ R ∥ m) as an element of ℤ_q.
func challenge(group *arith.Group, public, commitment *saferith.Nat, digest []byte) *saferith.Nat {
	h := hash.New()
	_ = h.WriteAny(group.Modulus(), public, commitment, digest)
	e := new(saferith.Nat).SetBytes(h.Sum())
	return e.Mod(e, group.Order())
}

// sign produces a Schnorr signature under secret, whose public key must be
// public = gˢᵉᶜʳᵉᵗ.
func sign(rand io.Reader, group *arith.Group, secret, public *saferith.Nat, message []byte) *Signature {
	digest := messageDigest(message)

	k := sample.Exponent(rand, group.Order())
	commitment := group.ExpG(k)
	e := challenge(group, public, commitment, digest)

	// z = k + e⋅s (mod q)
	z := new(saferith.Nat).ModMul(e, secret, group.Order())
	z.ModAdd(z, k, group.Order())

	return &Signature{R: commitment, Z: z}
}

// Verify checks that the signature is valid for message under the given group
// and public key: gᶻ = R ⋅ Yᵉ (mod p).
func (sig *Signature) Verify(group *arith.Group, publicKey *saferith.Nat, message []byte) bool {
	if sig == nil || sig.R == nil || sig.Z == nil {
		return false
	}
	digest := messageDigest(message)
	e := challenge(group, publicKey, sig.R, digest)

	lhs := group.ExpG(sig.Z)
	rhs := group.Exp(publicKey, e)
	rhs.ModMul(rhs, sig.R, group.Modulus())

	return lhs.Eq(rhs) == 1
}

// VerifyWithKey verifies a signature against a known group and public key,
// without needing a KeyManager.
func VerifyWithKey(group *arith.Group, publicKey *saferith.Nat, message []byte, sig *Signature) bool {
	return sig.Verify(group, publicKey, message)
}
