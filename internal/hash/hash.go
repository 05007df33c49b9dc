package hash

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/quorumnet/threshold-keys/internal/params"
	"github.com/zeebo/blake3"
)

const DigestLengthBytes = params.SecBytes * 2 // 64

// Hash is the hash function used to derive signature challenges and to bind
// protocol transcripts.
//
// Internally, this is a wrapper around blake3, but any hash function with
// an easily extendable output would work as well.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash struct whose state is seeded with the protocol tag.
func New() *Hash {
	hash := &Hash{h: blake3.New()}
	_, _ = hash.h.WriteString("threshold-keys")
	return hash
}

// Digest returns a reader for the current output of the function.
//
// This finalizes the current state of the hash, and returns what's
// essentially a stream of random bytes.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns a slice of length DigestLengthBytes resulting from the current hash state.
// If a different length is required, use io.ReadFull(hash.Digest(), out) instead.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	if _, err := io.ReadFull(hash.Digest(), out); err != nil {
		panic(fmt.Sprintf("hash.Sum: internal hash failure: %v", err))
	}
	return out
}

// WriteAny takes many different data types and writes them to the hash state.
//
// Currently supported types:
//
//   - []byte
//   - *saferith.Nat
//   - *saferith.Modulus
//   - hash.WriterToWithDomain
//
// This function will apply its own domain separation for the first three types.
// The last type already suggests which domain to use, and this function respects it.
func (hash *Hash) WriteAny(data ...interface{}) error {
	var err error
	for _, d := range data {
		switch t := d.(type) {
		case []byte:
			err = writeWithDomain(hash.h, &BytesWithDomain{
				TheDomain: "[]byte",
				Bytes:     t,
			})
			if err != nil {
				return fmt.Errorf("hash.Hash: write []byte: %w", err)
			}
		case *saferith.Nat:
			if t == nil {
				return fmt.Errorf("hash.Hash: write *saferith.Nat: nil")
			}
			err = writeWithDomain(hash.h, &BytesWithDomain{
				TheDomain: "Nat",
				Bytes:     t.Bytes(),
			})
			if err != nil {
				return fmt.Errorf("hash.Hash: write *saferith.Nat: %w", err)
			}
		case *saferith.Modulus:
			if t == nil {
				return fmt.Errorf("hash.Hash: write *saferith.Modulus: nil")
			}
			err = writeWithDomain(hash.h, &BytesWithDomain{
				TheDomain: "Modulus",
				Bytes:     t.Bytes(),
			})
			if err != nil {
				return fmt.Errorf("hash.Hash: write *saferith.Modulus: %w", err)
			}
		case WriterToWithDomain:
			if err = writeWithDomain(hash.h, t); err != nil {
				return fmt.Errorf("hash.Hash: write io.WriterTo: %w", err)
			}
		default:
			panic("hash.Hash: unsupported type")
		}
	}
	return nil
}

// Clone returns a copy of the Hash in its current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}
