package sample

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
)

const maxIterations = 255

var ErrMaxIterations = fmt.Errorf("sample: failed to generate after %d iterations", maxIterations)

func mustReadBits(rand io.Reader, buf []byte) {
	for i := 0; i < maxIterations; i++ {
		if _, err := io.ReadFull(rand, buf); err == nil {
			return
		}
	}
	panic(ErrMaxIterations)
}

// ModN samples an element of ℤₙ.
func ModN(rand io.Reader, n *saferith.Modulus) *saferith.Nat {
	out := new(saferith.Nat)
	buf := make([]byte, (n.BitLen()+7)/8)
	for {
		mustReadBits(rand, buf)
		out.SetBytes(buf)
		_, _, lt := out.CmpMod(n)
		if lt == 1 {
			break
		}
	}
	return out
}

// FieldElement samples an element of ℤₙ in [2, n).
//
// This is the coefficient range used by sharing polynomials: a 0 coefficient
// drops a term, lowering the effective degree, and a 1 makes the polynomial
// trivially guessable at that position.
func FieldElement(rand io.Reader, n *saferith.Modulus) *saferith.Nat {
	two := new(saferith.Nat).SetUint64(2)
	for i := 0; i < maxIterations; i++ {
		x := ModN(rand, n)
		if _, _, lt := x.Cmp(two); lt != 1 {
			return x
		}
	}
	panic(ErrMaxIterations)
}

// Exponent samples a nonzero element of ℤₙ, suitable as a signature nonce.
func Exponent(rand io.Reader, n *saferith.Modulus) *saferith.Nat {
	zero := new(saferith.Nat).SetUint64(0)
	for i := 0; i < maxIterations; i++ {
		x := ModN(rand, n)
		if x.Eq(zero) != 1 {
			return x
		}
	}
	panic(ErrMaxIterations)
}
