package polynomial

import (
	"io"

	"github.com/cronokirby/saferith"
	"github.com/quorumnet/threshold-keys/pkg/math/sample"
)

// Polynomial represents f(X) = a₀ + a₁⋅X + … + a_d⋅Xᵈ over ℤ_q.
//
// A Polynomial is never mutated after construction: a reshare builds a new one.
type Polynomial struct {
	modulus      *saferith.Modulus
	coefficients []*saferith.Nat
}

// NewPolynomial generates a Polynomial f(X) = constant + a₁⋅X + … + a_d⋅Xᵈ,
// with the non-constant coefficients sampled from [2, q), and degree d.
func NewPolynomial(rand io.Reader, modulus *saferith.Modulus, degree int, constant *saferith.Nat) *Polynomial {
	coefficients := make([]*saferith.Nat, degree+1)

	// if the constant is nil, we interpret it as 0.
	if constant == nil {
		constant = new(saferith.Nat).SetUint64(0)
	}
	coefficients[0] = new(saferith.Nat).Mod(constant, modulus)

	for i := 1; i <= degree; i++ {
		coefficients[i] = sample.FieldElement(rand, modulus)
	}

	return &Polynomial{modulus: modulus, coefficients: coefficients}
}

// Evaluate evaluates the polynomial at the point x.
// We use Horner's method: https://en.wikipedia.org/wiki/Horner%27s_method
func (p *Polynomial) Evaluate(x *saferith.Nat) *saferith.Nat {
	if x.Eq(new(saferith.Nat).SetUint64(0)) == 1 {
		panic("polynomial: attempt to leak secret")
	}

	result := new(saferith.Nat).SetUint64(0)
	// reverse order
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		// bₙ₋₁ = bₙ * x + aₙ₋₁
		result.ModMul(result, x, p.modulus)
		result.ModAdd(result, p.coefficients[i], p.modulus)
	}
	return result
}

// Constant returns a copy of the constant coefficient of the polynomial.
func (p *Polynomial) Constant() *saferith.Nat {
	return new(saferith.Nat).SetNat(p.coefficients[0])
}

// Degree is the highest power of the Polynomial.
func (p *Polynomial) Degree() int {
	return len(p.coefficients) - 1
}

// Modulus returns the field modulus the coefficients live in.
func (p *Polynomial) Modulus() *saferith.Modulus {
	return p.modulus
}
