package arith

import (
	"errors"

	"github.com/cronokirby/saferith"
	"github.com/quorumnet/threshold-keys/internal/params"
)

var (
	ErrPrimeNil     = errors.New("prime is nil")
	ErrNotPrime     = errors.New("modulus is not prime")
	ErrNotSafePrime = errors.New("modulus is not a safe prime")
)

// generator of the quadratic residue subgroup. 4 = 2² is a square, and for a
// safe prime p the squares form the subgroup of prime order q = (p-1)/2.
const generator = 4

// Group represents the subgroup of quadratic residues of ℤₚˣ, for a safe prime p.
//
// Group elements (public keys, signature commitments) live in ℤₚˣ, while the
// exponents acting on them (secrets, shares, nonces, challenges) live in ℤ_q,
// where q = (p-1)/2 is the subgroup order. Since p is safe, q is prime, so the
// exponents form a field and Lagrange interpolation over them is exact.
type Group struct {
	p *saferith.Modulus
	q *saferith.Modulus
	g *saferith.Nat
}

// NewGroup validates that p is a safe prime, and constructs the associated group.
func NewGroup(p *saferith.Nat) (*Group, error) {
	if err := ValidateSafePrime(p); err != nil {
		return nil, err
	}
	// q = (p - 1) / 2, using that p is odd
	q := new(saferith.Nat).Rsh(p, 1, -1)
	return &Group{
		p: saferith.ModulusFromNat(p),
		q: saferith.ModulusFromNat(q),
		g: new(saferith.Nat).SetUint64(generator),
	}, nil
}

// Modulus returns the group modulus p.
func (g *Group) Modulus() *saferith.Modulus {
	return g.p
}

// Order returns the subgroup order q = (p-1)/2. This is the field over which
// secrets are shared.
func (g *Group) Order() *saferith.Modulus {
	return g.q
}

// Generator returns a copy of the subgroup generator.
func (g *Group) Generator() *saferith.Nat {
	return new(saferith.Nat).SetNat(g.g)
}

// Exp returns xᵉ (mod p).
func (g *Group) Exp(x, e *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).Exp(x, e, g.p)
}

// ExpG returns gᵉ (mod p), for the subgroup generator g.
func (g *Group) ExpG(e *saferith.Nat) *saferith.Nat {
	return g.Exp(g.g, e)
}

// BitLen returns the bit length of the group modulus.
func (g *Group) BitLen() int {
	return g.p.BitLen()
}

// ValidateSafePrime checks that p is a safe prime:
// - p ≡ 3 (mod 4).
// - p is prime.
// - q := (p-1)/2 is prime.
func ValidateSafePrime(p *saferith.Nat) error {
	if p == nil {
		return ErrPrimeNil
	}
	// every safe prime > 5 is 3 (mod 4), since q must be odd
	if p.Byte(0)&0b11 != 3 {
		return ErrNotSafePrime
	}
	if !p.Big().ProbablyPrime(params.PrimalityIterations) {
		return ErrNotPrime
	}
	q := new(saferith.Nat).Rsh(p, 1, -1)
	if !q.Big().ProbablyPrime(params.PrimalityIterations) {
		return ErrNotSafePrime
	}
	return nil
}
