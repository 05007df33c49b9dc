package polynomial

import (
	"errors"

	"github.com/cronokirby/saferith"
)

var (
	ErrNoPoints       = errors.New("polynomial: no interpolation points")
	ErrDuplicatePoint = errors.New("polynomial: duplicate evaluation point")
	ErrZeroPoint      = errors.New("polynomial: evaluation point is zero")
)

// Point is a pair (x, f(x)) of a shared polynomial, i.e. one member's share.
type Point struct {
	X, Y *saferith.Nat
}

// Interpolate reconstructs the unique polynomial of degree < len(points)
// passing through all the given points, via Lagrange interpolation.
//
// The basis polynomials are built symbolically, so the result carries the full
// coefficient list rather than just the value at 0: a reshare needs to lift the
// reconstructed constant term into a freshly randomized polynomial.
//
// The x coordinates must be distinct and nonzero. The caller is responsible
// for supplying a quorum-sized point set.
func Interpolate(points []Point, modulus *saferith.Modulus) (*Polynomial, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	zero := new(saferith.Nat).SetUint64(0)
	for i := range points {
		if points[i].X.Eq(zero) == 1 {
			return nil, ErrZeroPoint
		}
		for j := 0; j < i; j++ {
			if points[i].X.Eq(points[j].X) == 1 {
				return nil, ErrDuplicatePoint
			}
		}
	}

	// result = Σᵢ yᵢ ⋅ lᵢ(X), where lᵢ(X) = Πⱼ≠ᵢ (X - xⱼ)/(xᵢ - xⱼ)
	result := []*saferith.Nat{new(saferith.Nat).SetUint64(0)}
	tmp := new(saferith.Nat)
	for i, pi := range points {
		numerator := []*saferith.Nat{new(saferith.Nat).SetUint64(1)}
		denominator := new(saferith.Nat).SetUint64(1)
		for j, pj := range points {
			if i == j {
				continue
			}
			// numerator *= (X - xⱼ)
			numerator = mul(numerator, linear(pj.X, modulus), modulus)
			// denominator *= (xᵢ - xⱼ)
			tmp.ModSub(pi.X, pj.X, modulus)
			denominator.ModMul(denominator, tmp, modulus)
		}
		// scale = yᵢ ⋅ denominator⁻¹, which exists since the field modulus is
		// prime and the xᵢ are distinct
		scale := new(saferith.Nat).ModInverse(denominator, modulus)
		scale.ModMul(scale, pi.Y, modulus)
		result = add(result, mulScalar(numerator, scale, modulus), modulus)
	}

	return &Polynomial{modulus: modulus, coefficients: result}, nil
}

// linear returns the coefficients of (X - x).
func linear(x *saferith.Nat, modulus *saferith.Modulus) []*saferith.Nat {
	return []*saferith.Nat{
		new(saferith.Nat).ModNeg(x, modulus),
		new(saferith.Nat).SetUint64(1),
	}
}

// mul multiplies two coefficient lists.
func mul(p1, p2 []*saferith.Nat, modulus *saferith.Modulus) []*saferith.Nat {
	result := make([]*saferith.Nat, len(p1)+len(p2)-1)
	for i := range result {
		result[i] = new(saferith.Nat).SetUint64(0)
	}
	tmp := new(saferith.Nat)
	for i, a := range p1 {
		for j, b := range p2 {
			tmp.ModMul(a, b, modulus)
			result[i+j].ModAdd(result[i+j], tmp, modulus)
		}
	}
	return result
}

// mulScalar multiplies every coefficient by scalar.
func mulScalar(p []*saferith.Nat, scalar *saferith.Nat, modulus *saferith.Modulus) []*saferith.Nat {
	result := make([]*saferith.Nat, len(p))
	for i, a := range p {
		result[i] = new(saferith.Nat).ModMul(a, scalar, modulus)
	}
	return result
}

// add adds two coefficient lists, padding the shorter one with zeros.
func add(p1, p2 []*saferith.Nat, modulus *saferith.Modulus) []*saferith.Nat {
	if len(p2) > len(p1) {
		p1, p2 = p2, p1
	}
	result := make([]*saferith.Nat, len(p1))
	for i, a := range p1 {
		result[i] = new(saferith.Nat).SetNat(a)
		if i < len(p2) {
			result[i].ModAdd(result[i], p2[i], modulus)
		}
	}
	return result
}
