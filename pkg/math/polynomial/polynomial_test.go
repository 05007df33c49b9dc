package polynomial

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/quorumnet/threshold-keys/pkg/math/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testModulus = saferith.ModulusFromUint64(65519)

func nat(x uint64) *saferith.Nat {
	return new(saferith.Nat).SetUint64(x)
}

func TestPolynomial_Constant(t *testing.T) {
	deg := 10
	secret := sample.FieldElement(rand.Reader, testModulus)
	poly := NewPolynomial(rand.Reader, testModulus, deg, secret)
	require.True(t, poly.Constant().Eq(secret) == 1)
	require.Equal(t, deg, poly.Degree())
}

func TestPolynomial_Evaluate(t *testing.T) {
	// f(X) = 1 + X²
	poly := &Polynomial{
		modulus:      testModulus,
		coefficients: []*saferith.Nat{nat(1), nat(0), nat(1)},
	}

	mod := new(big.Int).SetUint64(65519)
	for index := 0; index < 100; index++ {
		x := uint64(mrand.Uint32())
		expected := new(big.Int).SetUint64(x)
		expected.Mul(expected, expected)
		expected.Add(expected, big.NewInt(1))
		expected.Mod(expected, mod)
		computed := poly.Evaluate(nat(x))
		assert.True(t, computed.Big().Cmp(expected) == 0)
	}
}

func TestPolynomial_EvaluateAtZeroPanics(t *testing.T) {
	poly := NewPolynomial(rand.Reader, testModulus, 2, nat(42))
	assert.Panics(t, func() { poly.Evaluate(nat(0)) })
}

func TestInterpolate_RoundTrip(t *testing.T) {
	secret := sample.FieldElement(rand.Reader, testModulus)
	poly := NewPolynomial(rand.Reader, testModulus, 2, secret)

	points := make([]Point, 0, 3)
	for x := uint64(1); x <= 3; x++ {
		points = append(points, Point{X: nat(x), Y: poly.Evaluate(nat(x))})
	}

	reconstructed, err := Interpolate(points, testModulus)
	require.NoError(t, err)
	require.Equal(t, poly.Degree(), reconstructed.Degree())
	for i := range poly.coefficients {
		assert.True(t, poly.coefficients[i].Eq(reconstructed.coefficients[i]) == 1,
			"coefficient %d differs", i)
	}
}

func TestInterpolate_OrderIndependent(t *testing.T) {
	poly := NewPolynomial(rand.Reader, testModulus, 3, nat(99))

	points := make([]Point, 0, 4)
	for x := uint64(1); x <= 4; x++ {
		points = append(points, Point{X: nat(x), Y: poly.Evaluate(nat(x))})
	}
	reversed := make([]Point, len(points))
	for i := range points {
		reversed[len(points)-1-i] = points[i]
	}

	a, err := Interpolate(points, testModulus)
	require.NoError(t, err)
	b, err := Interpolate(reversed, testModulus)
	require.NoError(t, err)

	for i := range a.coefficients {
		assert.True(t, a.coefficients[i].Eq(b.coefficients[i]) == 1,
			"coefficient %d differs", i)
	}
}

func TestInterpolate_AnyQuorumSameConstant(t *testing.T) {
	secret := nat(31337 % 65519)
	poly := NewPolynomial(rand.Reader, testModulus, 2, secret)

	points := make([]Point, 0, 5)
	for x := uint64(1); x <= 5; x++ {
		points = append(points, Point{X: nat(x), Y: poly.Evaluate(nat(x))})
	}

	subsets := [][]Point{
		{points[0], points[1], points[2]},
		{points[2], points[3], points[4]},
		{points[0], points[2], points[4]},
	}
	for _, subset := range subsets {
		reconstructed, err := Interpolate(subset, testModulus)
		require.NoError(t, err)
		assert.True(t, reconstructed.Constant().Eq(secret) == 1)
	}
}

func TestInterpolate_Errors(t *testing.T) {
	_, err := Interpolate(nil, testModulus)
	assert.ErrorIs(t, err, ErrNoPoints)

	_, err = Interpolate([]Point{
		{X: nat(1), Y: nat(2)},
		{X: nat(1), Y: nat(3)},
	}, testModulus)
	assert.ErrorIs(t, err, ErrDuplicatePoint)

	_, err = Interpolate([]Point{
		{X: nat(0), Y: nat(2)},
	}, testModulus)
	assert.ErrorIs(t, err, ErrZeroPoint)
}
