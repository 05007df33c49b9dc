package arith

import (
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nat(x uint64) *saferith.Nat {
	return new(saferith.Nat).SetUint64(x)
}

func TestValidateSafePrime(t *testing.T) {
	tests := []struct {
		name string
		p    *saferith.Nat
		err  error
	}{
		{"nil", nil, ErrPrimeNil},
		{"safe prime 23", nat(23), nil},
		{"safe prime 7", nat(7), nil},
		{"prime 13 is 1 mod 4", nat(13), ErrNotSafePrime},
		{"composite 15", nat(15), ErrNotPrime},
		{"prime 19, (19-1)/2 = 9 composite", nat(19), ErrNotSafePrime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSafePrime(tt.p)
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestGroup(t *testing.T) {
	group, err := NewGroup(nat(23))
	require.NoError(t, err)

	assert.Equal(t, int64(11), group.Order().Nat().Big().Int64())
	assert.Equal(t, int64(23), group.Modulus().Nat().Big().Int64())

	// g² = 16 (mod 23)
	assert.True(t, group.ExpG(nat(2)).Eq(nat(16)) == 1)

	// the generator has order q: gᑫ = 1 (mod p)
	one := nat(1)
	assert.True(t, group.ExpG(nat(11)).Eq(one) == 1)

	// exponents are taken mod q: gᵉ = gᵉ⁺ᑫ
	lhs := group.ExpG(nat(3))
	rhs := group.ExpG(nat(3 + 11))
	assert.True(t, lhs.Eq(rhs) == 1)
}

func TestGroup_RejectsNonSafePrime(t *testing.T) {
	_, err := NewGroup(nat(13))
	assert.Error(t, err)
}
