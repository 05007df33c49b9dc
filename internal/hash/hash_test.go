package hash

import (
	"bytes"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
)

func TestHash_WriteAny(t *testing.T) {
	var err error

	testFunc := func(vs ...interface{}) error {
		h := New()
		for _, v := range vs {
			err = h.WriteAny(v)
			if err != nil {
				return err
			}
		}
		return nil
	}

	assert.NoError(t, testFunc(new(saferith.Nat).SetUint64(35)))
	assert.NoError(t, testFunc(saferith.ModulusFromUint64(13)))
	assert.NoError(t, testFunc([]byte{1, 4, 6}))

	var n *saferith.Nat

	assert.Error(t, testFunc(n))

	assert.NoError(t, testFunc(new(saferith.Nat).SetUint64(35), []byte{1, 4, 6}))
}

func TestHash_DomainSeparation(t *testing.T) {
	h1 := New()
	_ = h1.WriteAny([]byte("ab"), []byte("c"))
	h2 := New()
	_ = h2.WriteAny([]byte("a"), []byte("bc"))
	assert.False(t, bytes.Equal(h1.Sum(), h2.Sum()), "concatenation should not collide")
}

func TestHash_Clone(t *testing.T) {
	h := New()
	_ = h.WriteAny([]byte("prefix"))
	c := h.Clone()
	assert.True(t, bytes.Equal(h.Sum(), c.Sum()))

	_ = c.WriteAny([]byte("suffix"))
	assert.False(t, bytes.Equal(h.Sum(), c.Sum()))
}
