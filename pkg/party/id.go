package party

import (
	"encoding/binary"
	"io"
	"strconv"

	"github.com/cronokirby/saferith"
)

// ByteSize is the number of bytes required to store an ID or Size.
const ByteSize = 4

// ID represents the identifier of a particular consortium member.
//
// The ID doubles as the evaluation point x = ID at which the member's share of
// the sharing polynomial is taken. Evaluating at 0 would hand out the secret
// itself, so the zero ID is invalid.
type ID uint32

// Size is an alias for ID that allows us to differentiate between a member's ID
// and a count of members such as the threshold.
type Size = ID

// Valid reports whether the ID may be used as an evaluation point.
func (id ID) Valid() bool {
	return id != 0
}

// Nat returns the ID as a field element.
func (id ID) Nat() *saferith.Nat {
	return new(saferith.Nat).SetUint64(uint64(id))
}

// Bytes returns a []byte slice of length party.ByteSize.
func (id ID) Bytes() []byte {
	bytes := make([]byte, ByteSize)
	binary.BigEndian.PutUint32(bytes, uint32(id))
	return bytes
}

// String returns a base 10 representation of ID.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// FromBytes reads the first party.ByteSize bytes from b and creates an ID from it.
func FromBytes(b []byte) ID {
	return ID(binary.BigEndian.Uint32(b))
}

// IDFromString reads a base 10 string and attempts to generate an ID from it.
func IDFromString(str string) (ID, error) {
	p, err := strconv.ParseUint(str, 10, 32)
	if err != nil {
		return 0, err
	}
	return ID(p), nil
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (id ID) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(id.Bytes())
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (ID) Domain() string {
	return "ID"
}
