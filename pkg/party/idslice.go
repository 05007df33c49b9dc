package party

import (
	"encoding/binary"
	"io"
	"sort"
)

// IDSlice is a sorted slice of IDs.
type IDSlice []ID

// NewIDSlice returns a sorted copy of the given ids.
func NewIDSlice(ids []ID) IDSlice {
	out := make(IDSlice, len(ids))
	copy(out, ids)
	sort.Sort(out)
	return out
}

func (ids IDSlice) Len() int           { return len(ids) }
func (ids IDSlice) Less(i, j int) bool { return ids[i] < ids[j] }
func (ids IDSlice) Swap(i, j int)      { ids[i], ids[j] = ids[j], ids[i] }

// Valid returns true if the IDSlice is sorted and does not contain any
// duplicates or the zero ID.
func (ids IDSlice) Valid() bool {
	for i := range ids {
		if !ids[i].Valid() {
			return false
		}
		if i > 0 && ids[i-1] >= ids[i] {
			return false
		}
	}
	return true
}

// Search returns the index of x in ids, and whether it is present.
// Assumes that ids is sorted.
func (ids IDSlice) Search(x ID) (int, bool) {
	index := sort.Search(len(ids), func(i int) bool { return ids[i] >= x })
	if index >= 0 && index < len(ids) && ids[index] == x {
		return index, true
	}
	return 0, false
}

// Contains returns true if ids contains id.
// Assumes that ids is sorted.
func (ids IDSlice) Contains(id ID) bool {
	_, ok := ids.Search(id)
	return ok
}

// GetIndex returns the index of id in ids, or -1 if it is absent.
// Assumes that ids is sorted.
func (ids IDSlice) GetIndex(id ID) int {
	if idx, ok := ids.Search(id); ok {
		return idx
	}
	return -1
}

// Copy returns a sorted copy of ids.
func (ids IDSlice) Copy() IDSlice {
	return NewIDSlice(ids)
}

// Remove returns a copy of ids with id removed, if present.
// Assumes that ids is sorted.
func (ids IDSlice) Remove(id ID) IDSlice {
	out := make(IDSlice, 0, len(ids))
	for _, other := range ids {
		if other != id {
			out = append(out, other)
		}
	}
	return out
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (ids IDSlice) WriteTo(w io.Writer) (int64, error) {
	if err := binary.Write(w, binary.BigEndian, uint64(len(ids))); err != nil {
		return 0, err
	}
	nAll := int64(8)
	for _, id := range ids {
		n, err := w.Write(id.Bytes())
		nAll += int64(n)
		if err != nil {
			return nAll, err
		}
	}
	return nAll, nil
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (IDSlice) Domain() string {
	return "IDSlice"
}
