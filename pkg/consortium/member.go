package consortium

import (
	"github.com/cronokirby/saferith"
	"github.com/quorumnet/threshold-keys/pkg/party"
)

// Member is one consortium participant's record.
//
// The registry inside KeyManager owns the canonical records; every Member a
// KeyManager hands out is a deep copy, so holding one never aliases live state.
type Member struct {
	ID party.ID

	// Share is the member's evaluation F(ID) of the current sharing polynomial,
	// an element of ℤ_q. It is replaced on every reshare.
	Share *saferith.Nat

	// PublicKey is gˢʰᵃʳᵉ (mod p), a one-way image of the share that a
	// coordination layer can use to authenticate the share holder.
	PublicKey *saferith.Nat

	// Active reports whether the member currently takes part in quorums.
	// Removed members stay in the registry, inactive, for audit history.
	Active bool
}

// clone returns a deep copy of the record.
func (m *Member) clone() Member {
	return Member{
		ID:        m.ID,
		Share:     new(saferith.Nat).SetNat(m.Share),
		PublicKey: new(saferith.Nat).SetNat(m.PublicKey),
		Active:    m.Active,
	}
}
