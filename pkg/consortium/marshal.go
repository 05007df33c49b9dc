package consortium

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/quorumnet/threshold-keys/pkg/math/arith"
	"github.com/quorumnet/threshold-keys/pkg/party"
)

type signatureMarshal struct {
	R, Z *saferith.Nat
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (sig *Signature) MarshalBinary() ([]byte, error) {
	if sig == nil || sig.R == nil || sig.Z == nil {
		return nil, errors.New("consortium: cannot marshal incomplete signature")
	}
	return cbor.Marshal(&signatureMarshal{R: sig.R, Z: sig.Z})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (sig *Signature) UnmarshalBinary(data []byte) error {
	var sm signatureMarshal
	if err := cbor.Unmarshal(data, &sm); err != nil {
		return fmt.Errorf("consortium: signature: %w", err)
	}
	if sm.R == nil || sm.Z == nil {
		return errors.New("consortium: signature: missing component")
	}
	sig.R, sig.Z = sm.R, sm.Z
	return nil
}

type memberMarshal struct {
	ID        party.ID
	Share     *saferith.Nat
	PublicKey *saferith.Nat
	Active    bool
}

type keyManagerMarshal struct {
	Prime     *saferith.Nat
	Threshold int
	PublicKey *saferith.Nat
	Members   []cbor.RawMessage
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
// The encoding contains every member's share: it is the full manager state,
// intended for sealed storage, not for publication.
func (km *KeyManager) MarshalBinary() ([]byte, error) {
	km.mtx.Lock()
	defer km.mtx.Unlock()

	ms := make([]cbor.RawMessage, 0, len(km.members))
	for _, id := range km.memberIDs() {
		m := km.members[id]
		data, err := cbor.Marshal(&memberMarshal{
			ID:        m.ID,
			Share:     m.Share,
			PublicKey: m.PublicKey,
			Active:    m.Active,
		})
		if err != nil {
			return nil, err
		}
		ms = append(ms, data)
	}
	return cbor.Marshal(&keyManagerMarshal{
		Prime:     km.group.Modulus().Nat(),
		Threshold: km.threshold,
		PublicKey: km.publicKey,
		Members:   ms,
	})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
// The field prime is revalidated as a safe prime, and every active member's
// public key is checked against its share, so a corrupted or tampered blob is
// rejected rather than loaded.
func (km *KeyManager) UnmarshalBinary(data []byte) error {
	var kmm keyManagerMarshal
	if err := cbor.Unmarshal(data, &kmm); err != nil {
		return fmt.Errorf("consortium: %w", err)
	}

	if kmm.Threshold < 1 {
		return fmt.Errorf("%w: t=%d", ErrInvalidThreshold, kmm.Threshold)
	}
	group, err := arith.NewGroup(kmm.Prime)
	if err != nil {
		return fmt.Errorf("consortium: %w", err)
	}
	if kmm.PublicKey == nil {
		return errors.New("consortium: missing public key")
	}

	members := make(map[party.ID]*Member, len(kmm.Members))
	activeCount := 0
	for _, raw := range kmm.Members {
		var mm memberMarshal
		if err := cbor.Unmarshal(raw, &mm); err != nil {
			return fmt.Errorf("consortium: member: %w", err)
		}
		if !mm.ID.Valid() {
			return ErrInvalidID
		}
		if _, ok := members[mm.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateMember, mm.ID)
		}
		if mm.Share == nil || mm.PublicKey == nil {
			return fmt.Errorf("consortium: member %s: missing share or public key", mm.ID)
		}
		if mm.Active {
			if group.ExpG(mm.Share).Eq(mm.PublicKey) != 1 {
				return fmt.Errorf("consortium: member %s: share does not correspond to public key", mm.ID)
			}
			activeCount++
		}
		members[mm.ID] = &Member{
			ID:        mm.ID,
			Share:     mm.Share,
			PublicKey: mm.PublicKey,
			Active:    mm.Active,
		}
	}
	if activeCount < kmm.Threshold {
		return fmt.Errorf("%w: %d active members, need %d", ErrInsufficientQuorum, activeCount, kmm.Threshold)
	}

	km.mtx.Lock()
	defer km.mtx.Unlock()
	if km.rand == nil {
		km.rand = rand.Reader
	}
	km.group = group
	km.threshold = kmm.Threshold
	km.members = members
	km.activeCount = activeCount
	km.publicKey = kmm.PublicKey
	return nil
}
