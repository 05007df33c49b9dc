package consortium

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/quorumnet/threshold-keys/pkg/math/arith"
	"github.com/quorumnet/threshold-keys/pkg/math/polynomial"
	"github.com/quorumnet/threshold-keys/pkg/math/sample"
	"github.com/quorumnet/threshold-keys/pkg/party"
	"github.com/quorumnet/threshold-keys/pkg/pool"
)

var (
	ErrInvalidThreshold   = errors.New("consortium: threshold must be between 1 and the initial member count")
	ErrInvalidID          = errors.New("consortium: member id must be nonzero and below the share field order")
	ErrDuplicateMember    = errors.New("consortium: member id already present")
	ErrUnknownMember      = errors.New("consortium: member unknown or inactive")
	ErrInsufficientQuorum = errors.New("consortium: fewer than threshold eligible shares")
)

// KeyManager maintains a (t, n) sharing of a long-lived signing secret across
// a changing membership set.
//
// The secret is the constant term of a degree-(t-1) polynomial over ℤ_q; each
// member holds the evaluation at x = ID. Membership churn rerandomizes the
// non-constant coefficients without changing the secret, so the group public
// key stays valid across joins and leaves.
//
// All operations are serialized by a single lock: a reshare rewrites every
// active member's share, and no caller may observe the registry mid-rewrite.
type KeyManager struct {
	mtx  sync.Mutex
	rand io.Reader

	group     *arith.Group
	threshold int
	members   map[party.ID]*Member
	// activeCount is the number of members with Active set.
	activeCount int
	// publicKey is gˢ (mod p). It is fixed at setup: reshares preserve s.
	publicKey *saferith.Nat
}

// NewKeyManager sets up a consortium with ids 1..initialMembers, of which any
// threshold can reconstruct the shared secret. bits is the size of the field
// prime, fixed for the lifetime of the manager.
//
// The threshold is validated before any randomness is drawn. Safe prime
// generation runs on pl, which may be nil.
func NewKeyManager(rand io.Reader, pl *pool.Pool, threshold, initialMembers, bits int) (*KeyManager, error) {
	if threshold < 1 || threshold > initialMembers {
		return nil, fmt.Errorf("%w: t=%d, n=%d", ErrInvalidThreshold, threshold, initialMembers)
	}

	p, err := sample.SafePrime(rand, pl, bits)
	if err != nil {
		return nil, fmt.Errorf("consortium: generate field prime: %w", err)
	}
	group, err := arith.NewGroup(p)
	if err != nil {
		return nil, fmt.Errorf("consortium: %w", err)
	}

	secret := sample.FieldElement(rand, group.Order())
	f := polynomial.NewPolynomial(rand, group.Order(), threshold-1, secret)

	km := &KeyManager{
		rand:      rand,
		group:     group,
		threshold: threshold,
		members:   make(map[party.ID]*Member, initialMembers),
		publicKey: group.ExpG(secret),
	}
	// Ids double as evaluation points in ℤ_q, so all of 1..n must fit below q.
	// Checking the largest suffices.
	if top := party.ID(initialMembers); int(top) != initialMembers || !km.validID(top) {
		return nil, fmt.Errorf("%w: %d members do not fit the field", ErrInvalidID, initialMembers)
	}
	for i := 1; i <= initialMembers; i++ {
		id := party.ID(i)
		km.members[id] = km.newMember(id, f.Evaluate(id.Nat()))
	}
	km.activeCount = initialMembers
	// the secret itself is dropped here; only shares and gˢ survive setup
	return km, nil
}

// validID reports whether id is a usable evaluation point: nonzero, and below
// the share field order q. An id ≥ q would wrap: id = q evaluates the
// polynomial at 0, handing out the secret itself, and id = q + x aliases the
// share of x.
func (km *KeyManager) validID(id party.ID) bool {
	if !id.Valid() {
		return false
	}
	_, _, lt := id.Nat().CmpMod(km.group.Order())
	return lt == 1
}

func (km *KeyManager) newMember(id party.ID, share *saferith.Nat) *Member {
	return &Member{
		ID:        id,
		Share:     share,
		PublicKey: km.group.ExpG(share),
		Active:    true,
	}
}

// AddMember derives a share for a new member on the current sharing polynomial
// and registers it as active. The returned Member is a copy carrying the fresh
// share, for delivery to the joining party.
//
// Ids are never reused: an id that was removed earlier stays taken.
func (km *KeyManager) AddMember(id party.ID) (Member, error) {
	km.mtx.Lock()
	defer km.mtx.Unlock()

	if !km.validID(id) {
		return Member{}, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	if _, ok := km.members[id]; ok {
		return Member{}, fmt.Errorf("%w: %s", ErrDuplicateMember, id)
	}

	points, err := km.collectShares(0)
	if err != nil {
		return Member{}, err
	}
	// The reconstruction is transient: f lives only for this call, and only
	// its evaluation at the new id escapes.
	f, err := polynomial.Interpolate(points, km.group.Order())
	if err != nil {
		return Member{}, fmt.Errorf("consortium: reconstruct polynomial: %w", err)
	}

	m := km.newMember(id, f.Evaluate(id.Nat()))
	km.members[id] = m
	km.activeCount++
	return m.clone(), nil
}

// RemoveMember deactivates a member and reshares: a new polynomial with the
// same constant term but fresh random higher coefficients replaces the current
// one, and every surviving active member's share is rewritten. The departing
// member's old share does not lie on the new polynomial, so it is useless for
// any future reconstruction.
//
// Fails if the id is unknown or already inactive, or if fewer than threshold
// active members would remain to form the reshare quorum.
func (km *KeyManager) RemoveMember(id party.ID) error {
	km.mtx.Lock()
	defer km.mtx.Unlock()

	m, ok := km.members[id]
	if !ok || !m.Active {
		return fmt.Errorf("%w: %s", ErrUnknownMember, id)
	}

	points, err := km.collectShares(id)
	if err != nil {
		return err
	}
	f, err := polynomial.Interpolate(points, km.group.Order())
	if err != nil {
		return fmt.Errorf("consortium: reconstruct polynomial: %w", err)
	}

	next := polynomial.NewPolynomial(km.rand, km.group.Order(), km.threshold-1, f.Constant())
	for _, other := range km.members {
		if other.ID == id || !other.Active {
			continue
		}
		other.Share = next.Evaluate(other.ID.Nat())
		other.PublicKey = km.group.ExpG(other.Share)
	}

	m.Active = false
	km.activeCount--
	return nil
}

// Sign produces a threshold signature on message using the shares of the first
// threshold listed signers, all of which must be active.
//
// The shared secret is reconstructed transiently inside this call; it is never
// stored on the manager nor returned to the caller.
func (km *KeyManager) Sign(message []byte, signers []party.ID) (*Signature, error) {
	km.mtx.Lock()
	defer km.mtx.Unlock()

	if len(signers) < km.threshold {
		return nil, fmt.Errorf("%w: %d signers listed, need %d", ErrInsufficientQuorum, len(signers), km.threshold)
	}

	points := make([]polynomial.Point, 0, km.threshold)
	for _, id := range signers[:km.threshold] {
		m, ok := km.members[id]
		if !ok || !m.Active {
			continue
		}
		points = append(points, polynomial.Point{X: id.Nat(), Y: m.Share})
	}
	if len(points) < km.threshold {
		return nil, fmt.Errorf("%w: %d eligible signers, need %d", ErrInsufficientQuorum, len(points), km.threshold)
	}

	f, err := polynomial.Interpolate(points, km.group.Order())
	if err != nil {
		return nil, fmt.Errorf("consortium: reconstruct secret: %w", err)
	}
	return sign(km.rand, km.group, f.Constant(), km.publicKey, message), nil
}

// Verify checks a signature on message against the consortium's public key.
// It does not use the shared secret.
func (km *KeyManager) Verify(message []byte, sig *Signature) bool {
	km.mtx.Lock()
	defer km.mtx.Unlock()
	return sig.Verify(km.group, km.publicKey, message)
}

// collectShares returns the first threshold active members' shares in sorted
// id order. exclude, when nonzero, is skipped. Any quorum of threshold active
// members is equivalent under Lagrange interpolation; the sorted walk just
// keeps the selection deterministic.
func (km *KeyManager) collectShares(exclude party.ID) ([]polynomial.Point, error) {
	points := make([]polynomial.Point, 0, km.threshold)
	for _, id := range km.memberIDs() {
		m := km.members[id]
		if !m.Active || id == exclude {
			continue
		}
		points = append(points, polynomial.Point{X: id.Nat(), Y: m.Share})
		if len(points) == km.threshold {
			return points, nil
		}
	}
	return nil, fmt.Errorf("%w: need %d", ErrInsufficientQuorum, km.threshold)
}

// memberIDs returns all registered ids, sorted. Callers must hold the lock.
func (km *KeyManager) memberIDs() party.IDSlice {
	ids := make([]party.ID, 0, len(km.members))
	for id := range km.members {
		ids = append(ids, id)
	}
	return party.NewIDSlice(ids)
}

// Threshold returns t, the number of members needed to reconstruct the secret.
func (km *KeyManager) Threshold() int {
	km.mtx.Lock()
	defer km.mtx.Unlock()
	return km.threshold
}

// ActiveCount returns the number of active members.
func (km *KeyManager) ActiveCount() int {
	km.mtx.Lock()
	defer km.mtx.Unlock()
	return km.activeCount
}

// Group returns the consortium's signing group.
func (km *KeyManager) Group() *arith.Group {
	km.mtx.Lock()
	defer km.mtx.Unlock()
	return km.group
}

// PublicKey returns a copy of the consortium public key gˢ (mod p).
func (km *KeyManager) PublicKey() *saferith.Nat {
	km.mtx.Lock()
	defer km.mtx.Unlock()
	return new(saferith.Nat).SetNat(km.publicKey)
}

// Member returns a copy of the record for id, if registered.
func (km *KeyManager) Member(id party.ID) (Member, bool) {
	km.mtx.Lock()
	defer km.mtx.Unlock()
	m, ok := km.members[id]
	if !ok {
		return Member{}, false
	}
	return m.clone(), true
}

// MemberIDs returns all registered ids, active and inactive, sorted.
func (km *KeyManager) MemberIDs() party.IDSlice {
	km.mtx.Lock()
	defer km.mtx.Unlock()
	return km.memberIDs()
}
