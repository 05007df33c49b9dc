package consortium

import (
	"crypto/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/quorumnet/threshold-keys/pkg/math/polynomial"
	"github.com/quorumnet/threshold-keys/pkg/party"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// testBits keeps safe prime generation fast in tests.
const testBits = 128

func newTestManager(t *testing.T, threshold, n int) *KeyManager {
	t.Helper()
	km, err := NewKeyManager(rand.Reader, nil, threshold, n, testBits)
	require.NoError(t, err)
	return km
}

// sharePoint reads a member's current share directly from the registry.
func (km *KeyManager) sharePoint(id party.ID) polynomial.Point {
	m := km.members[id]
	return polynomial.Point{X: id.Nat(), Y: new(saferith.Nat).SetNat(m.Share)}
}

// secretOf reconstructs the constant term from the given members' current shares.
func secretOf(t *testing.T, km *KeyManager, ids ...party.ID) *saferith.Nat {
	t.Helper()
	points := make([]polynomial.Point, 0, len(ids))
	for _, id := range ids {
		points = append(points, km.sharePoint(id))
	}
	f, err := polynomial.Interpolate(points, km.group.Order())
	require.NoError(t, err)
	return f.Constant()
}

func TestNewKeyManager_InvalidThreshold(t *testing.T) {
	reads := &countingReader{}

	_, err := NewKeyManager(reads, nil, 3, 2, testBits)
	assert.ErrorIs(t, err, ErrInvalidThreshold)
	assert.Zero(t, reads.n, "threshold must be validated before any randomness is drawn")

	_, err = NewKeyManager(reads, nil, 0, 2, testBits)
	assert.ErrorIs(t, err, ErrInvalidThreshold)
	assert.Zero(t, reads.n)
}

type countingReader struct{ n int }

func (r *countingReader) Read(p []byte) (int, error) {
	r.n += len(p)
	return len(p), nil
}

func TestSetup_AnyQuorumSameSecret(t *testing.T) {
	km := newTestManager(t, 3, 5)

	s1 := secretOf(t, km, 1, 2, 3)
	s2 := secretOf(t, km, 3, 4, 5)
	s3 := secretOf(t, km, 1, 3, 5)
	s4 := secretOf(t, km, 5, 2, 4)

	assert.True(t, s1.Eq(s2) == 1)
	assert.True(t, s1.Eq(s3) == 1)
	assert.True(t, s1.Eq(s4) == 1)

	// the reconstruction matches the published key
	assert.True(t, km.group.ExpG(s1).Eq(km.publicKey) == 1)
}

func TestSetup_Degenerate(t *testing.T) {
	km := newTestManager(t, 1, 1)

	// with t = n = 1 the polynomial is constant, so the single share is the secret
	m, ok := km.Member(1)
	require.True(t, ok)
	assert.True(t, km.group.ExpG(m.Share).Eq(km.publicKey) == 1)

	sig, err := km.Sign([]byte("solo"), []party.ID{1})
	require.NoError(t, err)
	assert.True(t, km.Verify([]byte("solo"), sig))
}

func TestAddMember(t *testing.T) {
	km := newTestManager(t, 3, 5)
	before := secretOf(t, km, 1, 2, 3)

	m, err := km.AddMember(6)
	require.NoError(t, err)
	assert.Equal(t, party.ID(6), m.ID)
	assert.True(t, m.Active)
	assert.Equal(t, 6, km.ActiveCount())

	// the new share lies on the same polynomial as everyone else's
	after := secretOf(t, km, 6, 2, 4)
	assert.True(t, before.Eq(after) == 1)

	_, err = km.AddMember(6)
	assert.ErrorIs(t, err, ErrDuplicateMember)

	_, err = km.AddMember(0)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestAddMember_RejectsIDsOutsideField(t *testing.T) {
	// a field small enough that uint32 ids can reach the subgroup order q
	km, err := NewKeyManager(rand.Reader, nil, 2, 3, 22)
	require.NoError(t, err)
	q := km.group.Order().Nat().Big().Uint64()

	// id = q evaluates the sharing polynomial at x ≡ 0, which is the secret
	_, err = km.AddMember(party.ID(q))
	assert.ErrorIs(t, err, ErrInvalidID)

	// id = q + 1 wraps onto the point of member 1, duplicating its share
	_, err = km.AddMember(party.ID(q + 1))
	assert.ErrorIs(t, err, ErrInvalidID)

	// the largest in-field id is fine and lands on the shared polynomial
	m, err := km.AddMember(party.ID(q - 1))
	require.NoError(t, err)
	assert.True(t, km.group.ExpG(m.Share).Eq(m.PublicKey) == 1)
	secret := secretOf(t, km, party.ID(q-1), 2)
	assert.True(t, km.group.ExpG(secret).Eq(km.publicKey) == 1)
}

func TestNewKeyManager_TooManyMembersForField(t *testing.T) {
	// at 16 bits q < 2^15, so 2^15 initial ids cannot all be field points
	_, err := NewKeyManager(rand.Reader, nil, 2, 1<<15, 16)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestRemoveMember(t *testing.T) {
	km := newTestManager(t, 3, 5)
	secret := secretOf(t, km, 1, 2, 3)
	staleShare := km.sharePoint(2)

	require.NoError(t, km.RemoveMember(2))
	assert.Equal(t, 4, km.ActiveCount())

	m, ok := km.Member(2)
	require.True(t, ok, "removed members stay registered for audit")
	assert.False(t, m.Active)

	// surviving members were reshared onto a new polynomial with the same secret
	current := secretOf(t, km, 1, 3, 4)
	assert.True(t, secret.Eq(current) == 1)

	// the departing member's old share does not lie on the new polynomial:
	// mixing it into a quorum diverges from the secret
	stale, err := polynomial.Interpolate([]polynomial.Point{
		staleShare,
		km.sharePoint(3),
		km.sharePoint(4),
	}, km.group.Order())
	require.NoError(t, err)
	assert.True(t, stale.Constant().Eq(secret) != 1)

	// removing again, or removing an unknown id, fails
	assert.ErrorIs(t, km.RemoveMember(2), ErrUnknownMember)
	assert.ErrorIs(t, km.RemoveMember(42), ErrUnknownMember)
}

func TestRemoveMember_KeepsQuorum(t *testing.T) {
	km := newTestManager(t, 3, 3)

	// removing anyone would leave only 2 shares for a threshold of 3
	err := km.RemoveMember(1)
	assert.ErrorIs(t, err, ErrInsufficientQuorum)
	assert.Equal(t, 3, km.ActiveCount())
}

func TestAddMember_AfterRemove(t *testing.T) {
	km := newTestManager(t, 2, 4)
	require.NoError(t, km.RemoveMember(3))

	// a removed id stays taken
	_, err := km.AddMember(3)
	assert.ErrorIs(t, err, ErrDuplicateMember)

	m, err := km.AddMember(7)
	require.NoError(t, err)

	assert.True(t, km.group.ExpG(m.Share).Eq(m.PublicKey) == 1)
	secret := secretOf(t, km, 7, 1)
	assert.True(t, km.group.ExpG(secret).Eq(km.publicKey) == 1)
}

func TestMember_ReturnsCopies(t *testing.T) {
	km := newTestManager(t, 2, 3)

	m, ok := km.Member(1)
	require.True(t, ok)
	m.Share.SetUint64(0)

	again, _ := km.Member(1)
	assert.True(t, again.Share.Eq(new(saferith.Nat).SetUint64(0)) != 1,
		"mutating a returned Member must not reach the registry")
}

func TestKeyManager_Concurrency(t *testing.T) {
	km := newTestManager(t, 2, 5)
	message := []byte("concurrent checkpoint")

	var g errgroup.Group
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			for j := 0; j < 10; j++ {
				if sig, err := km.Sign(message, []party.ID{1, 2}); err == nil {
					if !km.Verify(message, sig) {
						return assert.AnError
					}
				}
			}
			return nil
		})
	}
	for i := 0; i < 4; i++ {
		id := party.ID(10 + i)
		g.Go(func() error {
			// churn; failures from racing removals are fine
			if _, err := km.AddMember(id); err != nil {
				return err
			}
			_ = km.RemoveMember(id)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// the registry must be consistent afterwards: any current quorum still
	// reconstructs the secret behind the fixed public key
	active := make([]party.ID, 0)
	for _, id := range km.MemberIDs() {
		if m, _ := km.Member(id); m.Active {
			active = append(active, id)
		}
	}
	require.GreaterOrEqual(t, len(active), km.Threshold())
	secret := secretOf(t, km, active[:km.Threshold()]...)
	assert.True(t, km.group.ExpG(secret).Eq(km.publicKey) == 1)
}
