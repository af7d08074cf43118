package registry

import (
	"sync"
	"testing"

	"github.com/immxrtalbeast/peercall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(name string) *domain.User {
	return domain.NewUser(name, 8)
}

func TestAddAndGet(t *testing.T) {
	reg := New()
	alice := newUser("alice")

	require.NoError(t, reg.Add(alice))

	got, ok := reg.Get(alice.ID)
	require.True(t, ok)
	assert.Equal(t, alice, got)

	require.ErrorIs(t, reg.Add(alice), ErrDuplicateUser)

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	reg := New()
	alice := newUser("alice")
	require.NoError(t, reg.Add(alice))

	removed, ok := reg.Remove(alice.ID)
	require.True(t, ok)
	assert.Equal(t, alice, removed)

	_, ok = reg.Get(alice.ID)
	assert.False(t, ok)

	// events channel is closed so the write pump terminates
	_, open := <-alice.Events
	assert.False(t, open)

	_, ok = reg.Remove(alice.ID)
	assert.False(t, ok, "remove must be idempotent")
}

func TestRemoveClearsPairing(t *testing.T) {
	reg := New()
	alice, bob := newUser("alice"), newUser("bob")
	require.NoError(t, reg.Add(alice))
	require.NoError(t, reg.Add(bob))

	require.NoError(t, reg.Pair(alice.ID, bob.ID))

	_, ok := reg.Remove(alice.ID)
	require.True(t, ok)

	_, paired := reg.PartnerOf(alice.ID)
	assert.False(t, paired)
	_, paired = reg.PartnerOf(bob.ID)
	assert.False(t, paired)
}

func TestRename(t *testing.T) {
	reg := New()
	alice := newUser("alice")
	require.NoError(t, reg.Add(alice))

	require.ErrorIs(t, reg.Rename(alice.ID, ""), ErrNameRequired)
	require.ErrorIs(t, reg.Rename("missing", "name"), ErrUserNotFound)

	require.NoError(t, reg.Rename(alice.ID, "alicia"))
	list := reg.List()
	require.Len(t, list, 1)
	assert.Equal(t, "alicia", list[0].Name)
}

func TestListSnapshot(t *testing.T) {
	reg := New()
	alice, bob := newUser("alice"), newUser("bob")
	require.NoError(t, reg.Add(alice))
	require.NoError(t, reg.Add(bob))

	list := reg.List()
	require.Len(t, list, 2)

	ids := map[string]bool{}
	for _, u := range list {
		ids[u.ID] = true
	}
	assert.True(t, ids[alice.ID])
	assert.True(t, ids[bob.ID])
}

func TestSend(t *testing.T) {
	reg := New()
	alice := domain.NewUser("alice", 1)
	require.NoError(t, reg.Add(alice))

	require.ErrorIs(t, reg.Send("missing", domain.SignalMessage{Type: domain.TypeError}), ErrUserNotFound)

	require.NoError(t, reg.Send(alice.ID, domain.SignalMessage{Type: domain.TypeSelfID, UserID: alice.ID}))
	got := <-alice.Events
	assert.Equal(t, alice.ID, got.UserID)

	require.NoError(t, reg.Send(alice.ID, domain.SignalMessage{Type: domain.TypeSelfID}))
	require.ErrorIs(t, reg.Send(alice.ID, domain.SignalMessage{Type: domain.TypeSelfID}), ErrConnectionDead)
}

func TestPairSymmetry(t *testing.T) {
	reg := New()
	alice, bob := newUser("alice"), newUser("bob")
	require.NoError(t, reg.Add(alice))
	require.NoError(t, reg.Add(bob))

	require.NoError(t, reg.Pair(alice.ID, bob.ID))

	partner, ok := reg.PartnerOf(alice.ID)
	require.True(t, ok)
	assert.Equal(t, bob.ID, partner)

	partner, ok = reg.PartnerOf(bob.ID)
	require.True(t, ok)
	assert.Equal(t, alice.ID, partner)
}

func TestPairOverwritesBothSides(t *testing.T) {
	reg := New()
	alice, bob, carol := newUser("alice"), newUser("bob"), newUser("carol")
	require.NoError(t, reg.Add(alice))
	require.NoError(t, reg.Add(bob))
	require.NoError(t, reg.Add(carol))

	require.NoError(t, reg.Pair(alice.ID, bob.ID))
	require.NoError(t, reg.Pair(alice.ID, carol.ID))

	partner, ok := reg.PartnerOf(alice.ID)
	require.True(t, ok)
	assert.Equal(t, carol.ID, partner)

	partner, ok = reg.PartnerOf(carol.ID)
	require.True(t, ok)
	assert.Equal(t, alice.ID, partner)

	// the superseded partner is dropped, not left pointing at alice
	_, ok = reg.PartnerOf(bob.ID)
	assert.False(t, ok)
}

func TestPairRequiresRegisteredIdentities(t *testing.T) {
	reg := New()
	alice, bob := newUser("alice"), newUser("bob")
	require.NoError(t, reg.Add(alice))
	require.NoError(t, reg.Add(bob))

	_, ok := reg.Remove(bob.ID)
	require.True(t, ok)

	// pairing against a departed identity must fail, not dangle
	require.ErrorIs(t, reg.Pair(alice.ID, bob.ID), ErrUserNotFound)
	require.ErrorIs(t, reg.Pair(bob.ID, alice.ID), ErrUserNotFound)

	_, paired := reg.PartnerOf(alice.ID)
	assert.False(t, paired)
	_, paired = reg.PartnerOf(bob.ID)
	assert.False(t, paired)
}

func TestUnpair(t *testing.T) {
	reg := New()
	alice, bob := newUser("alice"), newUser("bob")
	require.NoError(t, reg.Add(alice))
	require.NoError(t, reg.Add(bob))

	require.NoError(t, reg.Pair(alice.ID, bob.ID))

	partner, ok := reg.Unpair(alice.ID)
	require.True(t, ok)
	assert.Equal(t, bob.ID, partner)

	_, ok = reg.PartnerOf(bob.ID)
	assert.False(t, ok)

	_, ok = reg.Unpair(alice.ID)
	assert.False(t, ok, "unpairing an unpaired identity is a no-op")
}

// TestConcurrentInvariants hammers the registry from many goroutines while a
// checker continuously verifies, under the registry's own lock, that the
// pairing table stays symmetric and only ever references registered users.
func TestConcurrentInvariants(t *testing.T) {
	reg := New()

	stop := make(chan struct{})
	var checker sync.WaitGroup
	checker.Add(1)
	go func() {
		defer checker.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			reg.mu.RLock()
			for a, b := range reg.pairs {
				if reg.pairs[b] != a {
					t.Errorf("asymmetric pairing: %s->%s but %s->%s", a, b, b, reg.pairs[b])
				}
				if _, ok := reg.users[a]; !ok {
					t.Errorf("paired identity %s is not registered", a)
				}
			}
			reg.mu.RUnlock()
		}
	}()

	const workers = 8
	const rounds = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				user := newUser("user")
				if err := reg.Add(user); err != nil {
					t.Errorf("add: %v", err)
					return
				}

				for _, other := range reg.List() {
					if other.ID != user.ID {
						// the peer may be mid-removal; that is the point
						_ = reg.Pair(user.ID, other.ID)
						break
					}
				}

				if i%3 == 0 {
					reg.Unpair(user.ID)
				}
				reg.Remove(user.ID)
			}
		}()
	}

	wg.Wait()
	close(stop)
	checker.Wait()

	assert.Empty(t, reg.List())
	reg.mu.RLock()
	assert.Empty(t, reg.pairs)
	reg.mu.RUnlock()
}
