package registry

import (
	"errors"
	"sync"

	"github.com/immxrtalbeast/peercall/internal/domain"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateUser  = errors.New("user already registered")
	ErrNameRequired   = errors.New("name is required")
	ErrConnectionDead = errors.New("connection is not draining events")
)

// Registry owns the set of connected users and the call pairing table. One
// lock guards both maps so membership changes, pair writes and roster
// snapshots never observe each other half done.
type Registry struct {
	mu    sync.RWMutex
	users map[string]*domain.User
	pairs map[string]string
}

func New() *Registry {
	return &Registry{
		users: make(map[string]*domain.User),
		pairs: make(map[string]string),
	}
}

func (r *Registry) Add(user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return ErrDuplicateUser
	}

	r.users[user.ID] = user
	return nil
}

// Remove deletes the user and any pairing entries left for it, and closes
// the user's event channel. Safe to call more than once per identity.
func (r *Registry) Remove(id string) (*domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, false
	}

	delete(r.users, id)
	if partner, paired := r.pairs[id]; paired {
		delete(r.pairs, id)
		if r.pairs[partner] == id {
			delete(r.pairs, partner)
		}
	}
	user.CloseEvents()
	return user, true
}

func (r *Registry) Get(id string) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	return user, ok
}

func (r *Registry) Rename(id string, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return ErrNameRequired
	}

	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}

	user.Name = name
	return nil
}

// List snapshots the roster. Callers fan the snapshot out without holding
// the lock, so no recipient ever sees a partially updated roster.
func (r *Registry) List() []domain.UserSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.UserSummary, 0, len(r.users))
	for _, user := range r.users {
		result = append(result, user.Summary())
	}
	return result
}

// Send enqueues a message for delivery to one user. The enqueue happens
// under the read lock, so it cannot race the channel close in Remove.
func (r *Registry) Send(id string, msg domain.SignalMessage) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	if !user.EnqueueEvent(msg) {
		return ErrConnectionDead
	}
	return nil
}

// Pair records a symmetric a<->b pairing. Any prior pairing on either side
// is dropped, reverse entries included; the superseded partners are not
// notified. Both identities must still be registered: the membership check
// shares the lock with Remove, so a pairing can never be written against an
// identity whose disconnect cleanup already ran.
func (r *Registry) Pair(a, b string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[a]; !ok {
		return ErrUserNotFound
	}
	if _, ok := r.users[b]; !ok {
		return ErrUserNotFound
	}

	for _, id := range [2]string{a, b} {
		if prev, ok := r.pairs[id]; ok && r.pairs[prev] == id {
			delete(r.pairs, prev)
		}
	}

	r.pairs[a] = b
	r.pairs[b] = a
	return nil
}

func (r *Registry) PartnerOf(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	partner, ok := r.pairs[id]
	return partner, ok
}

// Unpair removes the pairing for id and returns the former partner.
// Unpairing an unpaired identity is a no-op.
func (r *Registry) Unpair(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	partner, ok := r.pairs[id]
	if !ok {
		return "", false
	}

	delete(r.pairs, id)
	if r.pairs[partner] == id {
		delete(r.pairs, partner)
	}
	return partner, true
}
