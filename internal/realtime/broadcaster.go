package realtime

import (
	"errors"
	"log"
	"sync"
)

var (
	// ErrAlreadyExists is returned by Add when the participant key is taken
	// and overwrite was not requested.
	ErrAlreadyExists = errors.New("participant already exists")

	// ErrNotFound is returned by Remove for an absent participant key.
	// Callers treat it as a no-op outcome; a connection's close callback may
	// race with an explicit remove.
	ErrNotFound = errors.New("participant not found")
)

// Member is the send side of a connection as seen by a Broadcaster.
type Member interface {
	SendText(text string) error
	Open() bool
}

// Broadcaster owns the live membership of one room and fans messages out to
// every open member. Membership is keyed by participant, unique within the
// room. All mutation is serialized by the broadcaster's own lock; unrelated
// rooms never block each other.
type Broadcaster struct {
	room string

	mu      sync.RWMutex
	members map[string]Member
}

// NewBroadcaster creates an empty broadcaster for the given room key.
func NewBroadcaster(room string) *Broadcaster {
	return &Broadcaster{
		room:    room,
		members: make(map[string]Member),
	}
}

// Room returns the room key this broadcaster serves.
func (b *Broadcaster) Room() string {
	return b.room
}

// Add registers m under key. If the key is already present and overwrite is
// false, Add returns ErrAlreadyExists and leaves the membership untouched.
// With overwrite, the previous member is displaced but not closed; a caller
// that wants single-session semantics closes the old connection itself.
func (b *Broadcaster) Add(key string, m Member, overwrite bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.members[key]; exists && !overwrite {
		return ErrAlreadyExists
	}
	b.members[key] = m
	return nil
}

// Remove deletes the member registered under key.
func (b *Broadcaster) Remove(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.members[key]; !exists {
		return ErrNotFound
	}
	delete(b.members, key)
	return nil
}

// Get returns the member currently registered under key.
func (b *Broadcaster) Get(key string) (Member, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m, ok := b.members[key]
	return m, ok
}

// Len returns the current membership size.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.members)
}

// Broadcast sends text to every member whose connection is open, best
// effort. The membership is snapshotted under the lock and the sends happen
// outside it, so a slow peer never stalls membership changes. Closed members
// are skipped; a failed send is logged and does not abort delivery to the
// remaining members.
func (b *Broadcaster) Broadcast(text string) {
	b.mu.RLock()
	snapshot := make(map[string]Member, len(b.members))
	for key, m := range b.members {
		snapshot[key] = m
	}
	b.mu.RUnlock()

	for key, m := range snapshot {
		if !m.Open() {
			continue
		}
		if err := m.SendText(text); err != nil {
			log.Printf("Broadcast to %q in room %q failed: %v", key, b.room, err)
		}
	}
}
