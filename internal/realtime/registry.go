package realtime

import "sync"

// Registry maps room keys to their broadcasters, creating them lazily on
// first use. At most one Broadcaster exists per room key at any time. A
// registry is an ordinary constructed object handed to the gateway and its
// handlers at startup, so tests can run isolated registries side by side.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Broadcaster
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Broadcaster)}
}

// GetOrCreate returns the broadcaster for room, creating it if absent. Under
// concurrent invocation the first caller wins and the rest receive the
// winner's instance.
//
// Callers that also rely on empty-room reclamation should prefer Join, which
// holds the registry lock across both the lookup and the membership update.
func (r *Registry) GetOrCreate(room string) *Broadcaster {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreate(room)
}

func (r *Registry) getOrCreate(room string) *Broadcaster {
	b, exists := r.rooms[room]
	if !exists {
		b = NewBroadcaster(room)
		r.rooms[room] = b
	}
	return b
}

// Join registers m in room under key, creating the broadcaster if needed.
// The registry lock is held across the create and the add, so a concurrent
// Leave cannot reclaim the room in between.
func (r *Registry) Join(room, key string, m Member, overwrite bool) (*Broadcaster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.getOrCreate(room)
	if err := b.Add(key, m, overwrite); err != nil {
		if b.Len() == 0 {
			delete(r.rooms, room)
		}
		return nil, err
	}
	return b, nil
}

// Leave removes key from room and deletes the broadcaster once its
// membership drops to zero, so idle rooms are reclaimed without a sweep.
//
// When m is non-nil, the member is removed only while it is still the one
// registered under key; a connection that was displaced by a reconnect must
// not evict its successor when it finally closes. Returns ErrNotFound when
// the room, the key, or the member identity is absent — callers treat that
// as a no-op.
func (r *Registry) Leave(room, key string, m Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, exists := r.rooms[room]
	if !exists {
		return ErrNotFound
	}
	if m != nil {
		if current, ok := b.Get(key); !ok || current != m {
			return ErrNotFound
		}
	}
	if err := b.Remove(key); err != nil {
		return err
	}
	if b.Len() == 0 {
		delete(r.rooms, room)
	}
	return nil
}

// Has reports whether a broadcaster currently exists for room.
func (r *Registry) Has(room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.rooms[room]
	return exists
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// Rooms returns a snapshot of room keys to membership sizes.
func (r *Registry) Rooms() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int, len(r.rooms))
	for room, b := range r.rooms {
		counts[room] = b.Len()
	}
	return counts
}
