package realtime_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jordan-Tam/mini-wiki-sub000/internal/realtime"
)

// fakeMember records what a broadcaster sends to it.
type fakeMember struct {
	mu     sync.Mutex
	closed bool
	fail   bool
	sent   []string
}

func (f *fakeMember) SendText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("peer gone")
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeMember) Open() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeMember) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func TestBroadcasterAdd(t *testing.T) {
	t.Run("duplicate key without overwrite fails", func(t *testing.T) {
		b := realtime.NewBroadcaster("42")
		first := &fakeMember{}
		second := &fakeMember{}

		require.NoError(t, b.Add("alice", first, false))
		err := b.Add("alice", second, false)
		require.ErrorIs(t, err, realtime.ErrAlreadyExists)

		// Membership still maps the key to the first member.
		assert.Equal(t, 1, b.Len())
		current, ok := b.Get("alice")
		require.True(t, ok)
		assert.Same(t, first, current.(*fakeMember))
	})

	t.Run("overwrite replaces without closing the old member", func(t *testing.T) {
		b := realtime.NewBroadcaster("42")
		first := &fakeMember{}
		second := &fakeMember{}

		require.NoError(t, b.Add("alice", first, false))
		require.NoError(t, b.Add("alice", second, true))

		assert.Equal(t, 1, b.Len())
		current, ok := b.Get("alice")
		require.True(t, ok)
		assert.Same(t, second, current.(*fakeMember))
		assert.True(t, first.Open(), "displaced member must not be closed by the broadcaster")
	})
}

func TestBroadcasterRemove(t *testing.T) {
	b := realtime.NewBroadcaster("42")
	require.NoError(t, b.Add("alice", &fakeMember{}, false))

	t.Run("absent key is NotFound and leaves membership alone", func(t *testing.T) {
		err := b.Remove("bob")
		require.ErrorIs(t, err, realtime.ErrNotFound)
		assert.Equal(t, 1, b.Len())
	})

	t.Run("present key is removed", func(t *testing.T) {
		require.NoError(t, b.Remove("alice"))
		assert.Equal(t, 0, b.Len())

		// A racing second remove is tolerated as a no-op outcome.
		require.ErrorIs(t, b.Remove("alice"), realtime.ErrNotFound)
	})
}

func TestBroadcasterBroadcast(t *testing.T) {
	t.Run("skips closed members", func(t *testing.T) {
		b := realtime.NewBroadcaster("42")
		alice := &fakeMember{}
		bob := &fakeMember{}
		carol := &fakeMember{closed: true}

		require.NoError(t, b.Add("alice", alice, false))
		require.NoError(t, b.Add("bob", bob, false))
		require.NoError(t, b.Add("carol", carol, false))

		b.Broadcast("hello")

		assert.Equal(t, []string{"hello"}, alice.received())
		assert.Equal(t, []string{"hello"}, bob.received())
		assert.Empty(t, carol.received())
	})

	t.Run("one failed send does not abort the rest", func(t *testing.T) {
		b := realtime.NewBroadcaster("42")
		flaky := &fakeMember{fail: true}
		alice := &fakeMember{}
		bob := &fakeMember{}

		require.NoError(t, b.Add("flaky", flaky, false))
		require.NoError(t, b.Add("alice", alice, false))
		require.NoError(t, b.Add("bob", bob, false))

		b.Broadcast("hello")

		assert.Equal(t, []string{"hello"}, alice.received())
		assert.Equal(t, []string{"hello"}, bob.received())
	})

	t.Run("broadcast does not mutate membership", func(t *testing.T) {
		b := realtime.NewBroadcaster("42")
		require.NoError(t, b.Add("closed", &fakeMember{closed: true}, false))
		require.NoError(t, b.Add("flaky", &fakeMember{fail: true}, false))

		b.Broadcast("hello")
		assert.Equal(t, 2, b.Len())
	})
}

func TestBroadcasterConcurrentSenders(t *testing.T) {
	b := realtime.NewBroadcaster("42")
	alice := &fakeMember{}
	require.NoError(t, b.Add("alice", alice, false))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Broadcast("msg")
			}
		}()
	}
	wg.Wait()

	assert.Len(t, alice.received(), 8*50)
}
