package registry

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cwrk-planet/relay-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id     string
	closed atomic.Bool
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: id} }

func (c *fakeConn) ID() string          { return c.id }
func (c *fakeConn) Send(_ []byte) error { return nil }
func (c *fakeConn) Closed() bool        { return c.closed.Load() }

func TestCreateRoom(t *testing.T) {
	r := New()

	t.Run("first create succeeds", func(t *testing.T) {
		rm, err := r.CreateRoom("lobby", "alice")
		require.NoError(t, err)
		assert.Equal(t, "lobby", rm.Name)
		assert.Equal(t, "alice", rm.Creator)
		assert.False(t, rm.CreatedAt.IsZero())
	})

	t.Run("duplicate keeps the first room", func(t *testing.T) {
		_, err := r.CreateRoom("lobby", "bob")
		require.ErrorIs(t, err, domain.ErrRoomAlreadyExists)

		info, err := r.Get("lobby")
		require.NoError(t, err)
		assert.Equal(t, "alice", info.Creator)
	})

	t.Run("names are case sensitive", func(t *testing.T) {
		_, err := r.CreateRoom("Lobby", "bob")
		require.NoError(t, err)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		_, err := r.CreateRoom("  ", "bob")
		require.ErrorIs(t, err, domain.ErrInvalidRoomName)
	})

	assert.Equal(t, []string{"Lobby", "lobby"}, r.ListRoomNames())
}

func TestCreateRoom_ConcurrentSameName(t *testing.T) {
	r := New()

	const n = 50
	var (
		wg      sync.WaitGroup
		created atomic.Int32
		dup     atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.CreateRoom("race", fmt.Sprintf("user-%d", i))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, domain.ErrRoomAlreadyExists):
				dup.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(n-1), dup.Load())
}

func TestExists(t *testing.T) {
	r := New()
	assert.False(t, r.Exists("lobby"))

	_, err := r.CreateRoom("lobby", "alice")
	require.NoError(t, err)
	assert.True(t, r.Exists("lobby"))
}

func TestAddMember(t *testing.T) {
	r := New()
	c := newFakeConn("c1")

	t.Run("unknown room does not mutate anything", func(t *testing.T) {
		err := r.AddMember("ghost", c)
		require.ErrorIs(t, err, domain.ErrRoomNotFound)
		assert.False(t, r.Exists("ghost"))
		assert.Empty(t, r.RoomsOf(c))
	})

	_, err := r.CreateRoom("lobby", "alice")
	require.NoError(t, err)

	t.Run("join is idempotent", func(t *testing.T) {
		require.NoError(t, r.AddMember("lobby", c))
		require.NoError(t, r.AddMember("lobby", c))

		n, err := r.MemberCount("lobby")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("closed connection rejected", func(t *testing.T) {
		dead := newFakeConn("dead")
		dead.closed.Store(true)
		require.ErrorIs(t, r.AddMember("lobby", dead), domain.ErrConnClosed)
	})
}

func TestAddMember_ConcurrentJoinsLoseNothing(t *testing.T) {
	r := New()
	_, err := r.CreateRoom("busy", "alice")
	require.NoError(t, err)

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, r.AddMember("busy", newFakeConn(fmt.Sprintf("c-%d", i))))
		}(i)
	}
	wg.Wait()

	count, err := r.MemberCount("busy")
	require.NoError(t, err)
	assert.Equal(t, n, count)
}

func TestRemoveMember(t *testing.T) {
	r := New()
	for _, name := range []string{"a", "b", "c"} {
		_, err := r.CreateRoom(name, "alice")
		require.NoError(t, err)
	}

	c1 := newFakeConn("c1")
	c2 := newFakeConn("c2")
	require.NoError(t, r.AddMember("a", c1))
	require.NoError(t, r.AddMember("b", c1))
	require.NoError(t, r.AddMember("b", c2))

	assert.Equal(t, []string{"a", "b"}, r.RoomsOf(c1))

	r.RemoveMember(c1)
	assert.Empty(t, r.RoomsOf(c1))
	assert.Equal(t, []string{"b"}, r.RoomsOf(c2))

	// no memberships left: still a no-op
	r.RemoveMember(c1)
	r.RemoveMember(newFakeConn("never-joined"))

	members, err := r.Members("b")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "c2", members[0].ID())
}

func TestMembers_UnknownRoom(t *testing.T) {
	r := New()
	_, err := r.Members("ghost")
	require.ErrorIs(t, err, domain.ErrRoomNotFound)

	_, err = r.Get("ghost")
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
}
