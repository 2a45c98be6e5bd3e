// Package registry keeps the in-memory room table and the live connections
// joined to each room.
package registry

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cwrk-planet/relay-service/internal/domain"
)

// Conn is a live connection that can be registered as a room member.
type Conn interface {
	ID() string
	Send(frame []byte) error
	Closed() bool
}

type room struct {
	domain.Room

	mu      sync.Mutex
	members map[string]Conn // connID -> conn
}

// Registry maps room names to rooms. The map itself is guarded by mu; every
// room guards its own member set so joins to different rooms do not contend.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room

	now func() time.Time
}

func New() *Registry {
	return &Registry{
		rooms: make(map[string]*room),
		now:   time.Now,
	}
}

func (r *Registry) CreateRoom(name, creator string) (domain.Room, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Room{}, domain.ErrInvalidRoomName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[name]; ok {
		return domain.Room{}, domain.ErrRoomAlreadyExists
	}
	rm := &room{
		Room: domain.Room{
			Name:      name,
			Creator:   creator,
			CreatedAt: r.now(),
		},
		members: make(map[string]Conn),
	}
	r.rooms[name] = rm

	return rm.Room, nil
}

// ListRoomNames returns a sorted snapshot of all room names.
func (r *Registry) ListRoomNames() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.rooms))
	for name := range r.rooms {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

func (r *Registry) Exists(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

func (r *Registry) Get(name string) (domain.RoomInfo, error) {
	rm, ok := r.lookup(name)
	if !ok {
		return domain.RoomInfo{}, domain.ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	return domain.RoomInfo{Room: rm.Room, Members: len(rm.members)}, nil
}

// AddMember registers c in the named room. Adding the same connection twice
// is a no-op.
func (r *Registry) AddMember(name string, c Conn) error {
	rm, ok := r.lookup(name)
	if !ok {
		return domain.ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if c.Closed() {
		return domain.ErrConnClosed
	}
	rm.members[c.ID()] = c

	return nil
}

// RemoveMember drops c from every room it belongs to. Safe to call for a
// connection that never joined anything.
func (r *Registry) RemoveMember(c Conn) {
	r.mu.RLock()
	rooms := make([]*room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm)
	}
	r.mu.RUnlock()

	id := c.ID()
	for _, rm := range rooms {
		rm.mu.Lock()
		delete(rm.members, id)
		rm.mu.Unlock()
	}
}

// Members returns a snapshot of the room's member set taken under the room lock.
func (r *Registry) Members(name string) ([]Conn, error) {
	rm, ok := r.lookup(name)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	out := make([]Conn, 0, len(rm.members))
	for _, c := range rm.members {
		out = append(out, c)
	}

	return out, nil
}

func (r *Registry) MemberCount(name string) (int, error) {
	info, err := r.Get(name)
	if err != nil {
		return 0, err
	}
	return info.Members, nil
}

// RoomsOf lists the rooms c is currently a member of.
func (r *Registry) RoomsOf(c Conn) []string {
	r.mu.RLock()
	rooms := make([]*room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm)
	}
	r.mu.RUnlock()

	id := c.ID()
	var names []string
	for _, rm := range rooms {
		rm.mu.Lock()
		if _, ok := rm.members[id]; ok {
			names = append(names, rm.Name)
		}
		rm.mu.Unlock()
	}
	sort.Strings(names)

	return names
}

func (r *Registry) lookup(name string) (*room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[name]
	return rm, ok
}
