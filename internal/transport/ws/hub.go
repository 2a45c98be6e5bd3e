package ws

import (
	"log/slog"

	"github.com/cwrk-planet/relay-service/internal/registry"
)

// Rooms is the part of the room registry the hub and the session handler use.
type Rooms interface {
	Exists(name string) bool
	AddMember(name string, c registry.Conn) error
	RemoveMember(c registry.Conn)
	Members(name string) ([]registry.Conn, error)
}

// Hub fans frames out to the members of a room.
type Hub struct {
	rooms Rooms
}

func NewHub(rooms Rooms) *Hub {
	return &Hub{rooms: rooms}
}

// Broadcast queues payload to every open member of roomName and returns how
// many members accepted it. Closed members are skipped; a member whose send
// fails is logged and skipped.
func (h *Hub) Broadcast(roomName string, payload []byte) (int, error) {
	members, err := h.rooms.Members(roomName)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, c := range members {
		if c.Closed() {
			continue
		}
		if err := c.Send(payload); err != nil {
			slog.Debug("ws broadcast send failed", "room", roomName, "conn", c.ID(), "err", err)
			continue
		}
		delivered++
	}

	return delivered, nil
}
