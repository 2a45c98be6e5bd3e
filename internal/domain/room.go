package domain

import "time"

type Room struct {
	Name      string
	Creator   string
	CreatedAt time.Time
}

// RoomInfo is a point-in-time view of a room including its live member count.
type RoomInfo struct {
	Room
	Members int
}
