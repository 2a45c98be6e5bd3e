package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cwrk-planet/relay-service/internal/domain"
)

// RoomRegistry is what the request layer needs from the room registry.
type RoomRegistry interface {
	CreateRoom(name, creator string) (domain.Room, error)
	ListRoomNames() []string
	Exists(name string) bool
	Get(name string) (domain.RoomInfo, error)
}

type RoomService struct {
	rooms RoomRegistry
}

func NewRoomService(rooms RoomRegistry) *RoomService {
	return &RoomService{rooms: rooms}
}

// CreateRoom registers an empty room owned by creator.
func (s *RoomService) CreateRoom(_ context.Context, name, creator string) (domain.Room, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Room{}, domain.ErrInvalidRoomName
	}
	room, err := s.rooms.CreateRoom(name, creator)
	if err != nil {
		return domain.Room{}, fmt.Errorf("rooms.CreateRoom: %w", err)
	}
	return room, nil
}

// ListRooms returns every known room name.
func (s *RoomService) ListRooms(_ context.Context) []string {
	return s.rooms.ListRoomNames()
}

func (s *RoomService) GetRoom(_ context.Context, name string) (domain.RoomInfo, error) {
	return s.rooms.Get(name)
}

// JoinRoom is the request-layer join. Membership is only ever held by live
// websocket connections, so this call just checks the room is joinable and
// leaves the actual join to the realtime join frame.
func (s *RoomService) JoinRoom(_ context.Context, name, username string) error {
	if strings.TrimSpace(name) == "" {
		return domain.ErrInvalidRoomName
	}
	if !s.rooms.Exists(name) {
		return domain.ErrRoomNotFound
	}
	return nil
}
