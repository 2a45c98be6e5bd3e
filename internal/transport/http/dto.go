package http

import "time"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

type CreateRoomRequest struct {
	RoomName string `json:"roomName"`
}

type CreateRoomResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	RoomName string `json:"roomName"`
}

type JoinRoomRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type JoinRoomResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	RoomID  string `json:"roomId"`
}

type RoomItem struct {
	RoomName  string    `json:"roomName"`
	Creator   string    `json:"creator"`
	Members   int       `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
}
