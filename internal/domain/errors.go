package domain

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrInvalidRoomName   = errors.New("invalid room name")

	ErrMalformedFrame  = errors.New("malformed frame")
	ErrTransportClosed = errors.New("transport closed")
	ErrConnClosed      = errors.New("connection closed")

	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)
