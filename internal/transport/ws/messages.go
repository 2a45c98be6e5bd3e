package ws

import (
	"encoding/json"
	"fmt"

	"github.com/cwrk-planet/relay-service/internal/domain"
)

// Inbound frame types.
const (
	TypeJoinRoom = "join-room"
	TypeChat     = "chat"
)

// Outbound frame types.
const (
	TypeSystem = "system"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

const (
	msgInvalidFormat = "Invalid message format"
	msgRoomNotFound  = "Room does not exist"
	msgJoined        = "Joined room successfully"
	msgRateLimited   = "Rate limit exceeded"
	joinNoticeFmt    = "%s has joined the room"
)

// Frame is the client -> server envelope. Fields not used by a type are ignored.
type Frame struct {
	Type     string `json:"type"`
	RoomName string `json:"roomName"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// StatusFrame is a direct acknowledgement or error sent to one connection.
type StatusFrame struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type SystemFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ChatFrame struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// parseFrame reads the type first and decodes the rest only for supported
// types, so a frame of an unknown type is ignored whatever else it carries.
func parseFrame(data []byte) (Frame, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", domain.ErrMalformedFrame, err)
	}
	if env.Type != TypeJoinRoom && env.Type != TypeChat {
		return Frame{Type: env.Type}, nil
	}

	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", domain.ErrMalformedFrame, err)
	}
	return f, nil
}

func joinNotice(username string) SystemFrame {
	return SystemFrame{Type: TypeSystem, Message: fmt.Sprintf(joinNoticeFmt, username)}
}

func encode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// only plain structs of strings are encoded here
		panic(fmt.Sprintf("ws: encode %T: %v", v, err))
	}
	return b
}
