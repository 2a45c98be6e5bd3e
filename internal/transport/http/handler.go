package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/relay-service/internal/domain"
	httpmw "github.com/cwrk-planet/relay-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/relay-service/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

type RoomSvc interface {
	CreateRoom(ctx context.Context, name, creator string) (domain.Room, error)
	ListRooms(ctx context.Context) []string
	GetRoom(ctx context.Context, name string) (domain.RoomInfo, error)
	JoinRoom(ctx context.Context, name, username string) error
}

type AuthSvc interface {
	Login(ctx context.Context, username, password string) (string, error)
	Authenticate(token string) (string, error)
}

type Handler struct {
	roomSvc RoomSvc
	authSvc AuthSvc
}

func NewHandler(room RoomSvc, auth AuthSvc) *Handler {
	return &Handler{
		roomSvc: room,
		authSvc: auth,
	}
}

// POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Failed(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			httputil.Failed(w, http.StatusBadRequest, "Username and password (min 6 chars) are required")
		case errors.Is(err, domain.ErrInvalidCredentials):
			httputil.Failed(w, http.StatusUnauthorized, "Invalid credentials")
		default:
			slog.Error("handler.Login:", slog.Any("err", err))
			httputil.Failed(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	httputil.JSON(w, http.StatusOK, LoginResponse{Status: httputil.StatusSuccess, Token: token})
}

// POST /api/create-room
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Failed(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	creator := httpmw.UsernameFromCtx(r.Context())

	room, err := h.roomSvc.CreateRoom(r.Context(), req.RoomName, creator)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomAlreadyExists):
			// 200 with a failed status, as existing clients expect
			httputil.Failed(w, http.StatusOK, "RoomName already exists")
		case errors.Is(err, domain.ErrInvalidRoomName):
			httputil.Failed(w, http.StatusBadRequest, "roomName is required")
		default:
			slog.Error("handler.CreateRoom:", slog.Any("err", err))
			httputil.Failed(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	slog.Info("room created", "room", room.Name, "creator", room.Creator)
	httputil.JSON(w, http.StatusCreated, CreateRoomResponse{
		Status:   httputil.StatusSuccess,
		Message:  "Room created successfully",
		RoomName: room.Name,
	})
}

// GET /api/rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.roomSvc.ListRooms(r.Context()))
}

// GET /api/rooms/{name}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	info, err := h.roomSvc.GetRoom(r.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			httputil.Failed(w, http.StatusNotFound, "Room does not exist")
			return
		}
		slog.Error("handler.GetRoom:", slog.Any("err", err))
		httputil.Failed(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httputil.JSON(w, http.StatusOK, RoomItem{
		RoomName:  info.Name,
		Creator:   info.Creator,
		Members:   info.Members,
		CreatedAt: info.CreatedAt,
	})
}

// POST /api/join-room
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Failed(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.roomSvc.JoinRoom(r.Context(), req.RoomID, req.Username); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) || errors.Is(err, domain.ErrInvalidRoomName) {
			httputil.Failed(w, http.StatusOK, "Room does not exist")
			return
		}
		slog.Error("handler.JoinRoom:", slog.Any("err", err))
		httputil.Failed(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httputil.JSON(w, http.StatusOK, JoinRoomResponse{
		Status:  httputil.StatusSuccess,
		Message: "Joined room successfully",
		RoomID:  req.RoomID,
	})
}
