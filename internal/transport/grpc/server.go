package grpcx

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cwrk-planet/relay-service/internal/domain"
	"github.com/cwrk-planet/relay-service/internal/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "relay.v1.RoomService"

	mdAuthorization = "authorization"
)

// RoomServiceServer is the room-management API exposed over gRPC. Messages
// are protobuf well-known types, so no generated code is needed.
type RoomServiceServer interface {
	CreateRoom(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
	ListRooms(ctx context.Context, in *emptypb.Empty) (*structpb.ListValue, error)
	GetRoom(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
}

type Authenticator interface {
	Authenticate(token string) (string, error)
}

type Server struct {
	roomSvc *service.RoomService
	auth    Authenticator
}

func NewServer(roomSvc *service.RoomService, auth Authenticator) *Server {
	return &Server{
		roomSvc: roomSvc,
		auth:    auth,
	}
}

// Register installs the room service and a health service reporting it as
// serving.
func Register(grpcServer *grpc.Server, s RoomServiceServer) *health.Server {
	grpcServer.RegisterService(&ServiceDesc, s)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)
	return hs
}

// -------- helpers --------

func (s *Server) userFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing metadata")
	}
	// authorization: Bearer <access_token>
	auth := first(md.Get(mdAuthorization))
	if auth == "" {
		return "", status.Error(codes.Unauthenticated, "Authorization header missing")
	}
	if !strings.HasPrefix(strings.ToLower(auth), "bearer ") || len(auth) <= 7 {
		return "", status.Error(codes.Unauthenticated, "Invalid or expired token")
	}

	username, err := s.auth.Authenticate(strings.TrimSpace(auth[7:]))
	if err != nil {
		return "", status.Error(codes.Unauthenticated, "Invalid or expired token")
	}
	return username, nil
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}

	return ss[0]
}

func mapRoom(r domain.RoomInfo) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"roomName":  r.Name,
		"creator":   r.Creator,
		"members":   r.Members,
		"createdAt": r.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return status.Error(codes.NotFound, "Room does not exist")
	case errors.Is(err, domain.ErrRoomAlreadyExists):
		return status.Error(codes.AlreadyExists, "RoomName already exists")
	case errors.Is(err, domain.ErrInvalidRoomName):
		return status.Error(codes.InvalidArgument, "roomName is required")
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// -------- methods --------

func (s *Server) CreateRoom(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	username, err := s.userFromMD(ctx)
	if err != nil {
		return nil, err
	}
	room, err := s.roomSvc.CreateRoom(ctx, in.GetValue(), username)
	if err != nil {
		return nil, mapErr(err)
	}

	out, err := mapRoom(domain.RoomInfo{Room: room})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *Server) ListRooms(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	if _, err := s.userFromMD(ctx); err != nil {
		return nil, err
	}

	names := s.roomSvc.ListRooms(ctx)
	items := make([]any, 0, len(names))
	for _, n := range names {
		items = append(items, n)
	}
	out, err := structpb.NewList(items)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return out, nil
}

func (s *Server) GetRoom(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if _, err := s.userFromMD(ctx); err != nil {
		return nil, err
	}
	info, err := s.roomSvc.GetRoom(ctx, in.GetValue())
	if err != nil {
		return nil, mapErr(err)
	}

	out, err := mapRoom(info)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
