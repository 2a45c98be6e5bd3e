package service

import (
	"context"
	"testing"
	"time"

	"github.com/cwrk-planet/relay-service/internal/domain"
	"github.com/cwrk-planet/relay-service/internal/memstore"
	"github.com/cwrk-planet/relay-service/internal/registry"
	"github.com/cwrk-planet/relay-service/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomService(t *testing.T) {
	ctx := context.Background()
	svc := NewRoomService(registry.New())

	room, err := svc.CreateRoom(ctx, "lobby", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", room.Creator)

	_, err = svc.CreateRoom(ctx, "lobby", "bob")
	require.ErrorIs(t, err, domain.ErrRoomAlreadyExists)

	_, err = svc.CreateRoom(ctx, "", "bob")
	require.ErrorIs(t, err, domain.ErrInvalidRoomName)

	assert.Equal(t, []string{"lobby"}, svc.ListRooms(ctx))

	info, err := svc.GetRoom(ctx, "lobby")
	require.NoError(t, err)
	assert.Zero(t, info.Members)

	require.NoError(t, svc.JoinRoom(ctx, "lobby", "bob"))
	require.ErrorIs(t, svc.JoinRoom(ctx, "ghost", "bob"), domain.ErrRoomNotFound)
}

func newAuth() *AuthService {
	signer := security.NewJWTSigner("secret", "relay", time.Hour, 0)
	return NewAuthService(memstore.NewUserRepository(), signer, &security.BcryptConfig{Cost: 4})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	svc := newAuth()

	token, err := svc.Login(ctx, "alice", "password1")
	require.NoError(t, err)

	name, err := svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	t.Run("returning user", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice", "password1")
		assert.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice", "password2")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Login(ctx, " ", "password1")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("short password on registration", func(t *testing.T) {
		_, err := svc.Login(ctx, "bob", "abc")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestAuthService_AuthenticateRejectsGarbage(t *testing.T) {
	_, err := newAuth().Authenticate("garbage")
	assert.ErrorIs(t, err, security.ErrInvalidToken)
}
