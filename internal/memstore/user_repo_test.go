package memstore

import (
	"context"
	"testing"

	"github.com/cwrk-planet/relay-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	_, err := repo.GetByUsername(ctx, "alice")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	u := &domain.User{Username: "alice", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, int64(1), u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	require.ErrorIs(t, repo.Create(ctx, &domain.User{Username: "alice"}), domain.ErrUserExists)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "h", got.PasswordHash)
}
