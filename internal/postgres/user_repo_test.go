package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cwrk-planet/relay-service/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapPgError(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505"}
	assert.ErrorIs(t, mapPgError(unique), domain.ErrUserExists)
	assert.ErrorIs(t, mapPgError(fmt.Errorf("insert: %w", unique)), domain.ErrUserExists)

	other := &pgconn.PgError{Code: "42P01"}
	assert.Same(t, other, mapPgError(other))

	plain := errors.New("conn refused")
	assert.Equal(t, plain, mapPgError(plain))
}
