package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassifiers(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("get board: %w", pgx.ErrNoRows)))
	assert.False(t, IsNotFound(errors.New("boom")))

	dup := &pgconn.PgError{Code: "23505"}
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", dup)))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "40001"}))
}

func TestReadyCheckWithoutPool(t *testing.T) {
	assert.Error(t, ReadyCheck(nil)(context.Background()))
}
