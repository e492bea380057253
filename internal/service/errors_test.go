package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := validationf("quantity must be positive")
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "quantity must be positive", err.Error())

	wrapped := fmt.Errorf("post sale: %w", insufficientStock("Aspirin", 5, 2))
	assert.ErrorIs(t, wrapped, ErrInsufficientStock)
	assert.Equal(t, KindInsufficientStock, KindOf(wrapped))
}

func TestStorageErr_Classifies(t *testing.T) {
	assert.ErrorIs(t, storageErr("lock", &pgconn.PgError{Code: "40P01"}), ErrConcurrencyConflict)
	assert.ErrorIs(t, storageErr("find", gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, storageErr("insert", errors.New("connection reset")), ErrPersistence)
	assert.Nil(t, storageErr("noop", nil))

	typed := validationf("bad")
	assert.Same(t, typed, storageErr("op", typed))
}

func TestKindOf_Untyped(t *testing.T) {
	assert.Equal(t, KindPersistence, KindOf(errors.New("x")))
}
