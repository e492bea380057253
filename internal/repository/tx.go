package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxRunner opens a unit of work. Every repository *Tx method called with the
// tx handed to fn commits or rolls back together.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTxRunner struct{ db *gorm.DB }

func NewTxRunner(db *gorm.DB) TxRunner { return &gormTxRunner{db: db} }

// RunInTx executes fn inside a GORM transaction. A returned error or a panic
// rolls the transaction back.
func (r *gormTxRunner) RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
