package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxManager hands out database handles bound to a request context and runs
// units of work inside one transaction.
type TxManager interface {
	DB(ctx context.Context) *gorm.DB
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
