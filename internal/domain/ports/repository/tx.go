package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes fn inside a database transaction and hands the
// backend-specific handle to repositories through tx.
//
// Repositories MUST accept NoTX (nil) as the non-transactional path.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
	// LockKey takes a transaction-scoped advisory lock on key.
	LockKey(ctx context.Context, tx Tx, key string) error
}
