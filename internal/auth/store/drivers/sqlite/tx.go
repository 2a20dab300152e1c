package sqlite

import (
	"context"
	"database/sql"

	"github.com/logiscore/authcore/internal/auth/store"
	"github.com/logiscore/authcore/internal/auth/store/drivers/sqlite/gen"
)

type txStore struct {
	tx *sql.Tx
	q  *gen.Queries
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx, q: gen.New(tx)}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the outer Store owns the connection pool.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(context.Context) error { return nil }

func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, sql.ErrTxDone }

func (t *txStore) WithTx(context.Context, func(tx store.Tx) error) error { return sql.ErrTxDone }

// ApplyMigrations is a no-op; migrations run before any transaction.
func (t *txStore) ApplyMigrations() error { return nil }

func (t *txStore) Accounts() store.Accounts                   { return &accountsRepo{q: t.q} }
func (t *txStore) VerificationCodes() store.VerificationCodes { return &verificationCodesRepo{q: t.q} }
func (t *txStore) VerificationAttempts() store.VerificationAttempts {
	return &verificationAttemptsRepo{q: t.q}
}
