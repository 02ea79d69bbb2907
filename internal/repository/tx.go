package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cockroachdb/cockroach-go/v2/crdb/crdbsqlx"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Postgres error codes the repositories translate into domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type crdbTxRunner struct {
	db *sqlx.DB
}

// NewTxRunner returns a TxRunner backed by crdbsqlx.ExecuteTx. Toggles take a
// row lock on the counted entity first, so READ COMMITTED is enough to keep the
// edge and its counter in step; serialization failures are still retried.
func NewTxRunner(db *sqlx.DB) TxRunner {
	return &crdbTxRunner{db: db}
}

func (r *crdbTxRunner) RunInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return crdbsqlx.ExecuteTx(ctx, r.db, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
}

func isPQError(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}
