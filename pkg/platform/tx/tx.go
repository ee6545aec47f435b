// Package tx carries a SQL transaction in context so a store that normally
// writes through its own *sql.DB can join a transaction opened by another
// store. The letter workflow uses it to commit a request transition and its
// audit event as one unit.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

// With returns a context carrying txn. A nil txn leaves ctx unchanged.
func With(ctx context.Context, txn *sql.Tx) context.Context {
	if txn == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, txn)
}

// From reports the transaction carried by ctx, if any.
func From(ctx context.Context) (*sql.Tx, bool) {
	txn, ok := ctx.Value(ctxKey{}).(*sql.Tx)
	return txn, ok
}
