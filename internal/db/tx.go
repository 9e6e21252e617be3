package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoUnitOfWork is returned when a repository is called outside a unit of
// work. Calling convention misuse, not a runtime condition to recover from.
var ErrNoUnitOfWork = errors.New("no unit of work in context")

type uowKey struct{}

// unitOfWork carries the transaction plus the callbacks to invoke after a
// successful commit.
type unitOfWork struct {
	tx         *sql.Tx
	postCommit []func(context.Context)
}

// WithQuerier injects an explicit querier into the context. Intended for
// tests that want repository calls to run against a bare handle or a fake.
func WithQuerier(ctx context.Context, q Querier) context.Context {
	return context.WithValue(ctx, uowKey{}, q)
}

// FromContext returns the querier of the surrounding unit of work.
func FromContext(ctx context.Context) (Querier, error) {
	switch v := ctx.Value(uowKey{}).(type) {
	case *unitOfWork:
		return v.tx, nil
	case Querier:
		return v, nil
	default:
		return nil, ErrNoUnitOfWork
	}
}

// OnCommit registers fn to run after the surrounding unit of work commits.
// Outside a unit of work (tests using WithQuerier) fn runs immediately.
func OnCommit(ctx context.Context, fn func(context.Context)) {
	if uow, ok := ctx.Value(uowKey{}).(*unitOfWork); ok {
		uow.postCommit = append(uow.postCommit, fn)
		return
	}
	fn(ctx)
}

// RunInUnitOfWork executes fn inside one transaction. It commits when fn
// returns nil and rolls back everything issued so far when fn returns an
// error or panics; post-commit callbacks run only after a successful commit.
func (p *Pool) RunInUnitOfWork(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting unit of work: %w", err)
	}

	uow := &unitOfWork{tx: tx}
	done := false
	defer func() {
		if !done {
			_ = tx.Rollback()
		}
	}()

	if err := fn(context.WithValue(ctx, uowKey{}, uow)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing unit of work: %w", err)
	}
	done = true

	for _, cb := range uow.postCommit {
		cb(ctx)
	}
	return nil
}
