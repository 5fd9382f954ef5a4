package services

import (
	"context"
	"errors"

	"github.com/upb/readers-hub/repositories"
)

// WithTransaction runs fn inside txMgr's transaction. fn receives the
// transaction-scoped context so repositories pick up the open tx.
// Errors that are not already domain errors are reported as storage failures.
func WithTransaction(ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context) error) error {
	err := txMgr.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		return fn(txCtx)
	})
	return classifyTxError(err)
}

// WithTransactionResult is WithTransaction for functions that produce a value.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := txMgr.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		var err error
		result, err = fn(txCtx)
		return err
	})
	if err != nil {
		var zero T
		return zero, classifyTxError(err)
	}
	return result, nil
}

func classifyTxError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return WrapStorage("transaction failed", err)
}
