package dbmetrics

import "context"

type ctxKey int

const txCtxKey ctxKey = iota

// WithExecutor кладет активную транзакцию в context
// Используется transaction manager'ом; репозитории достают её через GetExecutor
func WithExecutor(ctx context.Context, tx TxExecutor) context.Context {
	return context.WithValue(ctx, txCtxKey, tx)
}

// GetExecutor возвращает исполнителя запросов из context
// Если в context есть активная транзакция - возвращает её, иначе fallback
func GetExecutor(ctx context.Context, fallback DBExecutor) DBExecutor {
	if tx, ok := ctx.Value(txCtxKey).(TxExecutor); ok {
		return tx
	}
	return fallback
}

// IsInTransaction возвращает true, если в context есть активная транзакция
func IsInTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txCtxKey).(TxExecutor)
	return ok
}
