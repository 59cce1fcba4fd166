// Package txmanager менеджер транзакций поверх dbmetrics.DB
//
// Транзакция кладется в context через dbmetrics.WithExecutor, репозитории
// автоматически используют её через dbmetrics.GetExecutor. Сериализуемые
// транзакции ретраятся ограниченное число раз при конфликте сериализации.
package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/m04kA/SMC-ResourceService/pkg/dbmetrics"
)

// Количество повторов сериализуемой транзакции при конфликте сериализации
const maxSerializableRetries = 3

var (
	// ErrSerializationFailure возвращается, когда сериализуемая транзакция
	// не смогла закоммититься после всех повторов. Ошибка ретраябельна на стороне клиента
	ErrSerializationFailure = errors.New("txmanager: serialization failure, retry the operation")

	// ErrTxBegin возвращается при ошибке начала транзакции
	ErrTxBegin = errors.New("txmanager: failed to begin transaction")

	// ErrTxCommit возвращается при ошибке коммита транзакции
	ErrTxCommit = errors.New("txmanager: failed to commit transaction")
)

// Коды ошибок PostgreSQL, при которых транзакцию имеет смысл повторить
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// TxBeginner интерфейс для начала транзакций (реализуется dbmetrics.DB)
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error)
}

// TransactionManager менеджер транзакций
type TransactionManager struct {
	db TxBeginner
}

// NewTransactionManager создает новый менеджер транзакций
func NewTransactionManager(db TxBeginner) *TransactionManager {
	return &TransactionManager{db: db}
}

// Do выполняет fn в транзакции с уровнем изоляции по умолчанию (Read Committed)
func (m *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{}, fn)
}

// DoSerializable выполняет fn в сериализуемой транзакции
// При конфликте сериализации (40001) или deadlock (40P01) повторяет транзакцию
// до maxSerializableRetries раз, затем возвращает ErrSerializationFailure
func (m *TransactionManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}

	var lastErr error
	for attempt := 0; attempt < maxSerializableRetries; attempt++ {
		err := m.run(ctx, opts, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%w: %v", ErrSerializationFailure, lastErr)
}

// DoReadOnly выполняет fn в read-only транзакции
func (m *TransactionManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (m *TransactionManager) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTxBegin, err)
	}

	txCtx := dbmetrics.WithExecutor(ctx, tx)

	if err := fn(txCtx); err != nil {
		// Ошибка бизнес-логики важнее ошибки отката
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		if isRetryable(err) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrTxCommit, err)
	}

	return nil
}

// isRetryable проверяет, является ли ошибка конфликтом сериализации или deadlock'ом
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqSerializationFailure || string(pqErr.Code) == pqDeadlockDetected
	}
	return false
}
