package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"nlnotes/internal/notes/ports/repositories"
	"nlnotes/pkg/logger"
)

const (
	errBeginTx  = "failed to begin transaction"
	errCommitTx = "failed to commit transaction"
)

// UnitOfWork выполняет операции с заметками в транзакции Postgres.
type UnitOfWork struct {
	pool PgxPoolInterface
}

// NewUnitOfWork создает UnitOfWork поверх пула.
func NewUnitOfWork(pool PgxPoolInterface) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

// Do открывает транзакцию, передает fn репозиторий поверх нее и фиксирует
// изменения, если fn не вернула ошибку. Иначе транзакция откатывается.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, notes repositories.NoteRepository) error) (err error) {
	log := logger.Log(ctx).With(zap.String("component", "unit_of_work"))

	tx, err := u.pool.Begin(ctx)
	if err != nil {
		log.Error(ctx, errBeginTx, zap.Error(err))
		return fmt.Errorf("%s: %w", errBeginTx, err)
	}

	defer func() {
		if p := recover(); p != nil {
			rollback(ctx, log, tx)
			panic(p)
		}
		if err != nil {
			rollback(ctx, log, tx)
		}
	}()

	if err = fn(ctx, NewNoteRepository(tx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		log.Error(ctx, errCommitTx, zap.Error(err))
		return fmt.Errorf("%s: %w", errCommitTx, err)
	}

	return nil
}

func rollback(ctx context.Context, log *logger.Logger, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		log.Error(ctx, "failed to rollback transaction", zap.Error(err))
	}
}
