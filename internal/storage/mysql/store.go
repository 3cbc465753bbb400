package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	driver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	apperrors "staybook/internal/errors"
	"staybook/internal/storage"
)

const (
	errDuplicateEntry   = 1062
	errRowIsReferenced  = 1451
	errNoReferencedRow  = 1452
	errLockWaitTimeout  = 1205
	errDeadlockDetected = 1213
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Options struct {
	TxTimeout        time.Duration
	MaxRetryAttempts int
}

// Store implements storage.Store on MySQL/InnoDB. A Store handed to a
// WithinTx callback is bound to that transaction; ForUpdate reads take
// InnoDB row locks held until commit.
type Store struct {
	db     *sql.DB
	tx     *sql.Tx
	opts   Options
	logger *zap.Logger
}

var _ storage.Store = (*Store)(nil)

func NewStore(db *sql.DB, opts Options, logger *zap.Logger) *Store {
	if opts.TxTimeout <= 0 {
		opts.TxTimeout = 5 * time.Second
	}
	if opts.MaxRetryAttempts < 1 {
		opts.MaxRetryAttempts = 3
	}
	return &Store{db: db, opts: opts, logger: logger}
}

func (s *Store) conn() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *Store) Rooms() storage.RoomRepository {
	return &roomRepository{q: s.conn()}
}

func (s *Store) Bookings() storage.BookingRepository {
	return &bookingRepository{q: s.conn()}
}

func (s *Store) Payments() storage.PaymentRepository {
	return &paymentRepository{q: s.conn()}
}

func (s *Store) Feedbacks() storage.FeedbackRepository {
	return &feedbackRepository{q: s.conn()}
}

// WithinTx runs fn in a REPEATABLE READ transaction bounded by the configured
// timeout. Deadlocks and lock wait timeouts roll back and rerun fn with a
// growing, jittered backoff; when the attempts run out a DeadlockError is
// returned.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx storage.Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}

	maxAttempts := s.opts.MaxRetryAttempts
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := s.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isDeadlockError(err) {
			return err
		}
		if attempt == maxAttempts {
			s.logger.Error("deadlock retries exhausted", zap.Int("attempts", attempt), zap.Error(err))
			break
		}

		wait := backoff(attempt)
		s.logger.Warn("deadlock detected, retrying",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", maxAttempts),
			zap.Duration("backoff", wait),
		)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return apperrors.NewDeadlockError("max retries exceeded")
}

func (s *Store) runTx(ctx context.Context, fn func(ctx context.Context, tx storage.Store) error) error {
	txCtx, cancel := context.WithTimeout(ctx, s.opts.TxTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer tx.Rollback()

	bound := &Store{db: s.db, tx: tx, opts: s.opts, logger: s.logger}
	if err := fn(txCtx, bound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// backoff grows by 100ms per attempt with ±20% jitter.
func backoff(attempt int) time.Duration {
	base := time.Duration(attempt) * 100 * time.Millisecond
	jitter := time.Duration(float64(base) * (rand.Float64()*0.4 - 0.2))
	return base + jitter
}

func isDeadlockError(err error) bool {
	var mysqlErr *driver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == errDeadlockDetected || mysqlErr.Number == errLockWaitTimeout
	}
	return false
}

func mysqlErrorNumber(err error) uint16 {
	var mysqlErr *driver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number
	}
	return 0
}

// translateWriteError maps constraint violations onto the error taxonomy and
// wraps everything else.
func translateWriteError(op string, err error) error {
	switch mysqlErrorNumber(err) {
	case errDuplicateEntry:
		return apperrors.NewConflictError(fmt.Sprintf("%s: duplicate entry", op))
	case errRowIsReferenced:
		return apperrors.NewConflictError(fmt.Sprintf("%s: record is still referenced", op))
	case errNoReferencedRow:
		return apperrors.NewNotFoundError(fmt.Sprintf("%s: referenced record does not exist", op))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireAffected(result sql.Result, notFound string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError(notFound)
	}
	return nil
}

func stamp(createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}
