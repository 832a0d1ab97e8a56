package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"webwrap/internal/database"
	repoerrors "webwrap/internal/infrastructure/errors"
	"webwrap/internal/infrastructure/logging"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteRepository implements StateRepository using SQLite
type SQLiteRepository struct {
	db          *sql.DB
	conn        dbtx
	retryConfig *repoerrors.RetryConfig
	logger      logging.Logger
}

var _ StateRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a repository over a connected database service
func NewSQLiteRepository(dbService database.Service, logger logging.Logger) *SQLiteRepository {
	return NewSQLiteRepositoryWithConfig(dbService, nil, logger)
}

// NewSQLiteRepositoryWithConfig creates a repository with a custom retry policy
func NewSQLiteRepositoryWithConfig(dbService database.Service, retryConfig *repoerrors.RetryConfig, logger logging.Logger) *SQLiteRepository {
	if retryConfig == nil {
		retryConfig = repoerrors.DefaultRetryConfig()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	db := dbService.DB()
	return &SQLiteRepository{
		db:          db,
		conn:        db,
		retryConfig: retryConfig,
		logger:      logger,
	}
}

// WithTransaction executes fn within a database transaction with retry logic.
// fn receives a repository bound to the transaction.
func (r *SQLiteRepository) WithTransaction(ctx context.Context, fn func(repo StateRepository) error) error {
	start := time.Now()

	err := repoerrors.WithRetry(ctx, r.retryConfig, "WithTransaction", func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return r.storeError("WithTransaction.Begin", err, nil)
		}

		committed := false
		defer func() {
			if committed {
				return
			}
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				r.logger.Debug("Failed to rollback transaction", "rollback_error", rbErr)
			}
		}()

		txRepo := &SQLiteRepository{
			db:          r.db,
			conn:        tx,
			retryConfig: noRetry(),
			logger:      r.logger,
		}

		if err := fn(txRepo); err != nil {
			r.logger.Debug("Transaction function failed", "error", err)
			return err
		}

		if err := tx.Commit(); err != nil {
			return r.storeError("WithTransaction.Commit", err, nil)
		}
		committed = true
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "WithTransaction", time.Since(start), nil)
	}
	return err
}

// storeError classifies err and logs it unless it will be retried
func (r *SQLiteRepository) storeError(op string, err error, ctx map[string]string) error {
	repoErr := repoerrors.NewWithContext(op, err, repoerrors.ClassifyError(err), ctx)

	if repoErr.IsRetryable() {
		r.logger.Debug("Retryable error in "+op, "error", err)
	} else {
		fields := make(map[string]interface{}, len(ctx))
		for k, v := range ctx {
			fields[k] = v
		}
		logging.LogShellError(r.logger, repoErr, op, fields)
	}
	return repoErr
}

// noRetry is used inside transactions; the outer WithTransaction retries
// the whole unit of work
func noRetry() *repoerrors.RetryConfig {
	config := repoerrors.DefaultRetryConfig()
	config.MaxAttempts = 1
	return config
}

func nullInt(v int) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
