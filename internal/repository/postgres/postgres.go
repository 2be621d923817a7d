package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"planettalk-agent-backend/internal/repository"

	_ "github.com/lib/pq"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.AgentRepository
	repository.EarningRepository
	repository.PayoutRepository
	repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		AgentRepository:        NewAgentRepository(db),
		EarningRepository:      NewEarningRepository(db),
		PayoutRepository:       NewPayoutRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}

// WithTx runs fn inside a transaction with transaction-scoped repositories.
// The transaction is rolled back when fn returns an error or panics.
func (s *Store) WithTx(ctx context.Context, fn func(r repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	repos := repository.Repositories{
		Agents:   NewAgentRepository(tx),
		Earnings: NewEarningRepository(tx),
		Payouts:  NewPayoutRepository(tx),
	}
	if err := fn(repos); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
