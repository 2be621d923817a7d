package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"planettalk-agent-backend/internal/domain"
	"planettalk-agent-backend/internal/repository"
)

type agentRepository struct {
	db DBTX
}

func NewAgentRepository(db DBTX) repository.AgentRepository {
	return &agentRepository{db: db}
}

const agentColumns = `id, code, name, email, status, tier, commission_rate,
	total_earnings, available_balance, pending_balance, last_activity_at, created_at, updated_at`

func (r *agentRepository) Create(ctx context.Context, a *domain.Agent) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.LastActivityAt.IsZero() {
		a.LastActivityAt = now
	}
	query := `INSERT INTO agents (id, code, name, email, status, tier, commission_rate,
	          total_earnings, available_balance, pending_balance, last_activity_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.Code, a.Name, a.Email, a.Status, a.Tier,
		a.CommissionRate, a.TotalEarnings, a.AvailableBalance, a.PendingBalance,
		a.LastActivityAt, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *agentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`
	return r.scanAgent(r.db.QueryRowContext(ctx, query, id))
}

func (r *agentRepository) GetByCode(ctx context.Context, code string) (*domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE code = $1`
	return r.scanAgent(r.db.QueryRowContext(ctx, query, code))
}

func (r *agentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1 FOR UPDATE`
	return r.scanAgent(r.db.QueryRowContext(ctx, query, id))
}

func (r *agentRepository) Update(ctx context.Context, a *domain.Agent) error {
	a.UpdatedAt = time.Now().UTC()
	query := `UPDATE agents SET code = $2, name = $3, email = $4, status = $5, tier = $6,
	          commission_rate = $7, last_activity_at = $8, updated_at = $9 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, a.ID, a.Code, a.Name, a.Email, a.Status,
		a.Tier, a.CommissionRate, a.LastActivityAt, a.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *agentRepository) UpdateBalances(ctx context.Context, a *domain.Agent) error {
	a.UpdatedAt = time.Now().UTC()
	query := `UPDATE agents SET total_earnings = $2, available_balance = $3,
	          pending_balance = $4, last_activity_at = $5, updated_at = $6 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, a.ID, a.TotalEarnings, a.AvailableBalance,
		a.PendingBalance, a.LastActivityAt, a.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *agentRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM agents ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *agentRepository) DeactivateInactiveSince(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE agents SET status = $1, updated_at = $2
	          WHERE status = $3 AND last_activity_at < $4`
	res, err := r.db.ExecContext(ctx, query, domain.AgentStatusInactive, time.Now().UTC(),
		domain.AgentStatusActive, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *agentRepository) scanAgent(row *sql.Row) (*domain.Agent, error) {
	var a domain.Agent
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Email, &a.Status, &a.Tier, &a.CommissionRate,
		&a.TotalEarnings, &a.AvailableBalance, &a.PendingBalance, &a.LastActivityAt,
		&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
