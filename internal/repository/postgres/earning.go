package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"planettalk-agent-backend/internal/domain"
	"planettalk-agent-backend/internal/repository"
)

type earningRepository struct {
	db DBTX
}

func NewEarningRepository(db DBTX) repository.EarningRepository {
	return &earningRepository{db: db}
}

const earningColumns = `id, agent_id, type, status, amount, currency, commission_rate,
	reference_id, description, rejection_reason, earned_at, confirmed_at, created_at, updated_at`

func (r *earningRepository) Create(ctx context.Context, e *domain.Earning) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	query := `INSERT INTO agent_earnings (id, agent_id, type, status, amount, currency,
	          commission_rate, reference_id, description, rejection_reason, earned_at,
	          confirmed_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.ExecContext(ctx, query, e.ID, e.AgentID, e.Type, e.Status, e.Amount,
		e.Currency, e.CommissionRate, e.ReferenceID, e.Description, e.RejectionReason,
		e.EarnedAt, e.ConfirmedAt, e.CreatedAt, e.UpdatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return domain.ErrDuplicateReference
	}
	return err
}

func (r *earningRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Earning, error) {
	query := `SELECT ` + earningColumns + ` FROM agent_earnings WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	e, err := scanEarning(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *earningRepository) Update(ctx context.Context, e *domain.Earning) error {
	e.UpdatedAt = time.Now().UTC()
	query := `UPDATE agent_earnings SET status = $2, rejection_reason = $3,
	          confirmed_at = $4, updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, e.ID, e.Status, e.RejectionReason,
		e.ConfirmedAt, e.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *earningRepository) ListByAgent(ctx context.Context, agentID uuid.UUID, status domain.EarningStatus, page, pageSize int32) ([]domain.Earning, int32, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	query := `SELECT ` + earningColumns + ` FROM agent_earnings
	          WHERE agent_id = $1 AND ($2 = '' OR status = $2)
	          ORDER BY earned_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, query, agentID, status, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var earnings []domain.Earning
	for rows.Next() {
		e, err := scanEarning(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		earnings = append(earnings, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int32
	countQuery := `SELECT count(*) FROM agent_earnings WHERE agent_id = $1 AND ($2 = '' OR status = $2)`
	if err := r.db.QueryRowContext(ctx, countQuery, agentID, status).Scan(&count); err != nil {
		return nil, 0, err
	}
	return earnings, count, nil
}

func (r *earningRepository) SumByStatuses(ctx context.Context, agentID uuid.UUID, statuses ...domain.EarningStatus) (decimal.Decimal, error) {
	list := make([]string, len(statuses))
	for i, s := range statuses {
		list[i] = string(s)
	}
	query := `SELECT COALESCE(SUM(amount), 0) FROM agent_earnings
	          WHERE agent_id = $1 AND status = ANY($2)`
	var sum decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, agentID, pq.Array(list)).Scan(&sum)
	return sum, err
}

func scanEarning(scan func(dest ...any) error) (*domain.Earning, error) {
	var e domain.Earning
	err := scan(&e.ID, &e.AgentID, &e.Type, &e.Status, &e.Amount, &e.Currency,
		&e.CommissionRate, &e.ReferenceID, &e.Description, &e.RejectionReason,
		&e.EarnedAt, &e.ConfirmedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
