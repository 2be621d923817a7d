package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"planettalk-agent-backend/internal/domain"
	"planettalk-agent-backend/internal/repository"
)

type payoutRepository struct {
	db DBTX
}

func NewPayoutRepository(db DBTX) repository.PayoutRepository {
	return &payoutRepository{db: db}
}

const payoutColumns = `id, agent_id, status, method, amount, fees, net_amount, currency,
	payment_details, rejection_reason, requested_at, approved_at, processed_at,
	completed_at, created_at, updated_at`

var nonTerminalPayoutStatuses = []string{
	string(domain.PayoutStatusRequested),
	string(domain.PayoutStatusPendingReview),
	string(domain.PayoutStatusApproved),
	string(domain.PayoutStatusProcessing),
	string(domain.PayoutStatusFailed),
}

func (r *payoutRepository) Create(ctx context.Context, p *domain.Payout) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	details, err := json.Marshal(p.PaymentDetails)
	if err != nil {
		return fmt.Errorf("marshal payment details: %w", err)
	}
	query := `INSERT INTO payouts (id, agent_id, status, method, amount, fees, net_amount,
	          currency, payment_details, rejection_reason, requested_at, approved_at,
	          processed_at, completed_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err = r.db.ExecContext(ctx, query, p.ID, p.AgentID, p.Status, p.Method, p.Amount,
		p.Fees, p.NetAmount, p.Currency, details, p.RejectionReason, p.RequestedAt,
		p.ApprovedAt, p.ProcessedAt, p.CompletedAt, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *payoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	p, err := scanPayout(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *payoutRepository) Update(ctx context.Context, p *domain.Payout) error {
	p.UpdatedAt = time.Now().UTC()
	query := `UPDATE payouts SET status = $2, fees = $3, net_amount = $4,
	          rejection_reason = $5, approved_at = $6, processed_at = $7,
	          completed_at = $8, updated_at = $9 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, p.ID, p.Status, p.Fees, p.NetAmount,
		p.RejectionReason, p.ApprovedAt, p.ProcessedAt, p.CompletedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *payoutRepository) ListByAgent(ctx context.Context, agentID uuid.UUID, status domain.PayoutStatus, page, pageSize int32) ([]domain.Payout, int32, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	query := `SELECT ` + payoutColumns + ` FROM payouts
	          WHERE agent_id = $1 AND ($2 = '' OR status = $2)
	          ORDER BY requested_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, query, agentID, status, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var payouts []domain.Payout
	for rows.Next() {
		p, err := scanPayout(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		payouts = append(payouts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int32
	countQuery := `SELECT count(*) FROM payouts WHERE agent_id = $1 AND ($2 = '' OR status = $2)`
	if err := r.db.QueryRowContext(ctx, countQuery, agentID, status).Scan(&count); err != nil {
		return nil, 0, err
	}
	return payouts, count, nil
}

func (r *payoutRepository) ListByStatus(ctx context.Context, status domain.PayoutStatus, limit int32) ([]domain.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE status = $1
	          ORDER BY requested_at LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payouts []domain.Payout
	for rows.Next() {
		p, err := scanPayout(rows.Scan)
		if err != nil {
			return nil, err
		}
		payouts = append(payouts, *p)
	}
	return payouts, rows.Err()
}

func (r *payoutRepository) CountInFlight(ctx context.Context, agentID uuid.UUID) (int32, error) {
	query := `SELECT count(*) FROM payouts WHERE agent_id = $1 AND status = ANY($2)`
	var count int32
	err := r.db.QueryRowContext(ctx, query, agentID, pq.Array(nonTerminalPayoutStatuses)).Scan(&count)
	return count, err
}

func (r *payoutRepository) SumByStatuses(ctx context.Context, agentID uuid.UUID, statuses ...domain.PayoutStatus) (decimal.Decimal, error) {
	list := make([]string, len(statuses))
	for i, s := range statuses {
		list[i] = string(s)
	}
	query := `SELECT COALESCE(SUM(amount), 0) FROM payouts
	          WHERE agent_id = $1 AND status = ANY($2)`
	var sum decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, agentID, pq.Array(list)).Scan(&sum)
	return sum, err
}

func scanPayout(scan func(dest ...any) error) (*domain.Payout, error) {
	var p domain.Payout
	var details []byte
	err := scan(&p.ID, &p.AgentID, &p.Status, &p.Method, &p.Amount, &p.Fees, &p.NetAmount,
		&p.Currency, &details, &p.RejectionReason, &p.RequestedAt, &p.ApprovedAt,
		&p.ProcessedAt, &p.CompletedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &p.PaymentDetails); err != nil {
			return nil, fmt.Errorf("unmarshal payment details: %w", err)
		}
	}
	return &p, nil
}
