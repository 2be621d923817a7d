package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"planettalk-agent-backend/internal/domain"
)

type AgentRepository interface {
	Create(ctx context.Context, agent *domain.Agent) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error)
	GetByCode(ctx context.Context, code string) (*domain.Agent, error)
	// GetForUpdate reads the agent row under a row lock; it must be called
	// inside a transaction and serializes all concurrent ledger operations
	// against the same agent.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Agent, error)
	Update(ctx context.Context, agent *domain.Agent) error
	// UpdateBalances writes only the three balance fields and the activity
	// timestamp.
	UpdateBalances(ctx context.Context, agent *domain.Agent) error
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	DeactivateInactiveSince(ctx context.Context, cutoff time.Time) (int64, error)
}

type EarningRepository interface {
	Create(ctx context.Context, earning *domain.Earning) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Earning, error)
	Update(ctx context.Context, earning *domain.Earning) error
	ListByAgent(ctx context.Context, agentID uuid.UUID, status domain.EarningStatus, page, pageSize int32) ([]domain.Earning, int32, error)
	SumByStatuses(ctx context.Context, agentID uuid.UUID, statuses ...domain.EarningStatus) (decimal.Decimal, error)
}

type PayoutRepository interface {
	Create(ctx context.Context, payout *domain.Payout) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payout, error)
	Update(ctx context.Context, payout *domain.Payout) error
	ListByAgent(ctx context.Context, agentID uuid.UUID, status domain.PayoutStatus, page, pageSize int32) ([]domain.Payout, int32, error)
	ListByStatus(ctx context.Context, status domain.PayoutStatus, limit int32) ([]domain.Payout, error)
	// CountInFlight counts the agent's payouts in a non-terminal status.
	CountInFlight(ctx context.Context, agentID uuid.UUID) (int32, error)
	SumByStatuses(ctx context.Context, agentID uuid.UUID, statuses ...domain.PayoutStatus) (decimal.Decimal, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, agentID uuid.UUID, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, agentID uuid.UUID) error
}

// Repositories bundles the repositories scoped to one transaction.
type Repositories struct {
	Agents   AgentRepository
	Earnings EarningRepository
	Payouts  PayoutRepository
}

// TxManager runs a function inside a database transaction. Every
// balance-affecting ledger operation goes through WithTx and takes the agent
// row lock (AgentRepository.GetForUpdate) as its first read, so operations on
// the same agent are serialized while different agents proceed in parallel.
type TxManager interface {
	WithTx(ctx context.Context, fn func(r Repositories) error) error
}
