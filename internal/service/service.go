package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"planettalk-agent-backend/internal/domain"
)

type CreateEarningInput struct {
	AgentID        uuid.UUID
	Type           domain.EarningType
	Amount         decimal.Decimal
	Currency       string
	CommissionRate *decimal.Decimal
	ReferenceID    *string
	Description    string
}

type RequestPayoutInput struct {
	AgentID        uuid.UUID
	Amount         decimal.Decimal
	Currency       string
	Method         domain.PayoutMethod
	PaymentDetails domain.PaymentDetails
}

// StatusChangeInput carries the optional parameters of a payout status
// change. Fees are only consulted on the COMPLETED transition; Reason is
// stored on REJECTED and CANCELLED.
type StatusChangeInput struct {
	Fees   *decimal.Decimal
	Reason string
}

// ReferralUsage is one referral event coming from the external usage source.
type ReferralUsage struct {
	AgentCode    string
	CustomerRef  string
	SignupAmount decimal.Decimal
	Currency     string
}

// BulkItemError records one failed item of a bulk operation.
type BulkItemError struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error"`
}

// BulkResult is the per-item outcome report of a bulk operation. A failure on
// one item never aborts the others.
type BulkResult struct {
	Succeeded []uuid.UUID     `json:"succeeded"`
	Failed    []BulkItemError `json:"failed"`
}

func (r *BulkResult) ok(id uuid.UUID) {
	r.Succeeded = append(r.Succeeded, id)
}

func (r *BulkResult) fail(id uuid.UUID, err error) {
	r.Failed = append(r.Failed, BulkItemError{ID: id, Error: err.Error()})
}

type EarningService interface {
	CreateEarning(ctx context.Context, input CreateEarningInput) (*domain.Earning, error)
	ConfirmEarning(ctx context.Context, earningID uuid.UUID) (*domain.Earning, error)
	RejectEarning(ctx context.Context, earningID uuid.UUID, reason string) (*domain.Earning, error)
	DisputeEarning(ctx context.Context, earningID uuid.UUID, reason string) (*domain.Earning, error)
	MarkEarningPaid(ctx context.Context, earningID uuid.UUID) (*domain.Earning, error)
	BulkApprove(ctx context.Context, earningIDs []uuid.UUID) *BulkResult
	BulkReject(ctx context.Context, earningIDs []uuid.UUID, reason string) *BulkResult
	CreateAdjustment(ctx context.Context, agentID uuid.UUID, amount decimal.Decimal, description string) (*domain.Earning, error)
	GetEarning(ctx context.Context, earningID uuid.UUID) (*domain.Earning, error)
	ListEarnings(ctx context.Context, agentID uuid.UUID, status domain.EarningStatus, page, pageSize int32) ([]domain.Earning, int32, error)
}

type PayoutService interface {
	RequestPayout(ctx context.Context, input RequestPayoutInput) (*domain.Payout, error)
	UpdatePayoutStatus(ctx context.Context, payoutID uuid.UUID, target domain.PayoutStatus, input StatusChangeInput) (*domain.Payout, error)
	BulkProcessPayouts(ctx context.Context, action string, payoutIDs []uuid.UUID) (*BulkResult, error)
	GetPayout(ctx context.Context, payoutID uuid.UUID) (*domain.Payout, error)
	ListPayouts(ctx context.Context, agentID uuid.UUID, status domain.PayoutStatus, page, pageSize int32) ([]domain.Payout, int32, error)
}

type CommissionService interface {
	ProcessReferralUsage(ctx context.Context, usage ReferralUsage) (*domain.Earning, error)
}

type ReconciliationService interface {
	RecalculateBalances(ctx context.Context, agentID uuid.UUID) (*domain.Agent, error)
}

type AgentService interface {
	CreateAgent(ctx context.Context, agent *domain.Agent) error
	GetAgent(ctx context.Context, id uuid.UUID) (*domain.Agent, error)
	GetAgentByCode(ctx context.Context, code string) (*domain.Agent, error)
	UpdateCommission(ctx context.Context, id uuid.UUID, rate decimal.Decimal, tier domain.AgentTier) (*domain.Agent, error)
}

// NotificationService is the notification sink of the ledger. Notify is
// fire-and-forget: delivery failures are logged and swallowed, never
// propagated to ledger operations.
type NotificationService interface {
	Notify(ctx context.Context, n *domain.Notification)
	GetNotifications(ctx context.Context, agentID uuid.UUID, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, agentID, notificationID uuid.UUID) error
}

type EmailService interface {
	SendPayoutRequested(ctx context.Context, email, name string, amount decimal.Decimal, currency string, method domain.PayoutMethod) error
	SendPayoutApproved(ctx context.Context, email, name string, amount decimal.Decimal, currency string) error
	SendPayoutCompleted(ctx context.Context, email, name string, netAmount decimal.Decimal, currency string) error
}
