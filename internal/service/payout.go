package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"planettalk-agent-backend/internal/domain"
	"planettalk-agent-backend/internal/logger"
	"planettalk-agent-backend/internal/repository"
)

type payoutService struct {
	txm        repository.TxManager
	agentRepo  repository.AgentRepository
	payoutRepo repository.PayoutRepository
	notifySvc  NotificationService
	emailSvc   EmailService
	minPayout  decimal.Decimal
	currency   string
	now        func() time.Time
}

func NewPayoutService(
	txm repository.TxManager,
	agentRepo repository.AgentRepository,
	payoutRepo repository.PayoutRepository,
	notifySvc NotificationService,
	emailSvc EmailService,
	minPayout decimal.Decimal,
	defaultCurrency string,
) PayoutService {
	return &payoutService{
		txm:        txm,
		agentRepo:  agentRepo,
		payoutRepo: payoutRepo,
		notifySvc:  notifySvc,
		emailSvc:   emailSvc,
		minPayout:  minPayout,
		currency:   defaultCurrency,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *payoutService) RequestPayout(ctx context.Context, input RequestPayoutInput) (*domain.Payout, error) {
	if !input.Method.Valid() {
		return nil, domain.NewValidationError("method", "unsupported payout method")
	}
	if input.Amount.LessThan(s.minPayout) {
		return nil, domain.NewValidationError("amount",
			fmt.Sprintf("must be at least %s", s.minPayout.StringFixed(2)))
	}
	if err := input.PaymentDetails.Validate(input.Method); err != nil {
		return nil, err
	}
	if input.Currency == "" {
		input.Currency = s.currency
	}

	now := s.now()
	payout := &domain.Payout{
		AgentID:        input.AgentID,
		Status:         domain.PayoutStatusRequested,
		Method:         input.Method,
		Amount:         input.Amount,
		Fees:           decimal.Zero,
		NetAmount:      input.Amount, // fees are applied at completion, when known
		Currency:       input.Currency,
		PaymentDetails: input.PaymentDetails,
		RequestedAt:    now,
	}

	var agent *domain.Agent
	err := s.txm.WithTx(ctx, func(r repository.Repositories) error {
		var err error
		agent, err = r.Agents.GetForUpdate(ctx, input.AgentID)
		if err != nil {
			return err
		}
		if agent.Status != domain.AgentStatusActive {
			return domain.ErrAgentInactive
		}
		inFlight, err := r.Payouts.CountInFlight(ctx, input.AgentID)
		if err != nil {
			return err
		}
		if inFlight > 0 {
			return domain.ErrPayoutInFlight
		}
		if err := agent.ReserveForPayout(input.Amount); err != nil {
			return err
		}
		agent.LastActivityAt = now
		if err := r.Payouts.Create(ctx, payout); err != nil {
			return err
		}
		return r.Agents.UpdateBalances(ctx, agent)
	})
	if err != nil {
		return nil, err
	}

	s.notifySvc.Notify(ctx, &domain.Notification{
		AgentID:  agent.ID,
		Type:     domain.NotificationTypePayout,
		Priority: domain.NotificationPriorityNormal,
		Title:    "Payout requested",
		Message:  fmt.Sprintf("Your payout request of %s %s was received", payout.Amount.StringFixed(2), payout.Currency),
		Attributes: map[string]string{
			"payout_id": payout.ID.String(),
			"status":    string(payout.Status),
		},
	})
	if err := s.emailSvc.SendPayoutRequested(ctx, agent.Email, agent.Name, payout.Amount, payout.Currency, payout.Method); err != nil {
		logger.Warn("Failed to send payout requested email", "agent_id", agent.ID, "error", err)
	}
	return payout, nil
}

func (s *payoutService) UpdatePayoutStatus(ctx context.Context, payoutID uuid.UUID, target domain.PayoutStatus, input StatusChangeInput) (*domain.Payout, error) {
	if !target.Valid() {
		return nil, domain.NewValidationError("status", "unsupported payout status")
	}
	if input.Fees != nil && input.Fees.IsNegative() {
		return nil, domain.NewValidationError("fees", "must not be negative")
	}

	var payout *domain.Payout
	var agent *domain.Agent
	err := s.txm.WithTx(ctx, func(r repository.Repositories) error {
		first, err := r.Payouts.GetByID(ctx, payoutID)
		if err != nil {
			return err
		}
		agent, err = r.Agents.GetForUpdate(ctx, first.AgentID)
		if err != nil {
			return err
		}
		// Re-read under the agent lock so the transition check is
		// authoritative.
		payout, err = r.Payouts.GetByID(ctx, payoutID)
		if err != nil {
			return err
		}

		if target == domain.PayoutStatusCompleted && input.Fees != nil {
			if input.Fees.GreaterThan(payout.Amount) {
				return domain.NewValidationError("fees", "must not exceed the payout amount")
			}
			payout.Fees = *input.Fees
		}
		if err := payout.TransitionTo(target, s.now()); err != nil {
			return err
		}

		switch target {
		case domain.PayoutStatusCompleted:
			if err := agent.SettlePayoutCompleted(payout.Amount); err != nil {
				return err
			}
		case domain.PayoutStatusRejected, domain.PayoutStatusCancelled:
			payout.RejectionReason = input.Reason
			if err := agent.ReturnPayoutFunds(payout.Amount); err != nil {
				return err
			}
		}

		if err := r.Payouts.Update(ctx, payout); err != nil {
			return err
		}
		return r.Agents.UpdateBalances(ctx, agent)
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatusChange(ctx, agent, payout)
	return payout, nil
}

// notifyStatusChange emits the post-transition notification and email. Both
// are fire-and-forget: a delivery failure never rolls back the transition.
func (s *payoutService) notifyStatusChange(ctx context.Context, agent *domain.Agent, payout *domain.Payout) {
	priority := domain.NotificationPriorityNormal
	title := "Payout update"
	message := fmt.Sprintf("Your payout of %s %s is now %s", payout.Amount.StringFixed(2), payout.Currency, payout.Status)

	switch payout.Status {
	case domain.PayoutStatusCompleted:
		priority = domain.NotificationPriorityHigh
		title = "Payout completed"
		message = fmt.Sprintf("Your payout of %s %s was completed, net amount %s", payout.Amount.StringFixed(2), payout.Currency, payout.NetAmount.StringFixed(2))
	case domain.PayoutStatusRejected:
		priority = domain.NotificationPriorityHigh
		title = "Payout rejected"
		message = fmt.Sprintf("Your payout of %s %s was rejected and the funds were returned", payout.Amount.StringFixed(2), payout.Currency)
	case domain.PayoutStatusFailed:
		priority = domain.NotificationPriorityHigh
		title = "Payout failed"
	case domain.PayoutStatusCancelled:
		title = "Payout cancelled"
		message = fmt.Sprintf("Your payout of %s %s was cancelled and the funds were returned", payout.Amount.StringFixed(2), payout.Currency)
	case domain.PayoutStatusApproved:
		title = "Payout approved"
	}

	s.notifySvc.Notify(ctx, &domain.Notification{
		AgentID:  agent.ID,
		Type:     domain.NotificationTypePayout,
		Priority: priority,
		Title:    title,
		Message:  message,
		Attributes: map[string]string{
			"payout_id": payout.ID.String(),
			"status":    string(payout.Status),
		},
	})

	var emailErr error
	switch payout.Status {
	case domain.PayoutStatusApproved:
		emailErr = s.emailSvc.SendPayoutApproved(ctx, agent.Email, agent.Name, payout.Amount, payout.Currency)
	case domain.PayoutStatusCompleted:
		emailErr = s.emailSvc.SendPayoutCompleted(ctx, agent.Email, agent.Name, payout.NetAmount, payout.Currency)
	}
	if emailErr != nil {
		logger.Warn("Failed to send payout status email", "agent_id", agent.ID, "payout_id", payout.ID, "status", payout.Status, "error", emailErr)
	}
}

// BulkProcessPayouts applies one action to many payouts, one transaction per
// payout, collecting per-item outcomes.
func (s *payoutService) BulkProcessPayouts(ctx context.Context, action string, payoutIDs []uuid.UUID) (*BulkResult, error) {
	var target domain.PayoutStatus
	switch action {
	case "approve":
		target = domain.PayoutStatusApproved
	case "review":
		target = domain.PayoutStatusPendingReview
	default:
		return nil, domain.NewValidationError("action", "must be one of [approve, review]")
	}

	result := &BulkResult{}
	for _, id := range payoutIDs {
		if _, err := s.UpdatePayoutStatus(ctx, id, target, StatusChangeInput{}); err != nil {
			result.fail(id, err)
			continue
		}
		result.ok(id)
	}
	return result, nil
}

func (s *payoutService) GetPayout(ctx context.Context, payoutID uuid.UUID) (*domain.Payout, error) {
	return s.payoutRepo.GetByID(ctx, payoutID)
}

func (s *payoutService) ListPayouts(ctx context.Context, agentID uuid.UUID, status domain.PayoutStatus, page, pageSize int32) ([]domain.Payout, int32, error) {
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.payoutRepo.ListByAgent(ctx, agentID, status, page, pageSize)
}
