package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"planettalk-agent-backend/internal/domain"
	"planettalk-agent-backend/internal/repository"
)

type earningService struct {
	txm         repository.TxManager
	earningRepo repository.EarningRepository
	notifySvc   NotificationService
	currency    string
	now         func() time.Time
}

func NewEarningService(
	txm repository.TxManager,
	earningRepo repository.EarningRepository,
	notifySvc NotificationService,
	defaultCurrency string,
) EarningService {
	return &earningService{
		txm:         txm,
		earningRepo: earningRepo,
		notifySvc:   notifySvc,
		currency:    defaultCurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *earningService) CreateEarning(ctx context.Context, input CreateEarningInput) (*domain.Earning, error) {
	if !input.Type.Valid() {
		return nil, domain.NewValidationError("type", "unsupported earning type")
	}
	if input.Amount.IsNegative() {
		// Negative amounts only enter the ledger through CreateAdjustment,
		// which bounds them by the available balance.
		return nil, domain.NewValidationError("amount", "must not be negative")
	}
	if input.Currency == "" {
		input.Currency = s.currency
	}

	now := s.now()
	earning := &domain.Earning{
		AgentID:        input.AgentID,
		Type:           input.Type,
		Status:         domain.EarningStatusPending,
		Amount:         input.Amount,
		Currency:       input.Currency,
		CommissionRate: input.CommissionRate,
		ReferenceID:    input.ReferenceID,
		Description:    input.Description,
		EarnedAt:       now,
	}

	err := s.txm.WithTx(ctx, func(r repository.Repositories) error {
		agent, err := r.Agents.GetForUpdate(ctx, input.AgentID)
		if err != nil {
			return err
		}
		// Zero-amount earnings (zero commission rate) are still recorded for
		// the audit trail but reserve nothing.
		if earning.Amount.IsPositive() {
			if err := agent.ReserveForPendingEarning(earning.Amount); err != nil {
				return err
			}
		}
		agent.LastActivityAt = now
		if err := r.Earnings.Create(ctx, earning); err != nil {
			return err
		}
		return r.Agents.UpdateBalances(ctx, agent)
	})
	if err != nil {
		return nil, err
	}

	s.notifySvc.Notify(ctx, &domain.Notification{
		AgentID:  earning.AgentID,
		Type:     domain.NotificationTypeEarnings,
		Priority: domain.NotificationPriorityNormal,
		Title:    "New earning recorded",
		Message:  fmt.Sprintf("A %s earning of %s %s is pending review", earning.Type, earning.Amount.StringFixed(2), earning.Currency),
		Attributes: map[string]string{
			"earning_id": earning.ID.String(),
			"status":     string(earning.Status),
		},
	})
	return earning, nil
}

func (s *earningService) ConfirmEarning(ctx context.Context, earningID uuid.UUID) (*domain.Earning, error) {
	var earning *domain.Earning
	err := s.txm.WithTx(ctx, func(r repository.Repositories) error {
		var err error
		var agent *domain.Agent
		earning, agent, err = lockAgentAndEarning(ctx, r, earningID)
		if err != nil {
			return err
		}
		if err := earning.Confirm(s.now()); err != nil {
			return err
		}
		if err := agent.ConfirmEarning(earning.Amount); err != nil {
			return err
		}
		if err := r.Earnings.Update(ctx, earning); err != nil {
			return err
		}
		return r.Agents.UpdateBalances(ctx, agent)
	})
	if err != nil {
		return nil, err
	}

	s.notifySvc.Notify(ctx, &domain.Notification{
		AgentID:  earning.AgentID,
		Type:     domain.NotificationTypeEarnings,
		Priority: domain.NotificationPriorityNormal,
		Title:    "Earning confirmed",
		Message:  fmt.Sprintf("Your earning of %s %s is now available", earning.Amount.StringFixed(2), earning.Currency),
		Attributes: map[string]string{
			"earning_id": earning.ID.String(),
			"status":     string(earning.Status),
		},
	})
	return earning, nil
}

func (s *earningService) RejectEarning(ctx context.Context, earningID uuid.UUID, reason string) (*domain.Earning, error) {
	var earning *domain.Earning
	err := s.txm.WithTx(ctx, func(r repository.Repositories) error {
		var err error
		var agent *domain.Agent
		earning, agent, err = lockAgentAndEarning(ctx, r, earningID)
		if err != nil {
			return err
		}
		if err := earning.Reject(reason); err != nil {
			return err
		}
		if earning.Amount.IsPositive() {
			if err := agent.CancelPendingEarning(earning.Amount); err != nil {
				return err
			}
		}
		if err := r.Earnings.Update(ctx, earning); err != nil {
			return err
		}
		return r.Agents.UpdateBalances(ctx, agent)
	})
	if err != nil {
		return nil, err
	}

	s.notifySvc.Notify(ctx, &domain.Notification{
		AgentID:  earning.AgentID,
		Type:     domain.NotificationTypeEarnings,
		Priority: domain.NotificationPriorityHigh,
		Title:    "Earning rejected",
		Message:  fmt.Sprintf("Your earning of %s %s was rejected: %s", earning.Amount.StringFixed(2), earning.Currency, reason),
		Attributes: map[string]string{
			"earning_id": earning.ID.String(),
			"status":     string(earning.Status),
		},
	})
	return earning, nil
}

// DisputeEarning flags a confirmed earning and claws its value back out of
// the available balance, so the incremental balances stay consistent with
// what reconciliation recomputes from history.
func (s *earningService) DisputeEarning(ctx context.Context, earningID uuid.UUID, reason string) (*domain.Earning, error) {
	var earning *domain.Earning
	err := s.txm.WithTx(ctx, func(r repository.Repositories) error {
		var err error
		var agent *domain.Agent
		earning, agent, err = lockAgentAndEarning(ctx, r, earningID)
		if err != nil {
			return err
		}
		if err := earning.Dispute(reason); err != nil {
			return err
		}
		if earning.Amount.IsPositive() {
			if err := agent.ApplyAdjustment(earning.Amount.Neg()); err != nil {
				return err
			}
		}
		if err := r.Earnings.Update(ctx, earning); err != nil {
			return err
		}
		return r.Agents.UpdateBalances(ctx, agent)
	})
	if err != nil {
		return nil, err
	}

	s.notifySvc.Notify(ctx, &domain.Notification{
		AgentID:  earning.AgentID,
		Type:     domain.NotificationTypeEarnings,
		Priority: domain.NotificationPriorityHigh,
		Title:    "Earning disputed",
		Message:  fmt.Sprintf("Your earning of %s %s is under dispute: %s", earning.Amount.StringFixed(2), earning.Currency, reason),
		Attributes: map[string]string{
			"earning_id": earning.ID.String(),
			"status":     string(earning.Status),
		},
	})
	return earning, nil
}

func (s *earningService) MarkEarningPaid(ctx context.Context, earningID uuid.UUID) (*domain.Earning, error) {
	var earning *domain.Earning
	err := s.txm.WithTx(ctx, func(r repository.Repositories) error {
		var err error
		earning, _, err = lockAgentAndEarning(ctx, r, earningID)
		if err != nil {
			return err
		}
		if err := earning.MarkPaid(); err != nil {
			return err
		}
		// PAID and CONFIRMED count identically toward balances, so only the
		// status changes here.
		return r.Earnings.Update(ctx, earning)
	})
	if err != nil {
		return nil, err
	}
	return earning, nil
}

func (s *earningService) BulkApprove(ctx context.Context, earningIDs []uuid.UUID) *BulkResult {
	result := &BulkResult{}
	for _, id := range earningIDs {
		if _, err := s.ConfirmEarning(ctx, id); err != nil {
			result.fail(id, err)
			continue
		}
		result.ok(id)
	}
	return result
}

func (s *earningService) BulkReject(ctx context.Context, earningIDs []uuid.UUID, reason string) *BulkResult {
	result := &BulkResult{}
	for _, id := range earningIDs {
		if _, err := s.RejectEarning(ctx, id, reason); err != nil {
			result.fail(id, err)
			continue
		}
		result.ok(id)
	}
	return result
}

// CreateAdjustment records an administrative adjustment that applies
// immediately as CONFIRMED, skipping the pending review step. Negative
// adjustments are bounded by the agent's available balance.
func (s *earningService) CreateAdjustment(ctx context.Context, agentID uuid.UUID, amount decimal.Decimal, description string) (*domain.Earning, error) {
	if amount.IsZero() {
		return nil, domain.NewValidationError("amount", "must not be zero")
	}
	if description == "" {
		return nil, domain.NewValidationError("description", "is required")
	}

	now := s.now()
	typ := domain.EarningTypeAdjustment
	if amount.IsNegative() {
		typ = domain.EarningTypePenalty
	}
	earning := &domain.Earning{
		AgentID:     agentID,
		Type:        typ,
		Status:      domain.EarningStatusConfirmed,
		Amount:      amount,
		Currency:    s.currency,
		Description: description,
		EarnedAt:    now,
		ConfirmedAt: &now,
	}

	err := s.txm.WithTx(ctx, func(r repository.Repositories) error {
		agent, err := r.Agents.GetForUpdate(ctx, agentID)
		if err != nil {
			return err
		}
		if err := agent.ApplyAdjustment(amount); err != nil {
			return err
		}
		if err := r.Earnings.Create(ctx, earning); err != nil {
			return err
		}
		return r.Agents.UpdateBalances(ctx, agent)
	})
	if err != nil {
		return nil, err
	}

	s.notifySvc.Notify(ctx, &domain.Notification{
		AgentID:  agentID,
		Type:     domain.NotificationTypeEarnings,
		Priority: domain.NotificationPriorityHigh,
		Title:    "Balance adjustment",
		Message:  fmt.Sprintf("An adjustment of %s %s was applied to your account: %s", amount.StringFixed(2), earning.Currency, description),
		Attributes: map[string]string{
			"earning_id": earning.ID.String(),
			"type":       string(earning.Type),
		},
	})
	return earning, nil
}

func (s *earningService) GetEarning(ctx context.Context, earningID uuid.UUID) (*domain.Earning, error) {
	return s.earningRepo.GetByID(ctx, earningID)
}

func (s *earningService) ListEarnings(ctx context.Context, agentID uuid.UUID, status domain.EarningStatus, page, pageSize int32) ([]domain.Earning, int32, error) {
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.earningRepo.ListByAgent(ctx, agentID, status, page, pageSize)
}

// lockAgentAndEarning reads the earning to learn its agent, then re-reads it
// after the caller acquires the agent lock. The first read may race with a
// concurrent operation on the same earning; the re-read inside the lock makes
// the status check authoritative.
func lockAgentAndEarning(ctx context.Context, r repository.Repositories, earningID uuid.UUID) (*domain.Earning, *domain.Agent, error) {
	earning, err := r.Earnings.GetByID(ctx, earningID)
	if err != nil {
		return nil, nil, err
	}
	agent, err := r.Agents.GetForUpdate(ctx, earning.AgentID)
	if err != nil {
		return nil, nil, err
	}
	earning, err = r.Earnings.GetByID(ctx, earningID)
	if err != nil {
		return nil, nil, err
	}
	return earning, agent, nil
}
