package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"planettalk-agent-backend/internal/domain"
	"planettalk-agent-backend/internal/logger"
	"planettalk-agent-backend/internal/repository"
)

type reconciliationService struct {
	txm repository.TxManager
}

func NewReconciliationService(txm repository.TxManager) ReconciliationService {
	return &reconciliationService{txm: txm}
}

// RecalculateBalances recomputes the agent's three balance fields from the
// full earning and payout history. It is a pure function of history, safe to
// run at any time, and idempotent: a second run reproduces the same result.
func (s *reconciliationService) RecalculateBalances(ctx context.Context, agentID uuid.UUID) (*domain.Agent, error) {
	var agent *domain.Agent
	err := s.txm.WithTx(ctx, func(r repository.Repositories) error {
		var err error
		agent, err = r.Agents.GetForUpdate(ctx, agentID)
		if err != nil {
			return err
		}

		totalEarnings, err := r.Earnings.SumByStatuses(ctx, agentID,
			domain.EarningStatusConfirmed, domain.EarningStatusPaid)
		if err != nil {
			return err
		}
		pendingEarnings, err := r.Earnings.SumByStatuses(ctx, agentID, domain.EarningStatusPending)
		if err != nil {
			return err
		}
		completedPayouts, err := r.Payouts.SumByStatuses(ctx, agentID, domain.PayoutStatusCompleted)
		if err != nil {
			return err
		}
		inFlightPayouts, err := r.Payouts.SumByStatuses(ctx, agentID,
			domain.PayoutStatusRequested, domain.PayoutStatusPendingReview,
			domain.PayoutStatusApproved, domain.PayoutStatusProcessing, domain.PayoutStatusFailed)
		if err != nil {
			return err
		}

		available := totalEarnings.Sub(completedPayouts).Sub(inFlightPayouts)
		if available.IsNegative() {
			// Corrupt history: more paid out than ever earned. Clamp so the
			// healed balances satisfy the non-negativity invariant, but keep
			// the evidence in the log.
			logger.Error("Reconciliation computed a negative available balance",
				"agent_id", agentID, "computed", available.StringFixed(2))
			available = decimal.Zero
		}

		agent.TotalEarnings = totalEarnings
		agent.AvailableBalance = available
		agent.PendingBalance = pendingEarnings.Add(inFlightPayouts)
		return r.Agents.UpdateBalances(ctx, agent)
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}
