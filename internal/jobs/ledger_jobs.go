package jobs

import (
	"context"
	"time"

	"planettalk-agent-backend/internal/domain"
	"planettalk-agent-backend/internal/logger"
	"planettalk-agent-backend/internal/service"
)

// ReconcileAgentBalances recomputes every agent's balances from the earning
// and payout histories. A mismatch on one agent does not stop the sweep.
func (jr *JobRunner) ReconcileAgentBalances() {
	jr.runWithRecovery("ReconcileAgentBalances", func() {
		ctx := context.Background()

		ids, err := jr.store.AgentRepository.ListIDs(ctx)
		if err != nil {
			logger.Error("Failed to list agents for reconciliation", "error", err)
			return
		}

		reconciled, failed := 0, 0
		for _, id := range ids {
			if _, err := jr.services.Reconciliation.RecalculateBalances(ctx, id); err != nil {
				logger.Error("Failed to reconcile agent balances", "agent_id", id, "error", err)
				failed++
				continue
			}
			reconciled++
		}

		logger.Info("Reconciled agent balances", "reconciled", reconciled, "failed", failed)
	})
}

// DeactivateInactiveAgents moves agents with no ledger activity past the
// configured window into INACTIVE status.
func (jr *JobRunner) DeactivateInactiveAgents() {
	jr.runWithRecovery("DeactivateInactiveAgents", func() {
		ctx := context.Background()

		cutoff := time.Now().UTC().AddDate(0, 0, -jr.config.Ledger.InactivityDays)
		count, err := jr.store.AgentRepository.DeactivateInactiveSince(ctx, cutoff)
		if err != nil {
			logger.Error("Failed to deactivate inactive agents", "error", err)
			return
		}

		logger.Info("Deactivated inactive agents", "count", count, "cutoff", cutoff.Format("2006-01-02"))
	})
}

// RetryFailedPayouts moves FAILED payouts back into PROCESSING for another
// settlement attempt. Funds stay reserved across the retry, so no balance
// movement happens here.
func (jr *JobRunner) RetryFailedPayouts() {
	jr.runWithRecovery("RetryFailedPayouts", func() {
		ctx := context.Background()

		payouts, err := jr.store.PayoutRepository.ListByStatus(ctx, domain.PayoutStatusFailed, 100)
		if err != nil {
			logger.Error("Failed to list failed payouts", "error", err)
			return
		}

		retried := 0
		for _, p := range payouts {
			if _, err := jr.services.Payout.UpdatePayoutStatus(ctx, p.ID, domain.PayoutStatusProcessing, service.StatusChangeInput{}); err != nil {
				logger.Error("Failed to retry payout", "payout_id", p.ID, "agent_id", p.AgentID, "error", err)
				continue
			}
			retried++
		}

		logger.Info("Retried failed payouts", "found", len(payouts), "retried", retried)
	})
}
