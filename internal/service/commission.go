package service

import (
	"context"

	"planettalk-agent-backend/internal/domain"
	"planettalk-agent-backend/internal/repository"
	"planettalk-agent-backend/internal/utils"
)

type commissionService struct {
	agentRepo  repository.AgentRepository
	earningSvc EarningService
}

func NewCommissionService(agentRepo repository.AgentRepository, earningSvc EarningService) CommissionService {
	return &commissionService{agentRepo: agentRepo, earningSvc: earningSvc}
}

// ProcessReferralUsage mints a pending REFERRAL_COMMISSION earning for a
// referral event. The effective rate (agent rate plus tier bonus) is
// snapshotted on the earning, and the customer reference doubles as the
// dedup key so the same signup is never paid twice.
func (s *commissionService) ProcessReferralUsage(ctx context.Context, usage ReferralUsage) (*domain.Earning, error) {
	if usage.AgentCode == "" {
		return nil, domain.NewValidationError("agent_code", "is required")
	}
	if usage.CustomerRef == "" {
		return nil, domain.NewValidationError("customer_ref", "is required")
	}

	agent, err := s.agentRepo.GetByCode(ctx, usage.AgentCode)
	if err != nil {
		return nil, err
	}
	if agent.Status != domain.AgentStatusActive {
		return nil, domain.ErrAgentInactive
	}

	rate := agent.CommissionRate.Add(agent.Tier.BonusRate())
	amount, err := utils.ComputeCommission(usage.SignupAmount, agent.CommissionRate, agent.Tier.BonusRate())
	if err != nil {
		return nil, domain.NewValidationError("signup_amount", err.Error())
	}

	ref := usage.CustomerRef
	return s.earningSvc.CreateEarning(ctx, CreateEarningInput{
		AgentID:        agent.ID,
		Type:           domain.EarningTypeReferralCommission,
		Amount:         amount,
		Currency:       usage.Currency,
		CommissionRate: &rate,
		ReferenceID:    &ref,
		Description:    "Referral commission for customer " + usage.CustomerRef,
	})
}
