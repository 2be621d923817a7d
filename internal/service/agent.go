package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"planettalk-agent-backend/internal/domain"
	"planettalk-agent-backend/internal/repository"
)

var maxCommissionRate = decimal.NewFromInt(100)

type agentService struct {
	agentRepo repository.AgentRepository
}

func NewAgentService(agentRepo repository.AgentRepository) AgentService {
	return &agentService{agentRepo: agentRepo}
}

func (s *agentService) CreateAgent(ctx context.Context, agent *domain.Agent) error {
	agent.Code = strings.ToUpper(strings.TrimSpace(agent.Code))
	if agent.Code == "" {
		return domain.NewValidationError("code", "is required")
	}
	if agent.Name == "" {
		return domain.NewValidationError("name", "is required")
	}
	if agent.Email == "" {
		return domain.NewValidationError("email", "is required")
	}
	if agent.CommissionRate.IsNegative() || agent.CommissionRate.GreaterThan(maxCommissionRate) {
		return domain.NewValidationError("commission_rate", "must be within [0, 100]")
	}
	if agent.Tier == "" {
		agent.Tier = domain.AgentTierBronze
	}
	if !agent.Tier.Valid() {
		return domain.NewValidationError("tier", "unsupported agent tier")
	}
	agent.Status = domain.AgentStatusActive
	agent.TotalEarnings = decimal.Zero
	agent.AvailableBalance = decimal.Zero
	agent.PendingBalance = decimal.Zero
	return s.agentRepo.Create(ctx, agent)
}

func (s *agentService) GetAgent(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	return s.agentRepo.GetByID(ctx, id)
}

func (s *agentService) GetAgentByCode(ctx context.Context, code string) (*domain.Agent, error) {
	return s.agentRepo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

func (s *agentService) UpdateCommission(ctx context.Context, id uuid.UUID, rate decimal.Decimal, tier domain.AgentTier) (*domain.Agent, error) {
	if rate.IsNegative() || rate.GreaterThan(maxCommissionRate) {
		return nil, domain.NewValidationError("commission_rate", "must be within [0, 100]")
	}
	if !tier.Valid() {
		return nil, domain.NewValidationError("tier", "unsupported agent tier")
	}
	agent, err := s.agentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	agent.CommissionRate = rate
	agent.Tier = tier
	if err := s.agentRepo.Update(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}
