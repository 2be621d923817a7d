package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"planettalk-agent-backend/internal/domain"
	"planettalk-agent-backend/internal/repository"
)

func newEarningTestService(agentRepo *MockAgentRepo, earningRepo *MockEarningRepo, notifySvc *MockNotificationService) EarningService {
	txm := &fakeTxManager{repos: repository.Repositories{
		Agents:   agentRepo,
		Earnings: earningRepo,
	}}
	svc := NewEarningService(txm, earningRepo, notifySvc, "GBP").(*earningService)
	svc.now = func() time.Time { return time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestEarningService_CreateEarning(t *testing.T) {
	ctx := context.Background()

	t.Run("ReservesPendingBalance", func(t *testing.T) {
		agentRepo := new(MockAgentRepo)
		earningRepo := new(MockEarningRepo)
		notifySvc := new(MockNotificationService)
		svc := newEarningTestService(agentRepo, earningRepo, notifySvc)

		agent := activeAgent("0", "0", "0")
		agentRepo.On("GetForUpdate", ctx, agent.ID).Return(agent, nil).Once()
		earningRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.Earning) bool {
			return e.Status == domain.EarningStatusPending && e.Amount.Equal(dec("25.00"))
		})).Return(nil).Once()
		agentRepo.On("UpdateBalances", ctx, mock.MatchedBy(func(a *domain.Agent) bool {
			return a.PendingBalance.Equal(dec("25.00")) && a.AvailableBalance.IsZero()
		})).Return(nil).Once()
		notifySvc.On("Notify", ctx, mock.Anything).Once()

		earning, err := svc.CreateEarning(ctx, CreateEarningInput{
			AgentID:     agent.ID,
			Type:        domain.EarningTypeBonus,
			Amount:      dec("25.00"),
			Description: "Monthly promotion bonus",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.EarningStatusPending, earning.Status)
		assert.Equal(t, "GBP", earning.Currency)

		agentRepo.AssertExpectations(t)
		earningRepo.AssertExpectations(t)
		notifySvc.AssertExpectations(t)
	})

	t.Run("ZeroAmountRecordedWithoutReservation", func(t *testing.T) {
		agentRepo := new(MockAgentRepo)
		earningRepo := new(MockEarningRepo)
		notifySvc := new(MockNotificationService)
		svc := newEarningTestService(agentRepo, earningRepo, notifySvc)

		agent := activeAgent("0", "0", "0")
		agentRepo.On("GetForUpdate", ctx, agent.ID).Return(agent, nil).Once()
		earningRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
		agentRepo.On("UpdateBalances", ctx, mock.MatchedBy(func(a *domain.Agent) bool {
			return a.PendingBalance.IsZero()
		})).Return(nil).Once()
		notifySvc.On("Notify", ctx, mock.Anything).Once()

		earning, err := svc.CreateEarning(ctx, CreateEarningInput{
			AgentID:     agent.ID,
			Type:        domain.EarningTypeReferralCommission,
			Amount:      decimal.Zero,
			Description: "Zero-rate referral",
		})
		require.NoError(t, err)
		assert.True(t, earning.Amount.IsZero())
	})

	t.Run("NegativeAmountRejected", func(t *testing.T) {
		agentRepo := new(MockAgentRepo)
		earningRepo := new(MockEarningRepo)
		notifySvc := new(MockNotificationService)
		svc := newEarningTestService(agentRepo, earningRepo, notifySvc)

		_, err := svc.CreateEarning(ctx, CreateEarningInput{
			AgentID: uuid.New(),
			Type:    domain.EarningTypeBonus,
			Amount:  dec("-5.00"),
		})
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
		agentRepo.AssertNotCalled(t, "GetForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("InvalidType", func(t *testing.T) {
		agentRepo := new(MockAgentRepo)
		earningRepo := new(MockEarningRepo)
		notifySvc := new(MockNotificationService)
		svc := newEarningTestService(agentRepo, earningRepo, notifySvc)

		_, err := svc.CreateEarning(ctx, CreateEarningInput{
			AgentID: uuid.New(),
			Type:    domain.EarningType("GIFT"),
			Amount:  dec("5.00"),
		})
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestEarningService_ConfirmEarning(t *testing.T) {
	ctx := context.Background()

	t.Run("MovesPendingToAvailable", func(t *testing.T) {
		agentRepo := new(MockAgentRepo)
		earningRepo := new(MockEarningRepo)
		notifySvc := new(MockNotificationService)
		svc := newEarningTestService(agentRepo, earningRepo, notifySvc)

		agent := activeAgent("0", "25.00", "0")
		earningID := uuid.New()
		earning := &domain.Earning{
			ID:      earningID,
			AgentID: agent.ID,
			Status:  domain.EarningStatusPending,
			Amount:  dec("25.00"),
		}

		earningRepo.On("GetByID", ctx, earningID).Return(earning, nil).Twice()
		agentRepo.On("GetForUpdate", ctx, agent.ID).Return(agent, nil).Once()
		earningRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.Earning) bool {
			return e.Status == domain.EarningStatusConfirmed && e.ConfirmedAt != nil
		})).Return(nil).Once()
		agentRepo.On("UpdateBalances", ctx, mock.MatchedBy(func(a *domain.Agent) bool {
			return a.PendingBalance.IsZero() &&
				a.AvailableBalance.Equal(dec("25.00")) &&
				a.TotalEarnings.Equal(dec("25.00"))
		})).Return(nil).Once()
		notifySvc.On("Notify", ctx, mock.Anything).Once()

		got, err := svc.ConfirmEarning(ctx, earningID)
		require.NoError(t, err)
		assert.Equal(t, domain.EarningStatusConfirmed, got.Status)

		agentRepo.AssertExpectations(t)
		earningRepo.AssertExpectations(t)
	})

	t.Run("AlreadyConfirmed", func(t *testing.T) {
		agentRepo := new(MockAgentRepo)
		earningRepo := new(MockEarningRepo)
		notifySvc := new(MockNotificationService)
		svc := newEarningTestService(agentRepo, earningRepo, notifySvc)

		agent := activeAgent("25.00", "0", "25.00")
		earningID := uuid.New()
		earning := &domain.Earning{ID: earningID, AgentID: agent.ID, Status: domain.EarningStatusConfirmed, Amount: dec("25.00")}

		earningRepo.On("GetByID", ctx, earningID).Return(earning, nil).Twice()
		agentRepo.On("GetForUpdate", ctx, agent.ID).Return(agent, nil).Once()

		_, err := svc.ConfirmEarning(ctx, earningID)
		var serr *domain.InvalidStateError
		require.ErrorAs(t, err, &serr)
		earningRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		notifySvc.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})

	t.Run("NotFound", func(t *testing.T) {
		agentRepo := new(MockAgentRepo)
		earningRepo := new(MockEarningRepo)
		notifySvc := new(MockNotificationService)
		svc := newEarningTestService(agentRepo, earningRepo, notifySvc)

		earningID := uuid.New()
		earningRepo.On("GetByID", ctx, earningID).Return(nil, domain.ErrNotFound).Once()

		_, err := svc.ConfirmEarning(ctx, earningID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEarningService_RejectEarning(t *testing.T) {
	ctx := context.Background()
	agentRepo := new(MockAgentRepo)
	earningRepo := new(MockEarningRepo)
	notifySvc := new(MockNotificationService)
	svc := newEarningTestService(agentRepo, earningRepo, notifySvc)

	agent := activeAgent("0", "40.00", "0")
	earningID := uuid.New()
	earning := &domain.Earning{ID: earningID, AgentID: agent.ID, Status: domain.EarningStatusPending, Amount: dec("40.00")}

	earningRepo.On("GetByID", ctx, earningID).Return(earning, nil).Twice()
	agentRepo.On("GetForUpdate", ctx, agent.ID).Return(agent, nil).Once()
	earningRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.Earning) bool {
		return e.Status == domain.EarningStatusCancelled && e.RejectionReason == "suspected fraud"
	})).Return(nil).Once()
	agentRepo.On("UpdateBalances", ctx, mock.MatchedBy(func(a *domain.Agent) bool {
		return a.PendingBalance.IsZero() && a.AvailableBalance.IsZero()
	})).Return(nil).Once()
	notifySvc.On("Notify", ctx, mock.Anything).Once()

	got, err := svc.RejectEarning(ctx, earningID, "suspected fraud")
	require.NoError(t, err)
	assert.Equal(t, domain.EarningStatusCancelled, got.Status)
	agentRepo.AssertExpectations(t)
}

func TestEarningService_DisputeEarning(t *testing.T) {
	ctx := context.Background()
	agentRepo := new(MockAgentRepo)
	earningRepo := new(MockEarningRepo)
	notifySvc := new(MockNotificationService)
	svc := newEarningTestService(agentRepo, earningRepo, notifySvc)

	agent := activeAgent("30.00", "0", "30.00")
	earningID := uuid.New()
	earning := &domain.Earning{ID: earningID, AgentID: agent.ID, Status: domain.EarningStatusConfirmed, Amount: dec("30.00")}

	earningRepo.On("GetByID", ctx, earningID).Return(earning, nil).Twice()
	agentRepo.On("GetForUpdate", ctx, agent.ID).Return(agent, nil).Once()
	earningRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.Earning) bool {
		return e.Status == domain.EarningStatusDisputed
	})).Return(nil).Once()
	// The disputed value is clawed back out of available funds.
	agentRepo.On("UpdateBalances", ctx, mock.MatchedBy(func(a *domain.Agent) bool {
		return a.AvailableBalance.IsZero() && a.TotalEarnings.IsZero()
	})).Return(nil).Once()
	notifySvc.On("Notify", ctx, mock.Anything).Once()

	_, err := svc.DisputeEarning(ctx, earningID, "customer chargeback")
	require.NoError(t, err)
	agentRepo.AssertExpectations(t)
}

func TestEarningService_BulkApprove_PartialFailure(t *testing.T) {
	ctx := context.Background()
	agentRepo := new(MockAgentRepo)
	earningRepo := new(MockEarningRepo)
	notifySvc := new(MockNotificationService)
	svc := newEarningTestService(agentRepo, earningRepo, notifySvc)

	agent := activeAgent("0", "10.00", "0")
	goodID := uuid.New()
	badID := uuid.New()
	good := &domain.Earning{ID: goodID, AgentID: agent.ID, Status: domain.EarningStatusPending, Amount: dec("10.00")}

	earningRepo.On("GetByID", ctx, goodID).Return(good, nil).Twice()
	earningRepo.On("GetByID", ctx, badID).Return(nil, domain.ErrNotFound).Once()
	agentRepo.On("GetForUpdate", ctx, agent.ID).Return(agent, nil).Once()
	earningRepo.On("Update", ctx, mock.Anything).Return(nil).Once()
	agentRepo.On("UpdateBalances", ctx, mock.Anything).Return(nil).Once()
	notifySvc.On("Notify", ctx, mock.Anything).Once()

	result := svc.BulkApprove(ctx, []uuid.UUID{goodID, badID})
	assert.Equal(t, []uuid.UUID{goodID}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, badID, result.Failed[0].ID)
}

func TestEarningService_CreateAdjustment(t *testing.T) {
	ctx := context.Background()

	t.Run("NegativeBecomesPenalty", func(t *testing.T) {
		agentRepo := new(MockAgentRepo)
		earningRepo := new(MockEarningRepo)
		notifySvc := new(MockNotificationService)
		svc := newEarningTestService(agentRepo, earningRepo, notifySvc)

		agent := activeAgent("50.00", "0", "50.00")
		agentRepo.On("GetForUpdate", ctx, agent.ID).Return(agent, nil).Once()
		earningRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.Earning) bool {
			return e.Type == domain.EarningTypePenalty && e.Status == domain.EarningStatusConfirmed
		})).Return(nil).Once()
		agentRepo.On("UpdateBalances", ctx, mock.MatchedBy(func(a *domain.Agent) bool {
			return a.AvailableBalance.Equal(dec("30.00")) && a.TotalEarnings.Equal(dec("30.00"))
		})).Return(nil).Once()
		notifySvc.On("Notify", ctx, mock.Anything).Once()

		earning, err := svc.CreateAdjustment(ctx, agent.ID, dec("-20.00"), "SIM top-up clawback")
		require.NoError(t, err)
		assert.Equal(t, domain.EarningTypePenalty, earning.Type)
	})

	t.Run("NegativeExceedsAvailable", func(t *testing.T) {
		agentRepo := new(MockAgentRepo)
		earningRepo := new(MockEarningRepo)
		notifySvc := new(MockNotificationService)
		svc := newEarningTestService(agentRepo, earningRepo, notifySvc)

		agent := activeAgent("5.00", "0", "5.00")
		agentRepo.On("GetForUpdate", ctx, agent.ID).Return(agent, nil).Once()

		_, err := svc.CreateAdjustment(ctx, agent.ID, dec("-20.00"), "too big")
		var ibe *domain.InsufficientBalanceError
		require.ErrorAs(t, err, &ibe)
		earningRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("ZeroAmountRejected", func(t *testing.T) {
		svc := newEarningTestService(new(MockAgentRepo), new(MockEarningRepo), new(MockNotificationService))
		_, err := svc.CreateAdjustment(ctx, uuid.New(), decimal.Zero, "noop")
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}
