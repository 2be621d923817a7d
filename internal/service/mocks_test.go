package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"planettalk-agent-backend/internal/domain"
	"planettalk-agent-backend/internal/repository"
)

// fakeTxManager runs the transactional closure directly against the mock
// repositories, without a database.
type fakeTxManager struct {
	repos repository.Repositories
}

func (f *fakeTxManager) WithTx(_ context.Context, fn func(r repository.Repositories) error) error {
	return fn(f.repos)
}

type MockAgentRepo struct {
	mock.Mock
}

func (m *MockAgentRepo) Create(ctx context.Context, agent *domain.Agent) error {
	return m.Called(ctx, agent).Error(0)
}

func (m *MockAgentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentRepo) GetByCode(ctx context.Context, code string) (*domain.Agent, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentRepo) Update(ctx context.Context, agent *domain.Agent) error {
	return m.Called(ctx, agent).Error(0)
}

func (m *MockAgentRepo) UpdateBalances(ctx context.Context, agent *domain.Agent) error {
	return m.Called(ctx, agent).Error(0)
}

func (m *MockAgentRepo) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockAgentRepo) DeactivateInactiveSince(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockEarningRepo struct {
	mock.Mock
}

func (m *MockEarningRepo) Create(ctx context.Context, earning *domain.Earning) error {
	return m.Called(ctx, earning).Error(0)
}

func (m *MockEarningRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Earning, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Earning), args.Error(1)
}

func (m *MockEarningRepo) Update(ctx context.Context, earning *domain.Earning) error {
	return m.Called(ctx, earning).Error(0)
}

func (m *MockEarningRepo) ListByAgent(ctx context.Context, agentID uuid.UUID, status domain.EarningStatus, page, pageSize int32) ([]domain.Earning, int32, error) {
	args := m.Called(ctx, agentID, status, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int32), args.Error(2)
	}
	return args.Get(0).([]domain.Earning), args.Get(1).(int32), args.Error(2)
}

func (m *MockEarningRepo) SumByStatuses(ctx context.Context, agentID uuid.UUID, statuses ...domain.EarningStatus) (decimal.Decimal, error) {
	callArgs := []any{ctx, agentID}
	for _, s := range statuses {
		callArgs = append(callArgs, s)
	}
	args := m.Called(callArgs...)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockPayoutRepo struct {
	mock.Mock
}

func (m *MockPayoutRepo) Create(ctx context.Context, payout *domain.Payout) error {
	return m.Called(ctx, payout).Error(0)
}

func (m *MockPayoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payout), args.Error(1)
}

func (m *MockPayoutRepo) Update(ctx context.Context, payout *domain.Payout) error {
	return m.Called(ctx, payout).Error(0)
}

func (m *MockPayoutRepo) ListByAgent(ctx context.Context, agentID uuid.UUID, status domain.PayoutStatus, page, pageSize int32) ([]domain.Payout, int32, error) {
	args := m.Called(ctx, agentID, status, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int32), args.Error(2)
	}
	return args.Get(0).([]domain.Payout), args.Get(1).(int32), args.Error(2)
}

func (m *MockPayoutRepo) ListByStatus(ctx context.Context, status domain.PayoutStatus, limit int32) ([]domain.Payout, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payout), args.Error(1)
}

func (m *MockPayoutRepo) CountInFlight(ctx context.Context, agentID uuid.UUID) (int32, error) {
	args := m.Called(ctx, agentID)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockPayoutRepo) SumByStatuses(ctx context.Context, agentID uuid.UUID, statuses ...domain.PayoutStatus) (decimal.Decimal, error) {
	callArgs := []any{ctx, agentID}
	for _, s := range statuses {
		callArgs = append(callArgs, s)
	}
	args := m.Called(callArgs...)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Notify(ctx context.Context, n *domain.Notification) {
	m.Called(ctx, n)
}

func (m *MockNotificationService) GetNotifications(ctx context.Context, agentID uuid.UUID, page, pageSize int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, agentID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int32), args.Error(2)
	}
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}

func (m *MockNotificationService) MarkAsRead(ctx context.Context, agentID, notificationID uuid.UUID) error {
	return m.Called(ctx, agentID, notificationID).Error(0)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendPayoutRequested(ctx context.Context, email, name string, amount decimal.Decimal, currency string, method domain.PayoutMethod) error {
	return m.Called(ctx, email, name, amount, currency, method).Error(0)
}

func (m *MockEmailService) SendPayoutApproved(ctx context.Context, email, name string, amount decimal.Decimal, currency string) error {
	return m.Called(ctx, email, name, amount, currency).Error(0)
}

func (m *MockEmailService) SendPayoutCompleted(ctx context.Context, email, name string, netAmount decimal.Decimal, currency string) error {
	return m.Called(ctx, email, name, netAmount, currency).Error(0)
}

type MockEarningService struct {
	mock.Mock
}

func (m *MockEarningService) CreateEarning(ctx context.Context, input CreateEarningInput) (*domain.Earning, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Earning), args.Error(1)
}

func (m *MockEarningService) ConfirmEarning(ctx context.Context, earningID uuid.UUID) (*domain.Earning, error) {
	args := m.Called(ctx, earningID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Earning), args.Error(1)
}

func (m *MockEarningService) RejectEarning(ctx context.Context, earningID uuid.UUID, reason string) (*domain.Earning, error) {
	args := m.Called(ctx, earningID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Earning), args.Error(1)
}

func (m *MockEarningService) DisputeEarning(ctx context.Context, earningID uuid.UUID, reason string) (*domain.Earning, error) {
	args := m.Called(ctx, earningID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Earning), args.Error(1)
}

func (m *MockEarningService) MarkEarningPaid(ctx context.Context, earningID uuid.UUID) (*domain.Earning, error) {
	args := m.Called(ctx, earningID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Earning), args.Error(1)
}

func (m *MockEarningService) BulkApprove(ctx context.Context, earningIDs []uuid.UUID) *BulkResult {
	return m.Called(ctx, earningIDs).Get(0).(*BulkResult)
}

func (m *MockEarningService) BulkReject(ctx context.Context, earningIDs []uuid.UUID, reason string) *BulkResult {
	return m.Called(ctx, earningIDs, reason).Get(0).(*BulkResult)
}

func (m *MockEarningService) CreateAdjustment(ctx context.Context, agentID uuid.UUID, amount decimal.Decimal, description string) (*domain.Earning, error) {
	args := m.Called(ctx, agentID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Earning), args.Error(1)
}

func (m *MockEarningService) GetEarning(ctx context.Context, earningID uuid.UUID) (*domain.Earning, error) {
	args := m.Called(ctx, earningID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Earning), args.Error(1)
}

func (m *MockEarningService) ListEarnings(ctx context.Context, agentID uuid.UUID, status domain.EarningStatus, page, pageSize int32) ([]domain.Earning, int32, error) {
	args := m.Called(ctx, agentID, status, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int32), args.Error(2)
	}
	return args.Get(0).([]domain.Earning), args.Get(1).(int32), args.Error(2)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func activeAgent(available, pending, total string) *domain.Agent {
	return &domain.Agent{
		ID:               uuid.New(),
		Code:             "PT-2001",
		Name:             "Kofi Mensah",
		Email:            "kofi@example.com",
		Status:           domain.AgentStatusActive,
		Tier:             domain.AgentTierSilver,
		CommissionRate:   dec("10"),
		TotalEarnings:    dec(total),
		AvailableBalance: dec(available),
		PendingBalance:   dec(pending),
	}
}
