package service

import (
	"context"

	"github.com/google/uuid"

	"planettalk-agent-backend/internal/domain"
	"planettalk-agent-backend/internal/logger"
	"planettalk-agent-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

// Notify persists a notification row. Failures are logged and swallowed so a
// notification problem never aborts the ledger operation that triggered it.
func (s *notificationService) Notify(ctx context.Context, n *domain.Notification) {
	if n.Priority == "" {
		n.Priority = domain.NotificationPriorityNormal
	}
	if err := s.noteRepo.Create(ctx, n); err != nil {
		logger.Warn("Failed to persist notification", "agent_id", n.AgentID, "type", n.Type, "error", err)
	}
}

func (s *notificationService) GetNotifications(ctx context.Context, agentID uuid.UUID, page, pageSize int32) ([]domain.Notification, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.noteRepo.List(ctx, agentID, pageSize, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, agentID, notificationID uuid.UUID) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, agentID)
}
