package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"planettalk-agent-backend/internal/domain"
	"planettalk-agent-backend/internal/repository"
)

type notificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now().UTC()

	attrs, err := json.Marshal(n.Attributes)
	if err != nil {
		return err
	}
	query := `INSERT INTO notifications (id, agent_id, type, priority, title, message, is_read, attributes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.db.ExecContext(ctx, query, n.ID, n.AgentID, n.Type, n.Priority, n.Title,
		n.Message, n.IsRead, attrs, n.CreatedAt)
	return err
}

func (r *notificationRepository) List(ctx context.Context, agentID uuid.UUID, limit, offset int32) ([]domain.Notification, int32, error) {
	query := `SELECT id, agent_id, type, priority, title, message, is_read, attributes, created_at
	          FROM notifications WHERE agent_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, agentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notes []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var attrs []byte
		if err := rows.Scan(&n.ID, &n.AgentID, &n.Type, &n.Priority, &n.Title, &n.Message,
			&n.IsRead, &attrs, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &n.Attributes); err != nil {
				return nil, 0, err
			}
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM notifications WHERE agent_id = $1`, agentID).Scan(&count); err != nil {
		return nil, 0, err
	}
	return notes, count, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, agentID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND agent_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, agentID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
