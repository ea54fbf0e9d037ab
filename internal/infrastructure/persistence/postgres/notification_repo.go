package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/alem-hub/mentorship-hub/internal/domain/collaboration"
)

// NotificationRepository is the in-app notification sink. It writes through
// the caller's transaction, so a notification commits or rolls back together
// with the state change that produced it.
type NotificationRepository struct {
	conn *Connection
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

// Notify implements collaboration.Notifier.
func (r *NotificationRepository) Notify(ctx context.Context, n collaboration.Notification) error {
	query := `
		INSERT INTO notifications (receiver_mentor_id, title, message, target_route)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.conn.querier(ctx).Exec(ctx, query, n.ReceiverMentorID, n.Title, n.Message, n.TargetRoute); err != nil {
		return classify("Notify", fmt.Errorf("failed to record notification: %w", err))
	}
	return nil
}

// StoredNotification is a persisted notification row.
type StoredNotification struct {
	ID        string
	collaboration.Notification
	IsRead    bool
	CreatedAt time.Time
}

// ListForMentor returns a mentor's notifications, newest first.
func (r *NotificationRepository) ListForMentor(ctx context.Context, mentorID string, limit int) ([]StoredNotification, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id::text, receiver_mentor_id::text, title, message, target_route, is_read, created_at
		FROM notifications
		WHERE receiver_mentor_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.querier(ctx).Query(ctx, query, mentorID, limit)
	if err != nil {
		return nil, classify("ListNotifications", fmt.Errorf("failed to list notifications: %w", err))
	}
	defer rows.Close()

	out := make([]StoredNotification, 0)
	for rows.Next() {
		var n StoredNotification
		if err := rows.Scan(&n.ID, &n.ReceiverMentorID, &n.Title, &n.Message, &n.TargetRoute, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
