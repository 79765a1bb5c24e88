package database

import (
	"context"
	"database/sql"
	"fmt"

	"practice_reminder_service/internal/domain/notify"
)

type PostgresNotifyRepository struct {
	db *sql.DB
}

func NewPostgresNotifyRepository(db *sql.DB) *PostgresNotifyRepository {
	return &PostgresNotifyRepository{db: db}
}

// CreateIfAbsent dedups on the (user_id, kind, created_on) unique index so a
// user gets at most one in-app notification of a kind per day.
func (r *PostgresNotifyRepository) CreateIfAbsent(ctx context.Context, n *notify.Notification) (bool, error) {
	query := `INSERT INTO notifications (firm_id, user_id, kind, title, message, priority, link, created_on)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
               ON CONFLICT (user_id, kind, created_on) DO NOTHING
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		n.FirmID, n.UserID, n.Kind, n.Title, n.Message, n.Priority, n.Link, n.CreatedOn,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("error creating notification: %w", err)
	}
	return true, nil
}
