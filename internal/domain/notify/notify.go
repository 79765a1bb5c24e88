package notify

import (
	"context"
	"database/sql"
	"time"
)

// Kind classifies an in-app notification. The dedup key includes it, so one
// user can receive a reminder and an overdue alert on the same day but never
// two of either.
type Kind string

const (
	KindTaskReminder Kind = "TASK_REMINDER"
	KindTaskOverdue  Kind = "TASK_OVERDUE"
)

// Priority orders notifications in the in-app inbox.
type Priority string

const (
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
)

// Notification is one in-app message for an employee.
type Notification struct {
	ID        int64
	FirmID    int64
	UserID    int64
	Kind      Kind
	Title     string
	Message   string
	Priority  Priority
	Link      sql.NullString
	CreatedOn time.Time
	CreatedAt time.Time
}

// Repository persists in-app notifications.
type Repository interface {
	// CreateIfAbsent inserts the notification unless one already exists for
	// the same (user, kind, date). Returns false when deduplicated.
	CreateIfAbsent(ctx context.Context, n *Notification) (bool, error)
}
