package task

import (
	"context"
	"time"
)

// Repository persists task instances.
type Repository interface {
	Create(ctx context.Context, inst *Instance) error
	GetByID(ctx context.Context, firmID, id int64) (*Instance, error)
	Update(ctx context.Context, inst *Instance) error

	// LatestForSubscription returns the instance with the greatest due date,
	// or ErrInstanceNotFound when none exists yet.
	LatestForSubscription(ctx context.Context, firmID, subscriptionID int64) (*Instance, error)

	// ListOpenPastDue returns open instances (NOT_STARTED, STARTED, PAUSED)
	// with due_date strictly before the given day, across all firms.
	ListOpenPastDue(ctx context.Context, before time.Time) ([]*Instance, error)
	// BulkMarkOverdue transitions ids to OVERDUE, returning rows affected.
	BulkMarkOverdue(ctx context.Context, ids []int64) (int64, error)

	// ListAutoStartCandidates returns NOT_STARTED instances of auto-driven,
	// auto-start work types whose period has begun on or before the day.
	ListAutoStartCandidates(ctx context.Context, onOrBefore time.Time) ([]*Instance, error)
}
