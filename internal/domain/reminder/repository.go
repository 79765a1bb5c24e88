package reminder

import (
	"context"
	"time"
)

// Repository persists reminder instances.
type Repository interface {
	// CreateIfAbsent inserts the reminder unless an active (PENDING or SENT)
	// one already exists for the same (task instance, recipient, date).
	// Returns false without error when the row was deduplicated; concurrent
	// generation races collapse here instead of surfacing.
	CreateIfAbsent(ctx context.Context, rem *Instance) (bool, error)

	GetByID(ctx context.Context, id int64) (*Instance, error)
	Update(ctx context.Context, rem *Instance) error
	ListByTask(ctx context.Context, firmID, taskInstanceID int64) ([]*Instance, error)

	// ListDue returns PENDING reminders scheduled at or before now, oldest
	// first, across all firms.
	ListDue(ctx context.Context, now time.Time) ([]*Instance, error)

	// CancelFuturePending cancels only PENDING reminders scheduled after the
	// given time; past and SENT rows are untouched.
	CancelFuturePending(ctx context.Context, taskInstanceID int64, after time.Time) (int64, error)
	// SkipPending marks every PENDING reminder for the task SKIPPED.
	SkipPending(ctx context.Context, taskInstanceID int64) (int64, error)
}
