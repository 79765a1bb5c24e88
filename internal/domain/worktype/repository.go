package worktype

import "context"

// Repository provides read access to work type configuration. The engine
// never writes work types.
type Repository interface {
	GetByID(ctx context.Context, firmID, id int64) (*WorkType, error)
	ListActiveRules(ctx context.Context, firmID, workTypeID int64) ([]*ReminderRule, error)
}
