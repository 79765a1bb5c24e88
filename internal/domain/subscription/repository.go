package subscription

import "context"

// Repository persists subscriptions.
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, firmID, id int64) (*Subscription, error)
	// ListActive returns every active subscription across all firms; each
	// row carries its own FirmID. The generation batch iterates this.
	ListActive(ctx context.Context) ([]*Subscription, error)
	ListActiveByFirm(ctx context.Context, firmID int64) ([]*Subscription, error)
	Deactivate(ctx context.Context, firmID, id int64) error
}
