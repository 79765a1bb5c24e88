package directory

import "context"

// Repository provides read access to firms, clients and employees. The CRUD
// screens that maintain them live outside this service.
type Repository interface {
	GetFirm(ctx context.Context, id int64) (*Firm, error)
	GetClient(ctx context.Context, firmID, id int64) (*Client, error)
	GetEmployee(ctx context.Context, firmID, id int64) (*Employee, error)
}
