package companies

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, c *Company) error
	Get(ctx context.Context, tenant string, id CompanyID) (*Company, error)
	List(ctx context.Context, tenant string, limit int) ([]*Company, error)
}
