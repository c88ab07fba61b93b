package investments

import "context"
import "time"

// ListFilter narrows List/Paginate queries
type ListFilter struct {
	Status    string
	CompanyID string
}

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, inv *Investment) error
	Get(ctx context.Context, tenant string, id InvestmentID) (*Investment, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*Investment, error)
	Summary(ctx context.Context, tenant string, sinceDays int) (Summary, error)

	Paginate(ctx context.Context, tenant string, page, pageSize int, f ListFilter) (PaginatedResult, error)
	Cursor(ctx context.Context, tenant string, cursorTime time.Time, cursorID string, pageSize int) ([]*Investment, error)

	UpdateHealth(ctx context.Context, tenant string, u HealthUpdate) error
}
