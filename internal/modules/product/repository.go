package product

import "context"

// Repository defines the interface for product data storage.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByCode(ctx context.Context, code string) (*Product, error)
	// List returns one page of products and the total match count.
	List(ctx context.Context, f ListFilter) ([]*Product, int, error)
	Update(ctx context.Context, p *Product) error
}
