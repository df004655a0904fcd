package product

import "context"

type Repository interface {
	// List returns one page of products whose name contains keyword, ignoring case.
	List(ctx context.Context, keyword string, limit, offset int) ([]*Product, error)
	Count(ctx context.Context, keyword string) (int64, error)
	All(ctx context.Context) ([]*Product, error)
	Top(ctx context.Context, n int) ([]*Product, error)
	FindByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	// Update writes catalog attributes only; reviews and the rating aggregate are untouched.
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	// AppendReview adds r and recomputes rating and numReviews in the same
	// write. It fails with ErrAlreadyReviewed when r.User already reviewed the product.
	AppendReview(ctx context.Context, productID string, r Review) error
}
