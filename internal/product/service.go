package product

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront-be/internal/apperr"
	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	List(ctx context.Context, keyword string, page int) (*ListResult, error)
	All(ctx context.Context) ([]*Product, error)
	Top(ctx context.Context) ([]*Product, error)
	GetByID(ctx context.Context, productID string) (*Product, error)

	Create(ctx context.Context, owner auth.Identity) (*Product, error)
	Update(ctx context.Context, productID string, params UpdateParams) (*Product, error)
	Delete(ctx context.Context, productID string) error

	CreateReview(ctx context.Context, reviewer auth.Identity, productID string, params ReviewParams) error
}

type service struct {
	repo     Repository
	pageSize int
	topN     int
	now      func() time.Time
}

func NewService(repo Repository, pageSize, topN int) Service {
	if pageSize <= 0 {
		pageSize = 10
	}
	if topN <= 0 {
		topN = 3
	}
	return &service{repo: repo, pageSize: pageSize, topN: topN, now: time.Now}
}

func (s *service) List(ctx context.Context, keyword string, page int) (*ListResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "List"),
	)
	start := time.Now()

	if page < 1 {
		page = 1
	}
	keyword = strings.TrimSpace(keyword)

	count, err := s.repo.Count(ctx, keyword)
	if err != nil {
		log.Error("failed to count products", zap.Error(err))
		return nil, err
	}

	pages := utils.PageCount(count, s.pageSize)

	// Pages past the end are served empty; comparing before multiplying keeps
	// huge page numbers from overflowing the offset.
	products := []*Product{}
	if page <= pages {
		products, err = s.repo.List(ctx, keyword, s.pageSize, (page-1)*s.pageSize)
		if err != nil {
			log.Error("failed to list products", zap.Error(err))
			return nil, err
		}
	}

	log.Debug("product list served",
		zap.String("keyword", keyword),
		zap.Int("page", page),
		zap.Int("count", len(products)),
		zap.Duration("duration", time.Since(start)),
	)

	return &ListResult{Products: products, Page: page, Pages: pages}, nil
}

func (s *service) All(ctx context.Context) ([]*Product, error) {
	return s.repo.All(ctx)
}

func (s *service) Top(ctx context.Context) ([]*Product, error) {
	return s.repo.Top(ctx, s.topN)
}

func (s *service) GetByID(ctx context.Context, productID string) (*Product, error) {
	return s.repo.FindByID(ctx, productID)
}

// Create inserts a placeholder product for the admin to edit afterwards.
func (s *service) Create(ctx context.Context, owner auth.Identity) (*Product, error) {
	now := s.now()
	p := &Product{
		User:         owner.UserID,
		Name:         "Sample name",
		Price:        0,
		Image:        "/images/sample.jpg",
		Brand:        "Sample brand",
		Category:     "Sample category",
		CountInStock: 0,
		Description:  "Sample description",
		Reviews:      []Review{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("product created", zap.String("product_id", p.ID))
	return p, nil
}

func validateUpdate(params UpdateParams) error {
	if strings.TrimSpace(params.Name) == "" {
		return apperr.Validation("name is required")
	}
	if params.Price < 0 {
		return apperr.Validation("price cannot be negative")
	}
	if params.CountInStock < 0 {
		return apperr.Validation("countInStock cannot be negative")
	}
	return nil
}

func (s *service) Update(ctx context.Context, productID string, params UpdateParams) (*Product, error) {
	if err := validateUpdate(params); err != nil {
		return nil, err
	}

	p, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	p.Name = strings.TrimSpace(params.Name)
	p.Price = params.Price
	p.Description = params.Description
	p.Image = params.Image
	p.Brand = params.Brand
	p.Category = params.Category
	p.CountInStock = params.CountInStock
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("product updated", zap.String("product_id", p.ID))
	return p, nil
}

func (s *service) Delete(ctx context.Context, productID string) error {
	if err := s.repo.Delete(ctx, productID); err != nil {
		return err
	}
	logger.FromCtx(ctx).Info("product removed", zap.String("product_id", productID))
	return nil
}

func (s *service) CreateReview(ctx context.Context, reviewer auth.Identity, productID string, params ReviewParams) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateReview"),
		zap.String("product_id", productID),
	)

	if params.Rating < 1 || params.Rating > 5 {
		return apperr.Validation("rating must be between %d and %d", 1, 5)
	}
	comment := strings.TrimSpace(params.Comment)
	if comment == "" {
		return apperr.Validation("comment is required")
	}

	p, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if p.HasReviewFrom(reviewer.UserID) {
		return ErrAlreadyReviewed
	}

	now := s.now()
	review := Review{
		Name:      reviewer.Name,
		Rating:    params.Rating,
		Comment:   comment,
		User:      reviewer.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.AppendReview(ctx, productID, review); err != nil {
		if !errors.Is(err, ErrAlreadyReviewed) && !errors.Is(err, ErrProductNotFound) {
			log.Error("failed to append review", zap.Error(err))
		}
		return err
	}

	log.Info("review added", zap.Int("rating", params.Rating))
	return nil
}
