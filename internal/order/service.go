package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront-be/internal/apperr"
	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/payment"
	"storefront-be/internal/product"
	"storefront-be/internal/user"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Catalog supplies the live product data copied into line items.
type Catalog interface {
	GetByID(ctx context.Context, productID string) (*product.Product, error)
}

// Directory resolves order owners for populated responses.
type Directory interface {
	GetByID(ctx context.Context, userID string) (*user.User, error)
}

type Service interface {
	Create(ctx context.Context, owner auth.Identity, params CreateParams) (*Order, error)
	GetByID(ctx context.Context, caller auth.Identity, orderID string) (*View, error)
	ListMine(ctx context.Context, caller auth.Identity) ([]*Order, error)
	ListAll(ctx context.Context) ([]*View, error)
	Pay(ctx context.Context, caller auth.Identity, orderID string, receipt payment.Receipt) (*Order, error)
	Deliver(ctx context.Context, orderID string) (*Order, error)
}

type service struct {
	repo     Repository
	catalog  Catalog
	users    Directory
	verifier payment.Verifier
	policy   Policy
	now      func() time.Time
}

func NewService(repo Repository, catalog Catalog, users Directory, verifier payment.Verifier, policy Policy) Service {
	return &service{
		repo:     repo,
		catalog:  catalog,
		users:    users,
		verifier: verifier,
		policy:   policy,
		now:      time.Now,
	}
}

func validateCreate(params CreateParams) error {
	if len(params.OrderItems) == 0 {
		return ErrEmptyOrder
	}
	for i, it := range params.OrderItems {
		if strings.TrimSpace(it.Product) == "" {
			return apperr.Validation("product is required at index %d", i)
		}
		if it.Qty < 1 {
			return apperr.Validation("qty must be at least 1 at index %d", i)
		}
	}
	if !params.ShippingAddress.complete() {
		return apperr.Validation("shipping address is incomplete")
	}
	if strings.TrimSpace(params.PaymentMethod) == "" {
		return apperr.Validation("payment method is required")
	}
	return nil
}

func (s *service) Create(ctx context.Context, owner auth.Identity, params CreateParams) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
	)

	if err := validateCreate(params); err != nil {
		return nil, err
	}

	items := make([]OrderItem, 0, len(params.OrderItems))
	for _, in := range params.OrderItems {
		p, err := s.catalog.GetByID(ctx, in.Product)
		if err != nil {
			if errors.Is(err, product.ErrProductNotFound) {
				return nil, apperr.Newf(apperr.KindNotFound, "Product %s not found", in.Product)
			}
			return nil, err
		}
		items = append(items, OrderItem{
			Name:    p.Name,
			Qty:     in.Qty,
			Image:   p.Image,
			Price:   p.Price,
			Product: p.ID,
		})
	}

	now := s.now()
	o := &Order{
		User:            owner.UserID,
		OrderItems:      items,
		ShippingAddress: params.ShippingAddress,
		PaymentMethod:   strings.TrimSpace(params.PaymentMethod),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.policy.Calculate(items).apply(o)

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	log.Info("order created",
		zap.String("order_id", o.ID),
		zap.Int("items", len(items)),
		zap.Float64("total", o.TotalPrice),
	)
	return o, nil
}

func (s *service) GetByID(ctx context.Context, caller auth.Identity, orderID string) (*View, error) {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccess(o.User) {
		return nil, ErrForbidden
	}

	customer, err := s.customer(ctx, o.User)
	if err != nil {
		return nil, err
	}
	return &View{Order: o, User: customer}, nil
}

func (s *service) ListMine(ctx context.Context, caller auth.Identity) ([]*Order, error) {
	return s.repo.ListByUser(ctx, caller.UserID)
}

func (s *service) ListAll(ctx context.Context) ([]*View, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]Customer)
	views := make([]*View, 0, len(orders))
	for _, o := range orders {
		c, ok := seen[o.User]
		if !ok {
			c, err = s.customer(ctx, o.User)
			if err != nil {
				return nil, err
			}
			c.Email = ""
			seen[o.User] = c
		}
		views = append(views, &View{Order: o, User: c})
	}
	return views, nil
}

// customer falls back to the bare id when the owner account no longer exists.
func (s *service) customer(ctx context.Context, userID string) (Customer, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return Customer{ID: userID}, nil
		}
		return Customer{}, err
	}
	return Customer{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

func (s *service) Pay(ctx context.Context, caller auth.Identity, orderID string, receipt payment.Receipt) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PayOrder"),
		zap.String("order_id", orderID),
	)

	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccess(o.User) {
		return nil, ErrForbidden
	}
	if o.IsPaid {
		return nil, ErrOrderAlreadyPaid
	}

	capture, err := s.verifier.Verify(ctx, receipt)
	if err != nil {
		return nil, err
	}
	if !capture.Completed() {
		log.Warn("payment rejected: not completed", zap.String("status", capture.Status))
		return nil, ErrPaymentIncomplete
	}
	if !capture.HasAmount {
		return nil, ErrPaymentAmountMissing
	}
	total := decimal.NewFromFloat(o.TotalPrice).Round(2)
	if !capture.Amount.Round(2).Equal(total) {
		log.Warn("payment rejected: amount mismatch",
			zap.String("paid", capture.Amount.StringFixed(2)),
			zap.String("total", total.StringFixed(2)),
		)
		return nil, ErrAmountMismatch
	}
	if s.policy.Currency != "" && !strings.EqualFold(capture.Currency, s.policy.Currency) {
		log.Warn("payment rejected: currency mismatch",
			zap.String("paid", capture.Currency),
			zap.String("expected", s.policy.Currency),
		)
		return nil, ErrCurrencyMismatch
	}

	switch prior, err := s.repo.FindByPaymentID(ctx, capture.ID); {
	case err == nil && prior.ID != o.ID:
		log.Warn("payment rejected: already applied", zap.String("payment_id", capture.ID), zap.String("paid_order", prior.ID))
		return nil, ErrPaymentReused
	case err != nil && !errors.Is(err, ErrOrderNotFound):
		log.Error("failed to look up payment", zap.Error(err))
		return nil, err
	}

	result := PaymentResult{
		ID:           capture.ID,
		Status:       capture.Status,
		UpdateTime:   capture.UpdateTime,
		EmailAddress: capture.EmailAddress,
	}
	now := s.now()

	applied, err := s.repo.MarkPaid(ctx, o.ID, result, now)
	if errors.Is(err, ErrPaymentReused) {
		return nil, err
	}
	if err != nil {
		log.Error("failed to mark order paid", zap.Error(err))
		return nil, err
	}
	if !applied {
		return nil, s.rejectedTransition(ctx, o.ID, ErrOrderAlreadyPaid)
	}

	o.IsPaid = true
	o.PaidAt = &now
	o.PaymentResult = &result
	o.UpdatedAt = now

	log.Info("order paid", zap.String("payment_id", result.ID))
	return o, nil
}

func (s *service) Deliver(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsPaid {
		return nil, ErrOrderNotPaid
	}
	if o.IsDelivered {
		return nil, ErrOrderAlreadyDelivered
	}

	now := s.now()
	applied, err := s.repo.MarkDelivered(ctx, o.ID, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, s.rejectedTransition(ctx, o.ID, ErrOrderAlreadyDelivered)
	}

	o.IsDelivered = true
	o.DeliveredAt = &now
	o.UpdatedAt = now

	logger.FromCtx(ctx).Info("order delivered", zap.String("order_id", o.ID))
	return o, nil
}

// rejectedTransition explains a guarded update that matched nothing: the
// order was removed or a concurrent request got there first.
func (s *service) rejectedTransition(ctx context.Context, orderID string, raced error) error {
	if _, err := s.repo.FindByID(ctx, orderID); err != nil {
		return err
	}
	return raced
}
