package order

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	// ListByUser and ListAll return newest orders first.
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	ListAll(ctx context.Context) ([]*Order, error)
	// FindByPaymentID returns ErrOrderNotFound when no order carries the payment.
	FindByPaymentID(ctx context.Context, paymentID string) (*Order, error)
	// MarkPaid applies only to an unpaid order and reports whether it did.
	// A payment id already recorded on another order yields ErrPaymentReused.
	MarkPaid(ctx context.Context, id string, result PaymentResult, at time.Time) (bool, error)
	// MarkDelivered applies only to a paid, undelivered order and reports whether it did.
	MarkDelivered(ctx context.Context, id string, at time.Time) (bool, error)
}
