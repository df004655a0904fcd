package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"storefront-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const pgUniqueViolation = "23505"

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

const orderColumns = `id, user_id, order_items, shipping_address, payment_method, payment_result,
	items_price, tax_price, shipping_price, total_price,
	is_paid, paid_at, is_delivered, delivered_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o                   Order
		items, address      []byte
		result              []byte
		paidAt, deliveredAt sql.NullTime
	)
	err := row.Scan(
		&o.ID, &o.User, &items, &address, &o.PaymentMethod, &result,
		&o.ItemsPrice, &o.TaxPrice, &o.ShippingPrice, &o.TotalPrice,
		&o.IsPaid, &paidAt, &o.IsDelivered, &deliveredAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &o.OrderItems); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
		return nil, err
	}
	if len(result) > 0 {
		o.PaymentResult = &PaymentResult{}
		if err := json.Unmarshal(result, o.PaymentResult); err != nil {
			return nil, err
		}
	}
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	if deliveredAt.Valid {
		o.DeliveredAt = &deliveredAt.Time
	}
	return &o, nil
}

func (r *postgresRepository) Create(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	items, err := json.Marshal(o.OrderItems)
	if err != nil {
		return err
	}
	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, order_items, shipping_address, payment_method,
			items_price, tax_price, shipping_price, total_price,
			is_paid, is_delivered, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, FALSE, $10, $11)`,
		o.ID, o.User, items, address, o.PaymentMethod,
		o.ItemsPrice, o.TaxPrice, o.ShippingPrice, o.TotalPrice,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to insert order",
			zap.String("user_id", o.User),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

func (r *postgresRepository) query(ctx context.Context, query string, args ...any) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	return r.query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]*Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
}

func (r *postgresRepository) FindByPaymentID(ctx context.Context, paymentID string) (*Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_result->>'id' = $1 LIMIT 1`,
		paymentID,
	)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

func (r *postgresRepository) MarkPaid(ctx context.Context, id string, result PaymentResult, at time.Time) (bool, error) {
	doc, err := json.Marshal(result)
	if err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET is_paid = TRUE,
			paid_at = $2,
			payment_result = $3,
			updated_at = $2
		WHERE id = $1 AND is_paid = FALSE`,
		id, at, doc,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return false, ErrPaymentReused
		}
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *postgresRepository) MarkDelivered(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET is_delivered = TRUE,
			delivered_at = $2,
			updated_at = $2
		WHERE id = $1 AND is_paid = TRUE AND is_delivered = FALSE`,
		id, at,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
