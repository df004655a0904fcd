package product

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"storefront-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

const productColumns = `id, user_id, name, image, brand, category, description, reviews, rating, num_reviews, price, count_in_stock, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		p       Product
		reviews []byte
	)
	err := row.Scan(
		&p.ID, &p.User, &p.Name, &p.Image, &p.Brand, &p.Category, &p.Description,
		&reviews, &p.Rating, &p.NumReviews, &p.Price, &p.CountInStock,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Reviews = []Review{}
	if len(reviews) > 0 {
		if err := json.Unmarshal(reviews, &p.Reviews); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// likePattern builds an ILIKE pattern that matches keyword literally anywhere in the value.
func likePattern(keyword string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(keyword)
	return "%" + escaped + "%"
}

func (r *postgresRepository) query(ctx context.Context, query string, args ...any) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *postgresRepository) List(ctx context.Context, keyword string, limit, offset int) ([]*Product, error) {
	return r.query(ctx,
		`SELECT `+productColumns+` FROM products WHERE name ILIKE $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`,
		likePattern(keyword), limit, offset,
	)
}

func (r *postgresRepository) Count(ctx context.Context, keyword string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE name ILIKE $1`,
		likePattern(keyword),
	).Scan(&n)
	return n, err
}

func (r *postgresRepository) All(ctx context.Context) ([]*Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
}

func (r *postgresRepository) Top(ctx context.Context, n int) ([]*Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY rating DESC LIMIT $1`, n)
}

func (r *postgresRepository) FindByID(ctx context.Context, id string) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (r *postgresRepository) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Reviews == nil {
		p.Reviews = []Review{}
	}
	reviews, err := json.Marshal(p.Reviews)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.User, p.Name, p.Image, p.Brand, p.Category, p.Description,
		reviews, p.Rating, p.NumReviews, p.Price, p.CountInStock, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to insert product", zap.Error(err))
		return err
	}
	return nil
}

func (r *postgresRepository) Update(ctx context.Context, p *Product) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2,
			price = $3,
			description = $4,
			image = $5,
			brand = $6,
			category = $7,
			count_in_stock = $8,
			updated_at = $9
		WHERE id = $1`,
		p.ID, p.Name, p.Price, p.Description, p.Image, p.Brand, p.Category, p.CountInStock, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *postgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *postgresRepository) AppendReview(ctx context.Context, productID string, review Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	doc, err := json.Marshal(review)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET reviews = reviews || jsonb_build_array($2::jsonb),
			num_reviews = jsonb_array_length(reviews) + 1,
			rating = (
				SELECT AVG((e->>'rating')::numeric)::double precision
				FROM jsonb_array_elements(reviews || jsonb_build_array($2::jsonb)) AS e
			),
			updated_at = $4
		WHERE id = $1
			AND NOT reviews @> jsonb_build_array(jsonb_build_object('user', $3::text))`,
		productID, string(doc), review.User, review.UpdatedAt,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrProductNotFound
	}
	return ErrAlreadyReviewed
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}
