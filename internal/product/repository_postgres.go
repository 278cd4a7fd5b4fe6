package product

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/wichananm65/ecofinds-backend/internal/database"
)

type PostgresRepository struct {
	db database.DBTX
}

const productColumns = `id, title, description, category, price, seller_id, status, created_at, updated_at`

const (
	listProductsQuery = `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id DESC
	`
	listProductsBySellerQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE seller_id = $1
		ORDER BY created_at DESC, id DESC
	`
	getProductByIDQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`
	listProductsByIDsQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1::int[])
		ORDER BY array_position($1::int[], id)
	`
	insertProductQuery = `
		INSERT INTO products (title, description, category, price, seller_id, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`
	updateProductQuery = `
		UPDATE products
		SET title = $1,
			description = $2,
			category = $3,
			price = $4,
			updated_at = $5
		WHERE id = $6
		RETURNING ` + productColumns
	deleteProductQuery = `DELETE FROM products WHERE id = $1`

	// the status predicate makes the transition a compare-and-set: of two
	// concurrent buyers only one UPDATE can match the row.
	markSoldQuery = `
		UPDATE products
		SET status = 'sold', updated_at = $2
		WHERE id = $1 AND status = 'available'
		RETURNING ` + productColumns
	restoreAvailableQuery = `
		UPDATE products
		SET status = 'available', updated_at = $2
		WHERE id = $1 AND status = 'sold'
		RETURNING ` + productColumns
	productStatusQuery = `SELECT status FROM products WHERE id = $1`
)

// NewPostgresRepository accepts a *sql.DB or a *sql.Tx.
func NewPostgresRepository(db database.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]Product, error) {
	return r.query(ctx, listProductsQuery)
}

func (r *PostgresRepository) ListBySeller(ctx context.Context, sellerID int) ([]Product, error) {
	return r.query(ctx, listProductsBySellerQuery, sellerID)
}

func (r *PostgresRepository) query(ctx context.Context, q string, args ...any) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, getProductByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []int) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	return r.query(ctx, listProductsByIDsQuery, pq.Array(ids))
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = StatusAvailable
	}

	var id int
	err := r.db.QueryRowContext(ctx,
		insertProductQuery,
		p.Title,
		p.Description,
		p.Category,
		p.Price,
		p.SellerID,
		string(p.Status),
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return Product{}, err
	}
	p.ID = id
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, p Product) (Product, error) {
	row := r.db.QueryRowContext(ctx,
		updateProductQuery,
		p.Title,
		p.Description,
		p.Category,
		p.Price,
		time.Now().UTC(),
		id,
	)
	updated, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return updated, err
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, deleteProductQuery, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) MarkSold(ctx context.Context, id int) (Product, error) {
	return r.transition(ctx, markSoldQuery, id, StatusAvailable)
}

func (r *PostgresRepository) RestoreAvailable(ctx context.Context, id int) (Product, error) {
	return r.transition(ctx, restoreAvailableQuery, id, StatusSold)
}

func (r *PostgresRepository) transition(ctx context.Context, q string, id int, from Status) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, q, id, time.Now().UTC()))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Product{}, err
	}

	// no row matched: find out whether the product is missing or in another state
	var current string
	if err := r.db.QueryRowContext(ctx, productStatusQuery, id).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return Product{}, transitionError(from, Status(current))
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Reset deletes all products and inserts the provided list in a single
// transaction. When the repository already wraps a transaction the statements
// join it.
func (r *PostgresRepository) Reset(ctx context.Context, products []Product) error {
	b, ok := r.db.(txBeginner)
	if !ok {
		return resetProducts(ctx, r.db, products)
	}

	tx, err := b.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := resetProducts(ctx, tx, products); err != nil {
		return err
	}
	return tx.Commit()
}

func resetProducts(ctx context.Context, db database.DBTX, products []Product) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return err
	}
	repo := NewPostgresRepository(db)
	for _, p := range products {
		if _, err := repo.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(scanner rowScanner) (Product, error) {
	p := Product{}
	var status string
	if err := scanner.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Category,
		&p.Price,
		&p.SellerID,
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return Product{}, err
	}
	p.Status = Status(status)
	return p, nil
}
