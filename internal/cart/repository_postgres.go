package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/wichananm65/ecofinds-backend/internal/database"
)

type PostgresRepository struct {
	db database.DBTX
}

const (
	getCartQuery = `SELECT lines, updated_at FROM carts WHERE user_id = $1`
	// upsert keeps the write a single statement so readers see either the old
	// or the new line list.
	setLinesQuery = `
		INSERT INTO carts (user_id, lines, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET lines = EXCLUDED.lines, updated_at = EXCLUDED.updated_at
	`
	// the row has to exist before it can be locked
	ensureCartQuery = `
		INSERT INTO carts (user_id, lines, updated_at)
		VALUES ($1, '[]', now())
		ON CONFLICT (user_id) DO NOTHING
	`
	lockCartQuery = `SELECT lines, updated_at FROM carts WHERE user_id = $1 FOR UPDATE`
)

// NewPostgresRepository accepts a *sql.DB or a *sql.Tx.
func NewPostgresRepository(db database.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetCart(ctx context.Context, userID int) (Cart, error) {
	return scanCart(r.db.QueryRowContext(ctx, getCartQuery, userID), userID)
}

func scanCart(row *sql.Row, userID int) (Cart, error) {
	var (
		raw       []byte
		updatedAt time.Time
	)
	err := row.Scan(&raw, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Cart{UserID: userID, Lines: []Line{}}, nil
	}
	if err != nil {
		return Cart{}, err
	}

	lines := []Line{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &lines); err != nil {
			return Cart{}, err
		}
	}
	return Cart{UserID: userID, Lines: lines, UpdatedAt: updatedAt}, nil
}

func (r *PostgresRepository) SetLines(ctx context.Context, userID int, lines []Line) (Cart, error) {
	if lines == nil {
		lines = []Line{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return Cart{}, err
	}
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, setLinesQuery, userID, string(raw), now); err != nil {
		return Cart{}, err
	}
	return Cart{UserID: userID, Lines: cloneLines(lines), UpdatedAt: now}, nil
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// ModifyLines locks the cart row for the duration of fn. When the repository
// already wraps a transaction the lock is held until that transaction ends.
func (r *PostgresRepository) ModifyLines(ctx context.Context, userID int, fn func(lines []Line) ([]Line, error)) (Cart, error) {
	b, ok := r.db.(txBeginner)
	if !ok {
		return modifyLines(ctx, r.db, userID, fn)
	}

	tx, err := b.BeginTx(ctx, nil)
	if err != nil {
		return Cart{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	c, err := modifyLines(ctx, tx, userID, fn)
	if err != nil {
		return Cart{}, err
	}
	if err := tx.Commit(); err != nil {
		return Cart{}, err
	}
	return c, nil
}

func modifyLines(ctx context.Context, db database.DBTX, userID int, fn func(lines []Line) ([]Line, error)) (Cart, error) {
	if _, err := db.ExecContext(ctx, ensureCartQuery, userID); err != nil {
		return Cart{}, err
	}
	current, err := scanCart(db.QueryRowContext(ctx, lockCartQuery, userID), userID)
	if err != nil {
		return Cart{}, err
	}
	lines, err := fn(current.Lines)
	if err != nil {
		return Cart{}, err
	}
	return NewPostgresRepository(db).SetLines(ctx, userID, lines)
}
