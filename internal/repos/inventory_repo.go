package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrInsufficientStock is returned when a guarded decrement matches no row.
var ErrInsufficientStock = errors.New("insufficient stock")

type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// Row used by the admin inventory listing
type InventoryRow struct {
	BookID          string `db:"book_id" json:"book_id"`
	Title           string `db:"title" json:"title"`
	Qty             int    `db:"stock_quantity" json:"stock_quantity"`
	BorrowAvailable bool   `db:"borrow_available" json:"borrow_available"`
	OnLoan          int    `db:"on_loan" json:"on_loan"`
}

// ListAll returns stock per book together with copies currently out on loan.
func (r *InventoryRepo) ListAll(ctx context.Context) ([]InventoryRow, error) {
	rows := []InventoryRow{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT b.id AS book_id, b.title, b.stock_quantity, b.borrow_available,
		  COALESCE((
		    SELECT SUM(ti.quantity) FROM transaction_items ti
		    JOIN transactions t ON t.id = ti.transaction_id
		    WHERE ti.book_id = b.id AND t.type = 'borrow'
		      AND t.status NOT IN ('returned','cancelled')
		  ), 0) AS on_loan
		FROM books b
		ORDER BY LOWER(b.title)
	`)
	return rows, err
}

// Qty returns current stock for a book.
// If no row exists, it returns sql.ErrNoRows from sqlx.Get.
func (r *InventoryRepo) Qty(ctx context.Context, bookID string) (int, error) {
	var qty int
	err := r.db.GetContext(ctx, &qty, `SELECT stock_quantity FROM books WHERE id = ?`, bookID)
	if err != nil {
		return 0, err
	}
	return qty, nil
}

// Decrement atomically subtracts "by" units if enough stock exists.
// q is usually the surrounding *sqlx.Tx so the change rolls back with it.
func (r *InventoryRepo) Decrement(ctx context.Context, q sqlx.ExtContext, bookID string, by int) error {
	res, err := q.ExecContext(ctx, `
		UPDATE books
		SET stock_quantity = stock_quantity - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_quantity >= ?
	`, by, bookID, by)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		var one int
		if err := sqlx.GetContext(ctx, q, &one, `SELECT 1 FROM books WHERE id = ?`, bookID); err != nil {
			return err // sql.ErrNoRows for an unknown book
		}
		return fmt.Errorf("%w for %s (need %d)", ErrInsufficientStock, bookID, by)
	}
	return nil
}

// Increment puts "by" units back on the shelf.
func (r *InventoryRepo) Increment(ctx context.Context, q sqlx.ExtContext, bookID string, by int) error {
	res, err := q.ExecContext(ctx, `
		UPDATE books
		SET stock_quantity = stock_quantity + ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, by, bookID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetQty overwrites the stock count (admin correction).
func (r *InventoryRepo) SetQty(ctx context.Context, bookID string, qty int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE books SET stock_quantity = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, qty, bookID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
