package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bookstore/internal/domain"
)

type TransactionRepo struct{ db *sqlx.DB }

func NewTransactionRepo(db *sqlx.DB) *TransactionRepo { return &TransactionRepo{db: db} }

// DB exposes the handle services use to open a unit of work.
func (r *TransactionRepo) DB() *sqlx.DB { return r.db }

const txCols = `t.id, t.user_id, t.type, t.status, t.delivery_method, t.delivery_address,
    COALESCE(t.notes,'') AS notes, t.total_amount,
    COALESCE(t.estimated_delivery_at,'') AS estimated_delivery_at,
    COALESCE(t.delivered_at,'') AS delivered_at,
    COALESCE(t.created_at,'') AS created_at, COALESCE(t.updated_at,'') AS updated_at`

// ---------- Writes (run inside the caller's unit of work) ----------

// Insert stores a new transaction header.
func (r *TransactionRepo) Insert(ctx context.Context, q sqlx.ExtContext, t *domain.Transaction) error {
	_, err := q.ExecContext(ctx, `
	  INSERT INTO transactions
	    (id, user_id, type, status, delivery_method, delivery_address, notes, total_amount, created_at, updated_at)
	  VALUES
	    (?,  ?,       ?,    ?,      ?,               ?,                ?,     ?,            ?,          ?)
	`, t.ID, t.UserID, t.Type, t.Status, t.DeliveryMethod, t.DeliveryAddress, t.Notes, t.TotalAmount, t.CreatedAt, t.UpdatedAt)
	return err
}

// InsertItem inserts a single line item.
func (r *TransactionRepo) InsertItem(ctx context.Context, q sqlx.ExtContext, it *domain.TransactionItem) error {
	var due any
	if it.BorrowDueDate != "" {
		due = it.BorrowDueDate
	}
	_, err := q.ExecContext(ctx, `
	  INSERT INTO transaction_items(id, transaction_id, book_id, quantity, unit_price, borrow_due_date)
	  VALUES(?, ?, ?, ?, ?, ?)
	`, it.ID, it.TransactionID, it.BookID, it.Quantity, it.UnitPrice, due)
	return err
}

// AppendTracking adds one row to the delivery log.
func (r *TransactionRepo) AppendTracking(ctx context.Context, q sqlx.ExtContext, txID string, status domain.TxStatus, location, note, at string) error {
	_, err := q.ExecContext(ctx, `
	  INSERT INTO delivery_tracking(id, transaction_id, status, location, note, seq, created_at)
	  VALUES(?, ?, ?, ?, ?,
	    (SELECT COALESCE(MAX(seq), 0) + 1 FROM delivery_tracking WHERE transaction_id = ?), ?)
	`, uuid.NewString(), txID, status, location, note, txID, at)
	return err
}

// SetStatus moves a transaction from one status to another only if it is
// still in "from". It reports whether the row was changed.
func (r *TransactionRepo) SetStatus(ctx context.Context, q sqlx.ExtContext, id string, from, to domain.TxStatus, at string) (bool, error) {
	var delivered any
	if to == domain.StatusDelivered {
		delivered = at
	}
	res, err := q.ExecContext(ctx, `
	  UPDATE transactions
	  SET status = ?, updated_at = ?, delivered_at = COALESCE(?, delivered_at)
	  WHERE id = ? AND status = ?
	`, to, at, delivered, id, from)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// MarkItemsReturned stamps every item of the transaction.
func (r *TransactionRepo) MarkItemsReturned(ctx context.Context, q sqlx.ExtContext, txID, at string) error {
	_, err := q.ExecContext(ctx, `
	  UPDATE transaction_items SET returned_at = ? WHERE transaction_id = ? AND returned_at IS NULL
	`, at, txID)
	return err
}

// UpdateDetails edits delivery details while the status is one of "open".
func (r *TransactionRepo) UpdateDetails(ctx context.Context, id, address, notes, eta, at string, open []domain.TxStatus) (bool, error) {
	var etaArg any
	if eta != "" {
		etaArg = eta
	}
	query, args, err := sqlx.In(`
	  UPDATE transactions
	  SET delivery_address = ?, notes = ?, estimated_delivery_at = COALESCE(?, estimated_delivery_at), updated_at = ?
	  WHERE id = ? AND status IN (?)
	`, address, notes, etaArg, at, id, open)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ---------- Reads ----------

func (r *TransactionRepo) Get(ctx context.Context, q sqlx.QueryerContext, id string) (domain.Transaction, error) {
	var t domain.Transaction
	err := sqlx.GetContext(ctx, q, &t, `SELECT `+txCols+` FROM transactions t WHERE t.id = ?`, id)
	return t, err
}

func (r *TransactionRepo) Items(ctx context.Context, q sqlx.QueryerContext, txID string) ([]domain.TransactionItem, error) {
	items := []domain.TransactionItem{}
	err := sqlx.SelectContext(ctx, q, &items, `
	  SELECT ti.id, ti.transaction_id, ti.book_id, b.title, ti.quantity, ti.unit_price,
	         COALESCE(ti.borrow_due_date,'') AS borrow_due_date,
	         COALESCE(ti.returned_at,'') AS returned_at
	  FROM transaction_items ti
	  JOIN books b ON b.id = ti.book_id
	  WHERE ti.transaction_id = ?
	  ORDER BY b.title
	`, txID)
	return items, err
}

func (r *TransactionRepo) Tracking(ctx context.Context, txID string) ([]domain.DeliveryTracking, error) {
	out := []domain.DeliveryTracking{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, transaction_id, status, COALESCE(location,'') AS location,
	         COALESCE(note,'') AS note, COALESCE(created_at,'') AS created_at
	  FROM delivery_tracking
	  WHERE transaction_id = ?
	  ORDER BY seq
	`, txID)
	return out, err
}

type ListFilter struct {
	UserID string
	Status domain.TxStatus
	Type   domain.TxType
}

// List returns headers newest first.
func (r *TransactionRepo) List(ctx context.Context, f ListFilter, limit, offset int) ([]domain.Transaction, error) {
	where := `1=1`
	args := []any{}
	if f.UserID != "" {
		where += ` AND t.user_id = ?`
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		where += ` AND t.status = ?`
		args = append(args, f.Status)
	}
	if f.Type != "" {
		where += ` AND t.type = ?`
		args = append(args, f.Type)
	}
	args = append(args, limit, offset)
	out := []domain.Transaction{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+txCols+`
		FROM transactions t
		WHERE `+where+`
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT ? OFFSET ?`, args...)
	return out, err
}

// OpenCount counts transactions of a user that still hold stock.
func (r *TransactionRepo) OpenCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
	  SELECT COUNT(*) FROM transactions
	  WHERE user_id = ?
	    AND status NOT IN ('returned','cancelled')
	    AND NOT (type = 'buy' AND status = 'delivered')
	`, userID)
	return n, err
}

const overdueWhere = `
	  t.type = 'borrow'
	  AND t.status NOT IN ('returned','cancelled')
	  AND ti.returned_at IS NULL
	  AND ti.borrow_due_date IS NOT NULL
	  AND ti.borrow_due_date < ?`

// Overdue lists borrowed items past their due date at "now".
func (r *TransactionRepo) Overdue(ctx context.Context, now, userID string) ([]domain.OverdueItem, error) {
	where := overdueWhere
	args := []any{now}
	if userID != "" {
		where += ` AND t.user_id = ?`
		args = append(args, userID)
	}
	out := []domain.OverdueItem{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT t.id AS transaction_id, t.user_id, u.email, ti.book_id, b.title, ti.quantity, ti.borrow_due_date
	  FROM transaction_items ti
	  JOIN transactions t ON t.id = ti.transaction_id
	  JOIN users u ON u.id = t.user_id
	  JOIN books b ON b.id = ti.book_id
	  WHERE `+where+`
	  ORDER BY ti.borrow_due_date`, args...)
	return out, err
}

// ---------- Statistics ----------

type StatusTypeCount struct {
	Type   domain.TxType   `db:"type"`
	Status domain.TxStatus `db:"status"`
	N      int             `db:"n"`
}

func userScope(alias, userID string) (string, []any) {
	if userID == "" {
		return "1=1", nil
	}
	return alias + ".user_id = ?", []any{userID}
}

func (r *TransactionRepo) CountByStatusType(ctx context.Context, userID string) ([]StatusTypeCount, error) {
	where, args := userScope("t", userID)
	out := []StatusTypeCount{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT t.type, t.status, COUNT(*) AS n
	  FROM transactions t
	  WHERE `+where+`
	  GROUP BY t.type, t.status`, args...)
	return out, err
}

// Revenue sums delivered purchases.
func (r *TransactionRepo) Revenue(ctx context.Context, userID string) (float64, error) {
	where, args := userScope("t", userID)
	var total float64
	err := r.db.GetContext(ctx, &total, `
	  SELECT COALESCE(SUM(t.total_amount), 0)
	  FROM transactions t
	  WHERE t.type = 'buy' AND t.status = 'delivered' AND `+where, args...)
	return total, err
}

func (r *TransactionRepo) OverdueCount(ctx context.Context, now, userID string) (int, error) {
	where := overdueWhere
	args := []any{now}
	if userID != "" {
		where += ` AND t.user_id = ?`
		args = append(args, userID)
	}
	var n int
	err := r.db.GetContext(ctx, &n, `
	  SELECT COUNT(DISTINCT t.id)
	  FROM transaction_items ti
	  JOIN transactions t ON t.id = ti.transaction_id
	  WHERE `+where, args...)
	return n, err
}

// Popular ranks books by quantity over delivered transactions.
func (r *TransactionRepo) Popular(ctx context.Context, userID string, limit int) ([]domain.PopularBook, error) {
	where, args := userScope("t", userID)
	args = append(args, limit)
	out := []domain.PopularBook{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT ti.book_id, b.title, SUM(ti.quantity) AS total_quantity
	  FROM transaction_items ti
	  JOIN transactions t ON t.id = ti.transaction_id
	  JOIN books b ON b.id = ti.book_id
	  WHERE t.status IN ('delivered','returned') AND `+where+`
	  GROUP BY ti.book_id, b.title
	  ORDER BY total_quantity DESC, b.title
	  LIMIT ?`, args...)
	return out, err
}
