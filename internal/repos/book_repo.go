package repos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"bookstore/internal/domain"
)

type BookRepo struct{ db *sqlx.DB }

func NewBookRepo(db *sqlx.DB) *BookRepo { return &BookRepo{db: db} }

const bookCols = `
    b.id, b.isbn, b.title, b.author, COALESCE(b.publisher,'') AS publisher,
    COALESCE(b.publication_year,0) AS publication_year, COALESCE(b.description,'') AS description,
    b.price, b.stock_quantity, b.borrow_available,
    COALESCE(b.created_at,'') AS created_at, COALESCE(b.updated_at,'') AS updated_at`

func (r *BookRepo) Get(ctx context.Context, id string) (domain.Book, error) {
	return r.Lookup(ctx, r.db, id)
}

// Lookup reads a book through q. Inside a unit of work q must be the open
// *sqlx.Tx: the pool has one connection and r.db would block on it.
func (r *BookRepo) Lookup(ctx context.Context, q sqlx.QueryerContext, id string) (domain.Book, error) {
	var b domain.Book
	err := sqlx.GetContext(ctx, q, &b, `SELECT `+bookCols+` FROM books b WHERE b.id = ?`, id)
	return b, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches q against title, author and isbn; empty filters are ignored.
func (r *BookRepo) Search(ctx context.Context, q, catID string, limit, offset int) ([]domain.Book, error) {
	where := `1=1`
	args := []any{}
	if q != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
		isbn := strings.ToUpper(strings.ReplaceAll(q, "-", ""))
		where += ` AND (LOWER(b.title) LIKE ? ESCAPE '\' OR LOWER(b.author) LIKE ? ESCAPE '\' OR b.isbn = ?)`
		args = append(args, like, like, isbn)
	}
	if catID != "" {
		where += ` AND EXISTS (SELECT 1 FROM book_categories bc WHERE bc.book_id = b.id AND bc.category_id = ?)`
		args = append(args, catID)
	}
	args = append(args, limit, offset)

	out := []domain.Book{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+bookCols+`
	  FROM books b
	  WHERE `+where+`
	  ORDER BY LOWER(b.title)
	  LIMIT ? OFFSET ?`, args...)
	return out, err
}

func (r *BookRepo) Create(ctx context.Context, b domain.Book, categoryIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO books(id,isbn,title,author,publisher,publication_year,description,price,stock_quantity,borrow_available,created_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, b.ID, b.ISBN, b.Title, b.Author, b.Publisher, b.PublicationYear, b.Description,
		b.Price, b.StockQuantity, b.BorrowAvailable); err != nil {
		return err
	}
	if err := setCategories(ctx, tx, b.ID, categoryIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// Update rewrites the descriptive columns. Stock is left to InventoryRepo.
// A nil categoryIDs keeps the links.
func (r *BookRepo) Update(ctx context.Context, b domain.Book, categoryIDs []string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE books SET isbn=?, title=?, author=?, publisher=?, publication_year=?, description=?,
		  price=?, borrow_available=?, updated_at=CURRENT_TIMESTAMP
		WHERE id=?
	`, b.ISBN, b.Title, b.Author, b.Publisher, b.PublicationYear, b.Description,
		b.Price, b.BorrowAvailable, b.ID)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}
	if categoryIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM book_categories WHERE book_id=?`, b.ID); err != nil {
			return false, err
		}
		if err := setCategories(ctx, tx, b.ID, categoryIDs); err != nil {
			return false, err
		}
	}
	return true, tx.Commit()
}

func setCategories(ctx context.Context, tx *sqlx.Tx, bookID string, categoryIDs []string) error {
	for _, cid := range categoryIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO book_categories(book_id, category_id) VALUES(?, ?)
			ON CONFLICT(book_id, category_id) DO NOTHING
		`, bookID, cid); err != nil {
			return err
		}
	}
	return nil
}

// Delete fails with a constraint error while transaction items reference the book.
func (r *BookRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *BookRepo) Categories(ctx context.Context, bookID string) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+categoryCols+`
	  FROM categories c
	  JOIN book_categories bc ON bc.category_id = c.id
	  WHERE bc.book_id = ?
	  ORDER BY c.name`, bookID)
	return out, err
}
