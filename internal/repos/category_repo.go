package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bookstore/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryCols = `c.id, c.name, COALESCE(c.description,'') AS description,
    COALESCE(c.parent_id,'') AS parent_id, COALESCE(c.created_at,'') AS created_at`

// List returns categories by name; parentID filters to direct children.
func (r *CategoryRepo) List(ctx context.Context, parentID string) ([]domain.Category, error) {
	where := `1=1`
	args := []any{}
	if parentID != "" {
		where = `c.parent_id = ?`
		args = append(args, parentID)
	}
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+categoryCols+`
	  FROM categories c
	  WHERE `+where+`
	  ORDER BY c.name`, args...)
	return out, err
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (domain.Category, error) {
	var c domain.Category
	err := r.db.GetContext(ctx, &c, `SELECT `+categoryCols+` FROM categories c WHERE c.id = ?`, id)
	return c, err
}

func (r *CategoryRepo) Create(ctx context.Context, c domain.Category) error {
	var parent any
	if c.ParentID != "" {
		parent = c.ParentID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories(id, name, description, parent_id, created_at)
		VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, c.ID, c.Name, c.Description, parent)
	return err
}
