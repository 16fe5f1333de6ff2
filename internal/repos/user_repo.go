package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bookstore/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, email, password_hash, full_name, COALESCE(phone,'') AS phone,
  COALESCE(address,'') AS address, role, is_active,
  COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users(id,email,password_hash,full_name,phone,address,role,is_active,created_at)
		VALUES(?,?,?,?,?,?,?,1,CURRENT_TIMESTAMP)
	`, u.ID, u.Email, u.Hash, u.FullName, u.Phone, u.Address, u.Role)
	return err
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id, fullName, phone, address string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users SET full_name=?, phone=?, address=?, updated_at=CURRENT_TIMESTAMP
		WHERE id=?
	`, fullName, phone, address, id)
	return err
}

// UpdateAccount writes the admin-editable columns of u.
func (r *UserRepo) UpdateAccount(ctx context.Context, u *domain.User) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users SET full_name=?, phone=?, address=?, role=?, is_active=?, updated_at=CURRENT_TIMESTAMP
		WHERE id=?
	`, u.FullName, u.Phone, u.Address, u.Role, u.Active, u.ID)
	return err
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET password_hash=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, hash, id)
	return err
}

// SetActive reports whether a row was changed.
func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET is_active=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, active, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// List returns users ordered by email; a nil active filter returns everyone.
func (r *UserRepo) List(ctx context.Context, active *bool, limit, offset int) ([]domain.User, error) {
	where := `1=1`
	args := []any{}
	if active != nil {
		where += ` AND is_active = ?`
		args = append(args, *active)
	}
	args = append(args, limit, offset)
	out := []domain.User{}
	err := r.DB.SelectContext(ctx, &out, `
		SELECT `+userCols+` FROM users
		WHERE `+where+`
		ORDER BY LOWER(email)
		LIMIT ? OFFSET ?`, args...)
	return out, err
}

// Delete removes the user; transactions and reviews cascade.
func (r *UserRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
