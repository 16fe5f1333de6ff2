package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"bookstore/internal/domain"
	"bookstore/internal/repos"
	"bookstore/internal/validate"
)

type UserService struct {
	Users *repos.UserRepo
	Txs   *repos.TransactionRepo
}

func NewUserService(users *repos.UserRepo, txs *repos.TransactionRepo) *UserService {
	return &UserService{Users: users, Txs: txs}
}

type ProfileInput struct {
	FullName string `json:"full_name" validate:"required,min=1,max=100"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Address  string `json:"address" validate:"omitempty,max=500"`
}

// AccountPatch is an admin edit of another account; nil fields are kept.
type AccountPatch struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

type accountFields struct {
	FullName string `json:"full_name" validate:"required,min=1,max=100"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Address  string `json:"address" validate:"omitempty,max=500"`
	Role     string `json:"role" validate:"oneof=USER ADMIN"`
}

type PasswordInput struct {
	Current string `json:"current_password" validate:"required"`
	New     string `json:"new_password" validate:"required,password"`
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.Users.ByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*domain.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validate.Struct(&in); err != nil {
		return nil, err
	}
	if err := s.Users.UpdateProfile(ctx, id, in.FullName, strings.TrimSpace(in.Phone), strings.TrimSpace(in.Address)); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// UpdateAccount applies an admin edit. Admins cannot demote or deactivate
// themselves.
func (s *UserService) UpdateAccount(ctx context.Context, actorID, id string, p AccountPatch) (*domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorID == id && ((p.Role != nil && *p.Role != u.Role) || (p.IsActive != nil && !*p.IsActive)) {
		return nil, ErrForbidden
	}
	if p.FullName != nil {
		u.FullName = strings.TrimSpace(*p.FullName)
	}
	if p.Phone != nil {
		u.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Address != nil {
		u.Address = strings.TrimSpace(*p.Address)
	}
	if p.Role != nil {
		u.Role = strings.ToUpper(strings.TrimSpace(*p.Role))
	}
	if p.IsActive != nil {
		u.Active = *p.IsActive
	}
	f := accountFields{FullName: u.FullName, Phone: u.Phone, Address: u.Address, Role: u.Role}
	if err := validate.Struct(&f); err != nil {
		return nil, err
	}
	if err := s.Users.UpdateAccount(ctx, u); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *UserService) ChangePassword(ctx context.Context, id string, in PasswordInput) error {
	if err := validate.Struct(&in); err != nil {
		return err
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(in.Current)) != nil {
		return ErrBadCreds
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.New), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.Users.UpdatePassword(ctx, id, string(hash))
}

func (s *UserService) List(ctx context.Context, active *bool, skip, limit int) ([]domain.User, error) {
	return s.Users.List(ctx, active, limit, skip)
}

func (s *UserService) SetActive(ctx context.Context, actorID, id string, active bool) (*domain.User, error) {
	if actorID == id && !active {
		return nil, ErrForbidden
	}
	ok, err := s.Users.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Delete refuses while the user still holds stock through a transaction.
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return ErrForbidden
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	n, err := s.Txs.OpenCount(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrUserHasOpen
	}
	ok, err := s.Users.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
