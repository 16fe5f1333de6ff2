package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bookstore/internal/domain"
	"bookstore/internal/repos"
	"bookstore/internal/token"
	"bookstore/internal/validate"
)

type AuthService struct {
	Users  *repos.UserRepo
	Tokens *token.Issuer
}

func NewAuthService(users *repos.UserRepo, tokens *token.Issuer) *AuthService {
	return &AuthService{Users: users, Tokens: tokens}
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,password"`
	FullName string `json:"full_name" validate:"required,min=1,max=100"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Address  string `json:"address" validate:"omitempty,max=500"`
}

type Session struct {
	Token     string       `json:"access_token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validate.Struct(&in); err != nil {
		return nil, err
	}
	email, _ := validate.Email(in.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:       uuid.NewString(),
		Email:    email,
		Hash:     string(hash),
		FullName: in.FullName,
		Phone:    strings.TrimSpace(in.Phone),
		Address:  strings.TrimSpace(in.Address),
		Role:     domain.RoleUser,
		Active:   true,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if repos.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.Users.ByID(ctx, u.ID)
}

// Login checks credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.Users.ByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadCreds
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if !u.Active {
		return nil, ErrInactive
	}
	tok, exp, err := s.Tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: tok, TokenType: "bearer", ExpiresAt: exp, User: u}, nil
}

// Authenticate resolves an Authorization header to an active user.
// The role is always read from the database, not from the token.
func (s *AuthService) Authenticate(ctx context.Context, authHeader string) (*domain.User, error) {
	claims, err := s.Tokens.Parse(authHeader)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.ByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadCreds
		}
		return nil, err
	}
	if !u.Active {
		return nil, ErrInactive
	}
	return u, nil
}
