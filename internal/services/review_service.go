package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"bookstore/internal/domain"
	"bookstore/internal/repos"
	"bookstore/internal/validate"
)

type ReviewService struct {
	Reviews *repos.ReviewRepo
	Books   *repos.BookRepo
}

func NewReviewService(reviews *repos.ReviewRepo, books *repos.BookRepo) *ReviewService {
	return &ReviewService{Reviews: reviews, Books: books}
}

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

type BookReviews struct {
	Summary repos.RatingSummary `json:"summary"`
	Reviews []domain.Review     `json:"reviews"`
}

func (s *ReviewService) ForBook(ctx context.Context, bookID string, skip, limit int) (BookReviews, error) {
	if _, err := s.Books.Get(ctx, bookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BookReviews{}, ErrNotFound
		}
		return BookReviews{}, err
	}
	sum, err := s.Reviews.Summary(ctx, bookID)
	if err != nil {
		return BookReviews{}, err
	}
	list, err := s.Reviews.ListByBook(ctx, bookID, limit, skip)
	if err != nil {
		return BookReviews{}, err
	}
	return BookReviews{Summary: sum, Reviews: list}, nil
}

func (s *ReviewService) ForUser(ctx context.Context, userID string) ([]domain.Review, error) {
	return s.Reviews.ListByUser(ctx, userID)
}

func (s *ReviewService) Add(ctx context.Context, userID, bookID string, in ReviewInput) (domain.Review, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validate.Struct(&in); err != nil {
		return domain.Review{}, err
	}
	if _, err := s.Books.Get(ctx, bookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	rv := domain.Review{
		ID:      uuid.NewString(),
		UserID:  userID,
		BookID:  bookID,
		Rating:  in.Rating,
		Comment: in.Comment,
	}
	if err := s.Reviews.Add(ctx, rv); err != nil {
		if repos.IsUniqueViolation(err) {
			return domain.Review{}, ErrAlreadyReviewed
		}
		return domain.Review{}, err
	}
	return s.Reviews.Get(ctx, rv.ID)
}

// owned loads a review the actor may change: its author, or an admin.
func (s *ReviewService) owned(ctx context.Context, actor *domain.User, id string) (domain.Review, error) {
	rv, err := s.Reviews.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rv, ErrNotFound
		}
		return rv, err
	}
	if rv.UserID != actor.ID && !actor.IsAdmin() {
		return rv, ErrForbidden
	}
	return rv, nil
}

func (s *ReviewService) Update(ctx context.Context, actor *domain.User, id string, in ReviewInput) (domain.Review, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validate.Struct(&in); err != nil {
		return domain.Review{}, err
	}
	if _, err := s.owned(ctx, actor, id); err != nil {
		return domain.Review{}, err
	}
	if err := s.Reviews.Update(ctx, id, in.Rating, in.Comment); err != nil {
		return domain.Review{}, err
	}
	return s.Reviews.Get(ctx, id)
}

func (s *ReviewService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.Reviews.Remove(ctx, id)
}

// Vote marks a review helpful or not for the actor. Authors cannot vote on
// their own reviews.
func (s *ReviewService) Vote(ctx context.Context, actor *domain.User, id string, helpful bool) (domain.Review, error) {
	rv, err := s.Reviews.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rv, ErrNotFound
		}
		return rv, err
	}
	if rv.UserID == actor.ID {
		return rv, ErrForbidden
	}
	if err := s.Reviews.Vote(ctx, id, actor.ID, helpful); err != nil {
		return domain.Review{}, err
	}
	return s.Reviews.Get(ctx, id)
}

// Ranked lists reviews by one of the repos.Rank* orders.
func (s *ReviewService) Ranked(ctx context.Context, order string, limit int) ([]domain.Review, error) {
	return s.Reviews.Ranked(ctx, order, limit)
}

// Stats aggregates ratings overall, or for one book when bookID is set.
func (s *ReviewService) Stats(ctx context.Context, bookID string) (repos.ReviewStats, error) {
	if bookID != "" {
		if _, err := s.Books.Get(ctx, bookID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return repos.ReviewStats{}, ErrNotFound
			}
			return repos.ReviewStats{}, err
		}
	}
	return s.Reviews.Stats(ctx, bookID)
}
