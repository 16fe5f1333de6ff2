package repos

import (
	"context"
	"strconv"

	"github.com/jmoiron/sqlx"

	"bookstore/internal/domain"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewCols = `id, user_id, book_id, rating, COALESCE(comment,'') AS comment,
    (SELECT COUNT(*) FROM review_votes v WHERE v.review_id = reviews.id AND v.helpful = 1) AS helpful_votes,
    COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

// Add inserts a review; the (user, book) unique key rejects a second one.
func (r *ReviewRepo) Add(ctx context.Context, rv domain.Review) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO reviews(id, user_id, book_id, rating, comment, created_at)
	  VALUES(?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, rv.ID, rv.UserID, rv.BookID, rv.Rating, rv.Comment)
	return err
}

func (r *ReviewRepo) Get(ctx context.Context, id string) (domain.Review, error) {
	var rv domain.Review
	err := r.db.GetContext(ctx, &rv, `SELECT `+reviewCols+` FROM reviews WHERE id=?`, id)
	return rv, err
}

func (r *ReviewRepo) Update(ctx context.Context, id string, rating int, comment string) error {
	_, err := r.db.ExecContext(ctx, `
	  UPDATE reviews SET rating=?, comment=?, updated_at=CURRENT_TIMESTAMP WHERE id=?
	`, rating, comment, id)
	return err
}

func (r *ReviewRepo) Remove(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id=?`, id)
	return err
}

func (r *ReviewRepo) ListByBook(ctx context.Context, bookID string, limit, offset int) ([]domain.Review, error) {
	out := []domain.Review{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+reviewCols+` FROM reviews
	  WHERE book_id = ?
	  ORDER BY created_at DESC, id
	  LIMIT ? OFFSET ?
	`, bookID, limit, offset)
	return out, err
}

func (r *ReviewRepo) ListByUser(ctx context.Context, userID string) ([]domain.Review, error) {
	out := []domain.Review{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+reviewCols+` FROM reviews
	  WHERE user_id = ?
	  ORDER BY created_at DESC, id
	`, userID)
	return out, err
}

type RatingSummary struct {
	Count   int     `db:"n" json:"count"`
	Average float64 `db:"avg" json:"average"`
}

func (r *ReviewRepo) Summary(ctx context.Context, bookID string) (RatingSummary, error) {
	var s RatingSummary
	err := r.db.GetContext(ctx, &s, `
	  SELECT COUNT(*) AS n, COALESCE(AVG(rating), 0) AS avg FROM reviews WHERE book_id = ?
	`, bookID)
	return s, err
}

// Vote records or replaces the user's vote on a review.
func (r *ReviewRepo) Vote(ctx context.Context, reviewID, userID string, helpful bool) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO review_votes(review_id, user_id, helpful, created_at)
	  VALUES(?, ?, ?, CURRENT_TIMESTAMP)
	  ON CONFLICT(review_id, user_id) DO UPDATE SET helpful = excluded.helpful
	`, reviewID, userID, helpful)
	return err
}

// Ranking orders for Ranked.
const (
	RankRecent   = "recent"
	RankTopRated = "top-rated"
	RankHelpful  = "helpful"
)

var rankOrder = map[string]string{
	RankRecent:   `created_at DESC, id`,
	RankTopRated: `rating DESC, created_at DESC, id`,
	RankHelpful:  `helpful_votes DESC, created_at DESC, id`,
}

// Ranked lists reviews across all books; unknown orders fall back to recent.
func (r *ReviewRepo) Ranked(ctx context.Context, order string, limit int) ([]domain.Review, error) {
	by, ok := rankOrder[order]
	if !ok {
		by = rankOrder[RankRecent]
	}
	out := []domain.Review{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+reviewCols+` FROM reviews
	  ORDER BY `+by+`
	  LIMIT ?
	`, limit)
	return out, err
}

type ReviewStats struct {
	Total        int            `json:"total_reviews"`
	Average      float64        `json:"average_rating"`
	Distribution map[string]int `json:"rating_distribution"`
}

// Stats aggregates ratings, over one book when bookID is set.
func (r *ReviewRepo) Stats(ctx context.Context, bookID string) (ReviewStats, error) {
	where, args := `1=1`, []any{}
	if bookID != "" {
		where, args = `book_id = ?`, append(args, bookID)
	}
	var rows []struct {
		Rating int `db:"rating"`
		N      int `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, `
	  SELECT rating, COUNT(*) AS n FROM reviews WHERE `+where+` GROUP BY rating
	`, args...); err != nil {
		return ReviewStats{}, err
	}
	st := ReviewStats{Distribution: map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}}
	sum := 0
	for _, row := range rows {
		st.Distribution[strconv.Itoa(row.Rating)] = row.N
		st.Total += row.N
		sum += row.Rating * row.N
	}
	if st.Total > 0 {
		st.Average = float64(sum) / float64(st.Total)
	}
	return st, nil
}
