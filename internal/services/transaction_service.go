package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bookstore/internal/domain"
	"bookstore/internal/metrics"
	"bookstore/internal/repos"
	"bookstore/internal/validate"
)

const (
	DefaultBorrowDays = 14
	MaxListLimit      = 100
	statsTopN         = 5
)

// editable are the statuses in which delivery details may still change.
var editable = []domain.TxStatus{domain.StatusPending, domain.StatusConfirmed}

type TransactionService struct {
	DB    *sqlx.DB
	Txs   *repos.TransactionRepo
	Books *repos.BookRepo
	Inv   *repos.InventoryRepo
	Now   func() time.Time
}

func NewTransactionService(txs *repos.TransactionRepo, books *repos.BookRepo, inv *repos.InventoryRepo) *TransactionService {
	return &TransactionService{DB: txs.DB(), Txs: txs, Books: books, Inv: inv, Now: time.Now}
}

type ItemInput struct {
	BookID   string `json:"book_id" validate:"required,ident"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=10"`
}

type CreateInput struct {
	Type               domain.TxType         `json:"transaction_type" validate:"required,oneof=borrow buy"`
	DeliveryMethod     domain.DeliveryMethod `json:"delivery_method" validate:"required,oneof=standard_shipping express_shipping pickup local_delivery"`
	DeliveryAddress    string                `json:"delivery_address" validate:"max=500"`
	Notes              string                `json:"notes" validate:"max=1000"`
	BorrowDurationDays int                   `json:"borrow_duration_days" validate:"omitempty,min=1,max=30"`
	Items              []ItemInput           `json:"items" validate:"required,min=1,max=20,dive"`
}

type DetailsInput struct {
	DeliveryAddress     *string `json:"delivery_address" validate:"omitempty,max=500"`
	Notes               *string `json:"notes" validate:"omitempty,max=1000"`
	EstimatedDeliveryAt string  `json:"estimated_delivery_at"`
}

func (in *CreateInput) check() error {
	in.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validate.Struct(in); err != nil {
		return err
	}
	if in.DeliveryMethod != domain.DeliveryPickup && in.DeliveryAddress == "" {
		return validate.Errors{"delivery_address": "is required unless delivery_method is pickup"}
	}
	seen := map[string]bool{}
	for i, it := range in.Items {
		if seen[it.BookID] {
			return validate.Errors{fmt.Sprintf("items[%d].book_id", i): "must not repeat"}
		}
		seen[it.BookID] = true
	}
	if in.Type == domain.TxBorrow && in.BorrowDurationDays == 0 {
		in.BorrowDurationDays = DefaultBorrowDays
	}
	return nil
}

func (s *TransactionService) stamp() (time.Time, string) {
	now := s.Now().UTC()
	return now, repos.FormatTime(now)
}

// Create prices the items from the catalogue, takes the stock and records the
// transaction in one unit of work. Any shortfall rolls everything back.
func (s *TransactionService) Create(ctx context.Context, userID string, in CreateInput) (domain.Transaction, error) {
	if err := in.check(); err != nil {
		return domain.Transaction{}, err
	}
	now, at := s.stamp()

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Transaction{}, err
	}
	defer func() { _ = tx.Rollback() }()

	t := domain.Transaction{
		ID:              uuid.NewString(),
		UserID:          userID,
		Type:            in.Type,
		Status:          domain.StatusPending,
		DeliveryMethod:  in.DeliveryMethod,
		DeliveryAddress: in.DeliveryAddress,
		Notes:           in.Notes,
		CreatedAt:       at,
		UpdatedAt:       at,
	}
	var due string
	if in.Type == domain.TxBorrow {
		due = repos.FormatTime(now.AddDate(0, 0, in.BorrowDurationDays))
	}

	items := make([]domain.TransactionItem, 0, len(in.Items))
	total := 0.0
	for _, it := range in.Items {
		b, err := s.Books.Lookup(ctx, tx, it.BookID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.Transaction{}, fmt.Errorf("book %s: %w", it.BookID, ErrNotFound)
			}
			return domain.Transaction{}, err
		}
		if in.Type == domain.TxBorrow && !b.BorrowAvailable {
			return domain.Transaction{}, fmt.Errorf("%s: %w", b.Title, ErrNotBorrowable)
		}
		if err := s.Inv.Decrement(ctx, tx, b.ID, it.Quantity); err != nil {
			if errors.Is(err, repos.ErrInsufficientStock) {
				metrics.RecordStockRejection()
				return domain.Transaction{}, fmt.Errorf("%s (need %d): %w", b.Title, it.Quantity, ErrOutOfStock)
			}
			return domain.Transaction{}, err
		}
		items = append(items, domain.TransactionItem{
			ID:            uuid.NewString(),
			TransactionID: t.ID,
			BookID:        b.ID,
			Title:         b.Title,
			Quantity:      it.Quantity,
			UnitPrice:     b.Price,
			BorrowDueDate: due,
		})
		total += b.Price * float64(it.Quantity)
	}
	t.TotalAmount = math.Round(total*100) / 100

	if err := s.Txs.Insert(ctx, tx, &t); err != nil {
		return domain.Transaction{}, err
	}
	for i := range items {
		if err := s.Txs.InsertItem(ctx, tx, &items[i]); err != nil {
			return domain.Transaction{}, err
		}
	}
	if err := s.Txs.AppendTracking(ctx, tx, t.ID, domain.StatusPending, "", "transaction created", at); err != nil {
		return domain.Transaction{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Transaction{}, err
	}
	metrics.RecordCreated(string(t.Type))
	return s.load(ctx, t.ID)
}

// Return closes a borrow and puts every copy back on the shelf.
func (s *TransactionService) Return(ctx context.Context, actor *domain.User, id, note string) (domain.Transaction, error) {
	return s.release(ctx, actor, id, domain.StatusReturned, "", note)
}

// Cancel aborts a transaction that has not shipped and restores its stock.
func (s *TransactionService) Cancel(ctx context.Context, actor *domain.User, id, note string) (domain.Transaction, error) {
	return s.release(ctx, actor, id, domain.StatusCancelled, "", note)
}

func (s *TransactionService) release(ctx context.Context, actor *domain.User, id string, to domain.TxStatus, location, note string) (domain.Transaction, error) {
	_, at := s.stamp()

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Transaction{}, err
	}
	defer func() { _ = tx.Rollback() }()

	t, err := s.Txs.Get(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, ErrNotFound
		}
		return domain.Transaction{}, err
	}
	if err := canSee(actor, t); err != nil {
		return domain.Transaction{}, err
	}
	if to == domain.StatusReturned && t.Type != domain.TxBorrow {
		return domain.Transaction{}, ErrNotBorrow
	}
	if !domain.CanTransition(t.Type, t.DeliveryMethod, t.Status, to) {
		return domain.Transaction{}, fmt.Errorf("%s -> %s: %w", t.Status, to, ErrInvalidTransition)
	}
	ok, err := s.Txs.SetStatus(ctx, tx, id, t.Status, to, at)
	if err != nil {
		return domain.Transaction{}, err
	}
	if !ok {
		return domain.Transaction{}, fmt.Errorf("status changed concurrently: %w", ErrInvalidTransition)
	}

	items, err := s.Txs.Items(ctx, tx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	restored := 0
	for _, it := range items {
		if it.ReturnedAt != "" {
			continue
		}
		if err := s.Inv.Increment(ctx, tx, it.BookID, it.Quantity); err != nil {
			return domain.Transaction{}, err
		}
		restored += it.Quantity
	}
	if to == domain.StatusReturned {
		if err := s.Txs.MarkItemsReturned(ctx, tx, id, at); err != nil {
			return domain.Transaction{}, err
		}
	}
	if note == "" {
		note = "transaction " + string(to)
	}
	if err := s.Txs.AppendTracking(ctx, tx, id, to, location, note, at); err != nil {
		return domain.Transaction{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Transaction{}, err
	}

	metrics.RecordTransition(string(t.Status), string(to))
	reason := "cancel"
	if to == domain.StatusReturned {
		reason = "return"
	}
	metrics.RecordRestored(reason, restored)
	return s.load(ctx, id)
}

// UpdateStatus moves a transaction one step along the status graph.
// Returned and cancelled go through release so stock stays consistent.
func (s *TransactionService) UpdateStatus(ctx context.Context, actor *domain.User, id string, to domain.TxStatus, location, note string) (domain.Transaction, error) {
	if !to.Valid() {
		return domain.Transaction{}, validate.Errors{"status": "must be a known status"}
	}
	location, note = strings.TrimSpace(location), strings.TrimSpace(note)
	if to == domain.StatusReturned || to == domain.StatusCancelled {
		return s.release(ctx, actor, id, to, location, note)
	}
	_, at := s.stamp()

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Transaction{}, err
	}
	defer func() { _ = tx.Rollback() }()

	t, err := s.Txs.Get(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, ErrNotFound
		}
		return domain.Transaction{}, err
	}
	if !domain.CanTransition(t.Type, t.DeliveryMethod, t.Status, to) {
		return domain.Transaction{}, fmt.Errorf("%s -> %s: %w", t.Status, to, ErrInvalidTransition)
	}
	ok, err := s.Txs.SetStatus(ctx, tx, id, t.Status, to, at)
	if err != nil {
		return domain.Transaction{}, err
	}
	if !ok {
		return domain.Transaction{}, fmt.Errorf("status changed concurrently: %w", ErrInvalidTransition)
	}
	if note == "" {
		note = "status changed to " + string(to)
	}
	if err := s.Txs.AppendTracking(ctx, tx, id, to, location, note, at); err != nil {
		return domain.Transaction{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Transaction{}, err
	}
	metrics.RecordTransition(string(t.Status), string(to))
	return s.load(ctx, id)
}

// AddTracking logs a location/note under the current status.
func (s *TransactionService) AddTracking(ctx context.Context, id, location, note string) ([]domain.DeliveryTracking, error) {
	location, note = strings.TrimSpace(location), strings.TrimSpace(note)
	if location == "" && note == "" {
		return nil, validate.Errors{"location": "location or note is required"}
	}
	_, at := s.stamp()

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	t, err := s.Txs.Get(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if domain.Terminal(t.Type, t.Status) {
		return nil, fmt.Errorf("%s is final: %w", t.Status, ErrInvalidTransition)
	}
	if err := s.Txs.AppendTracking(ctx, tx, id, t.Status, location, note, at); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.Txs.Tracking(ctx, id)
}

// UpdateDetails edits address, notes and ETA while the transaction is still
// pending or confirmed.
func (s *TransactionService) UpdateDetails(ctx context.Context, actor *domain.User, id string, in DetailsInput) (domain.Transaction, error) {
	if err := validate.Struct(&in); err != nil {
		return domain.Transaction{}, err
	}
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	address, notes, eta := t.DeliveryAddress, t.Notes, ""
	if in.DeliveryAddress != nil {
		address = strings.TrimSpace(*in.DeliveryAddress)
	}
	if in.Notes != nil {
		notes = strings.TrimSpace(*in.Notes)
	}
	if t.DeliveryMethod != domain.DeliveryPickup && address == "" {
		return domain.Transaction{}, validate.Errors{"delivery_address": "is required unless delivery_method is pickup"}
	}
	if in.EstimatedDeliveryAt != "" {
		ts, err := time.Parse(time.RFC3339, in.EstimatedDeliveryAt)
		if err != nil {
			return domain.Transaction{}, validate.Errors{"estimated_delivery_at": "must be RFC 3339"}
		}
		eta = repos.FormatTime(ts)
	}
	_, at := s.stamp()
	ok, err := s.Txs.UpdateDetails(ctx, id, address, notes, eta, at, editable)
	if err != nil {
		return domain.Transaction{}, err
	}
	if !ok {
		return domain.Transaction{}, ErrNotEditable
	}
	return s.load(ctx, id)
}

// Get returns the transaction with items and tracking if actor may see it.
func (s *TransactionService) Get(ctx context.Context, actor *domain.User, id string) (domain.Transaction, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return t, err
	}
	if err := canSee(actor, t); err != nil {
		return domain.Transaction{}, err
	}
	return t, nil
}

func (s *TransactionService) Tracking(ctx context.Context, actor *domain.User, id string) ([]domain.DeliveryTracking, error) {
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return t.Tracking, nil
}

func (s *TransactionService) List(ctx context.Context, f repos.ListFilter, skip, limit int) ([]domain.Transaction, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, validate.Errors{"status": "must be a known status"}
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, validate.Errors{"type": "must be borrow or buy"}
	}
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	if skip < 0 {
		skip = 0
	}
	return s.Txs.List(ctx, f, limit, skip)
}

// Stats aggregates transactions; an empty userID means everyone.
func (s *TransactionService) Stats(ctx context.Context, userID string) (domain.TransactionStats, error) {
	st := domain.TransactionStats{
		ByStatus: map[domain.TxStatus]int{},
		ByType:   map[domain.TxType]int{},
	}
	counts, err := s.Txs.CountByStatusType(ctx, userID)
	if err != nil {
		return st, err
	}
	for _, c := range counts {
		st.TotalTransactions += c.N
		st.ByStatus[c.Status] += c.N
		st.ByType[c.Type] += c.N
		switch {
		case c.Type == domain.TxBorrow && domain.Holding(c.Status):
			st.ActiveBorrows += c.N
		case c.Type == domain.TxBuy && c.Status == domain.StatusDelivered:
			st.CompletedPurchases += c.N
		}
	}

	if st.TotalRevenue, err = s.Txs.Revenue(ctx, userID); err != nil {
		return st, err
	}
	st.TotalRevenue = math.Round(st.TotalRevenue*100) / 100
	if st.CompletedPurchases > 0 {
		st.AverageOrderValue = math.Round(st.TotalRevenue/float64(st.CompletedPurchases)*100) / 100
	}

	_, now := s.stamp()
	if st.OverdueBorrows, err = s.Txs.OverdueCount(ctx, now, userID); err != nil {
		return st, err
	}
	if st.MostPopularBooks, err = s.Txs.Popular(ctx, userID, statsTopN); err != nil {
		return st, err
	}
	if st.RecentTransactions, err = s.Txs.List(ctx, repos.ListFilter{UserID: userID}, statsTopN, 0); err != nil {
		return st, err
	}
	return st, nil
}

// Overdue lists borrowed items past due; an empty userID means everyone.
func (s *TransactionService) Overdue(ctx context.Context, userID string) ([]domain.OverdueItem, error) {
	_, now := s.stamp()
	return s.Txs.Overdue(ctx, now, userID)
}

func (s *TransactionService) load(ctx context.Context, id string) (domain.Transaction, error) {
	t, err := s.Txs.Get(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, ErrNotFound
		}
		return t, err
	}
	if t.Items, err = s.Txs.Items(ctx, s.DB, id); err != nil {
		return t, err
	}
	if t.Tracking, err = s.Txs.Tracking(ctx, id); err != nil {
		return t, err
	}
	return t, nil
}

func canSee(actor *domain.User, t domain.Transaction) error {
	if actor == nil {
		return ErrForbidden
	}
	if actor.ID != t.UserID && !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
