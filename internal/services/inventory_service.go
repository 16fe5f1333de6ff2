package services

import (
	"context"
	"database/sql"
	"errors"

	"bookstore/internal/domain"
	"bookstore/internal/repos"
	"bookstore/internal/validate"
)

const lowStockThreshold = 5

type InventoryService struct {
	Inv   *repos.InventoryRepo
	Books *repos.BookRepo
}

func NewInventoryService(inv *repos.InventoryRepo, books *repos.BookRepo) *InventoryService {
	return &InventoryService{Inv: inv, Books: books}
}

// CheckAvailability converts stock into IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(ctx context.Context, bookID string) (domain.Availability, error) {
	b, err := s.Books.Get(ctx, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Availability{}, ErrNotFound
		}
		return domain.Availability{}, err
	}

	status := "OUT_OF_STOCK"
	switch {
	case b.StockQuantity >= lowStockThreshold:
		status = "IN_STOCK"
	case b.StockQuantity > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{
		Status:          status,
		Qty:             b.StockQuantity,
		BorrowAvailable: b.BorrowAvailable && b.StockQuantity > 0,
	}, nil
}

func (s *InventoryService) List(ctx context.Context) ([]repos.InventoryRow, error) {
	return s.Inv.ListAll(ctx)
}

// SetStock overwrites a book's shelf count.
func (s *InventoryService) SetStock(ctx context.Context, bookID string, qty int) error {
	if qty < 0 {
		return validate.Errors{"stock_quantity": "must be at least 0"}
	}
	if err := s.Inv.SetQty(ctx, bookID, qty); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
