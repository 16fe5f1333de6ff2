package services_test

import (
	"context"
	"errors"
	"testing"

	"bookstore/internal/repos"
	"bookstore/internal/services"
	"bookstore/internal/validate"
)

func TestInventoryService_CheckAvailability(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	svc := services.NewInventoryService(repos.NewInventoryRepo(db), repos.NewBookRepo(db))
	ctx := context.Background()

	// in stock
	a, err := svc.CheckAvailability(ctx, "bk-dune")
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != "IN_STOCK" || a.Qty != 8 || !a.BorrowAvailable {
		t.Fatalf("want IN_STOCK(8) borrowable, got %+v", a)
	}

	// low stock
	a, err = svc.CheckAvailability(ctx, "bk-cosmos")
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != "LOW_STOCK" || a.Qty != 3 {
		t.Fatalf("want LOW_STOCK(3), got %+v", a)
	}

	// out of stock
	if err := svc.SetStock(ctx, "bk-cosmos", 0); err != nil {
		t.Fatal(err)
	}
	a, err = svc.CheckAvailability(ctx, "bk-cosmos")
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != "OUT_OF_STOCK" || a.BorrowAvailable {
		t.Fatalf("want OUT_OF_STOCK, got %+v", a)
	}

	// unknown book
	if _, err := svc.CheckAvailability(ctx, "bk-nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestInventoryService_SetStock(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	svc := services.NewInventoryService(repos.NewInventoryRepo(db), repos.NewBookRepo(db))
	ctx := context.Background()

	var verr validate.Errors
	if err := svc.SetStock(ctx, "bk-dune", -1); !errors.As(err, &verr) {
		t.Fatalf("negative stock must be a validation error, got %v", err)
	}
	if err := svc.SetStock(ctx, "bk-nope", 3); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := svc.SetStock(ctx, "bk-dune", 12); err != nil {
		t.Fatal(err)
	}
	rows, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range rows {
		if r.BookID == "bk-dune" && r.Qty != 12 {
			t.Fatalf("want 12, got %d", r.Qty)
		}
	}
}
