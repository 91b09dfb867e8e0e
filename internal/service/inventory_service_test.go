package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/product"
	"github.com/codewithprince01/CoffeeBeat/internal/repository/memory"
)

func newInventory(t *testing.T) (*InventoryService, product.Repository) {
	t.Helper()
	repo := memory.NewProductRepository()
	return NewInventoryService(repo), repo
}

func TestTryDecrementNeverNegative(t *testing.T) {
	ctx := context.Background()
	inv, repo := newInventory(t)
	p := &product.Product{Name: "Espresso", Slug: "espresso", Price: 350, Stock: 3, Active: true}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := inv.TryDecrement(ctx, p.ID, 3); err != nil {
		t.Fatalf("decrement to zero: %v", err)
	}
	err := inv.TryDecrement(ctx, p.ID, 1)
	if !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected out of stock, got %v", err)
	}
	after, _ := repo.GetByID(ctx, p.ID)
	if after.Stock != 0 {
		t.Fatalf("stock = %d, want 0", after.Stock)
	}
}

func TestTryDecrementInactiveProduct(t *testing.T) {
	ctx := context.Background()
	inv, repo := newInventory(t)
	p := &product.Product{Name: "Banana Bread", Slug: "banana-bread", Price: 450, Stock: 10, Active: false}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := inv.TryDecrement(ctx, p.ID, 1); !errors.Is(err, ErrInactiveProduct) {
		t.Fatalf("expected inactive product, got %v", err)
	}
}

func TestTryDecrementUnknownProduct(t *testing.T) {
	ctx := context.Background()
	inv, _ := newInventory(t)
	if err := inv.TryDecrement(ctx, "no-such-id", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTryDecrementRejectsBadQuantity(t *testing.T) {
	ctx := context.Background()
	inv, _ := newInventory(t)
	if err := inv.TryDecrement(ctx, "x", 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for qty 0, got %v", err)
	}
	if err := inv.Increment(ctx, "x", -1); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for negative qty, got %v", err)
	}
}

// 并发抢最后一件，只允许一个成功
func TestConcurrentDecrementLastUnit(t *testing.T) {
	ctx := context.Background()
	inv, repo := newInventory(t)
	p := &product.Product{Name: "Cold Brew", Slug: "cold-brew", Price: 520, Stock: 1, Active: true}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	const workers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := inv.TryDecrement(ctx, p.ID, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("succeeded = %d, want exactly 1", succeeded)
	}
	after, _ := repo.GetByID(ctx, p.ID)
	if after.Stock != 0 {
		t.Fatalf("stock = %d, want 0", after.Stock)
	}
}

func TestIncrementRestoresStock(t *testing.T) {
	ctx := context.Background()
	inv, repo := newInventory(t)
	p := &product.Product{Name: "Croissant", Slug: "croissant", Price: 420, Stock: 5, Active: true}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := inv.TryDecrement(ctx, p.ID, 4); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if err := inv.Increment(ctx, p.ID, 4); err != nil {
		t.Fatalf("increment: %v", err)
	}
	after, _ := repo.GetByID(ctx, p.ID)
	if after.Stock != 5 {
		t.Fatalf("stock = %d, want 5", after.Stock)
	}
}
