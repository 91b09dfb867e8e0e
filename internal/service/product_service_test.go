package service

import (
	"context"
	"errors"
	"testing"

	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/product"
	"github.com/codewithprince01/CoffeeBeat/internal/repository/memory"
)

func newProductService(t *testing.T) (*ProductService, product.Repository) {
	t.Helper()
	repo := memory.NewProductRepository()
	return NewProductService(repo), repo
}

// 商品编辑拿的是过期读快照时，不能把并发扣减的库存写回去
func TestUpdateDoesNotClobberStock(t *testing.T) {
	ctx := context.Background()
	svc, repo := newProductService(t)

	p := &product.Product{Name: "Latte", Slug: "latte", Price: 520, Stock: 10, Active: true}
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	stale := *p

	// 编辑期间有人下单扣走 3 件
	ok, err := repo.DecrementStock(ctx, p.ID, 3)
	if err != nil || !ok {
		t.Fatalf("decrement: ok=%v err=%v", ok, err)
	}

	stale.Price = 560
	if err := svc.Update(ctx, &stale); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := svc.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stock != 7 {
		t.Fatalf("stock = %d, want 7", got.Stock)
	}
	if got.Price != 560 {
		t.Fatalf("price = %d, want 560", got.Price)
	}
}

func TestSetActiveKeepsStock(t *testing.T) {
	ctx := context.Background()
	svc, repo := newProductService(t)

	p := &product.Product{Name: "Mocha", Slug: "mocha", Price: 540, Stock: 6, Active: true}
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ok, err := repo.DecrementStock(ctx, p.ID, 2); err != nil || !ok {
		t.Fatalf("decrement: ok=%v err=%v", ok, err)
	}

	got, err := svc.SetActive(ctx, p.ID, false)
	if err != nil {
		t.Fatalf("set active: %v", err)
	}
	if got.Active {
		t.Fatalf("product still active")
	}
	if got.Stock != 4 {
		t.Fatalf("stock = %d, want 4", got.Stock)
	}
}

func TestCreateRejectsDuplicateSlug(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProductService(t)

	if err := svc.Create(ctx, &product.Product{Name: "Flat White", Slug: "flat-white", Price: 500, Stock: 5, Active: true}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := svc.Create(ctx, &product.Product{Name: "Another", Slug: "flat-white", Price: 100, Stock: 1, Active: true})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestRestockAddsStock(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProductService(t)

	p := &product.Product{Name: "Scone", Slug: "scone", Price: 320, Stock: 2, Active: true}
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := svc.Restock(ctx, p.ID, 8)
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if got.Stock != 10 {
		t.Fatalf("stock = %d, want 10", got.Stock)
	}
	if _, err := svc.Restock(ctx, p.ID, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("restock 0: expected validation, got %v", err)
	}
}
