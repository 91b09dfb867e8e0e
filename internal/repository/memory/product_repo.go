package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/product"
	"github.com/codewithprince01/CoffeeBeat/internal/repository"
)

// productRepo 内存商品仓储，扣减库存在互斥锁内完成，
// 与 MySQL 条件更新版本保持相同语义。
type productRepo struct {
	mu       sync.RWMutex
	products map[string]*product.Product
}

// NewProductRepository 创建内存商品仓储
func NewProductRepository() product.Repository {
	return &productRepo{products: make(map[string]*product.Product)}
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *productRepo) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *productRepo) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *productRepo) ListAll(ctx context.Context) ([]*product.Product, error) {
	return r.list(func(*product.Product) bool { return true })
}

func (r *productRepo) ListActive(ctx context.Context) ([]*product.Product, error) {
	return r.list(func(p *product.Product) bool { return p.Active })
}

func (r *productRepo) ListByCategory(ctx context.Context, category string) ([]*product.Product, error) {
	return r.list(func(p *product.Product) bool { return p.Active && p.Category == category })
}

func (r *productRepo) ListLowStock(ctx context.Context) ([]*product.Product, error) {
	return r.list(func(p *product.Product) bool { return p.Active && p.LowStock() })
}

func (r *productRepo) ListOutOfStock(ctx context.Context) ([]*product.Product, error) {
	return r.list(func(p *product.Product) bool { return p.Active && p.Stock == 0 })
}

func (r *productRepo) list(keep func(*product.Product) bool) ([]*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*product.Product
	for _, p := range r.products {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

// Update 更新商品信息。库存不在此路径更新：
// 调用方可能拿着过期读快照，直接写回会吞掉并发的扣减。
func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.products[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.UpdatedAt = time.Now()
	cp := *p
	cp.Stock = cur.Stock
	r.products[p.ID] = &cp
	return nil
}

func (r *productRepo) DecrementStock(ctx context.Context, id string, qty int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || !p.Active || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	p.UpdatedAt = time.Now()
	return true, nil
}

func (r *productRepo) IncrementStock(ctx context.Context, id string, qty int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Stock += qty
	p.UpdatedAt = time.Now()
	return nil
}

func (r *productRepo) CountActive(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, p := range r.products {
		if p.Active {
			n++
		}
	}
	return n, nil
}
