package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/product"
	"github.com/codewithprince01/CoffeeBeat/internal/repository"
)

// InventoryService 库存台账。所有扣减都走仓储层的原子条件更新，
// 库存永远不会为负。
type InventoryService struct {
	products product.Repository
}

// NewInventoryService 创建库存服务
func NewInventoryService(products product.Repository) *InventoryService {
	return &InventoryService{products: products}
}

// TryDecrement 尝试扣减库存。条件更新失败时回读商品，
// 区分是不存在、已下架还是库存不足。
func (s *InventoryService) TryDecrement(ctx context.Context, productID string, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	ok, err := s.products.DecrementStock(ctx, productID, qty)
	if err != nil {
		GetMonitor().RecordDBError()
		return err
	}
	if ok {
		return nil
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: product %s", ErrNotFound, productID)
		}
		GetMonitor().RecordDBError()
		return err
	}
	if !p.Active {
		return fmt.Errorf("%w: %s", ErrInactiveProduct, p.Name)
	}
	return fmt.Errorf("%w: %s has %d left, requested %d", ErrOutOfStock, p.Name, p.Stock, qty)
}

// Increment 归还库存（取消订单、回滚部分扣减时使用），无条件累加
func (s *InventoryService) Increment(ctx context.Context, productID string, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if err := s.products.IncrementStock(ctx, productID, qty); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: product %s", ErrNotFound, productID)
		}
		GetMonitor().RecordDBError()
		return err
	}
	return nil
}
