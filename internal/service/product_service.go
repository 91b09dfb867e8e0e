package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/product"
	"github.com/codewithprince01/CoffeeBeat/internal/repository"
)

// ProductService 菜单管理
type ProductService struct {
	repo product.Repository
}

// NewProductService 创建商品服务
func NewProductService(repo product.Repository) *ProductService {
	return &ProductService{repo: repo}
}

// ListActive 在售菜单
func (s *ProductService) ListActive(ctx context.Context) ([]*product.Product, error) {
	return s.repo.ListActive(ctx)
}

// ListAll 全部商品（含下架，后台用）
func (s *ProductService) ListAll(ctx context.Context) ([]*product.Product, error) {
	return s.repo.ListAll(ctx)
}

// ListByCategory 按分类列出在售商品
func (s *ProductService) ListByCategory(ctx context.Context, category string) ([]*product.Product, error) {
	return s.repo.ListByCategory(ctx, category)
}

// ListLowStock 低库存预警列表
func (s *ProductService) ListLowStock(ctx context.Context) ([]*product.Product, error) {
	return s.repo.ListLowStock(ctx)
}

// ListOutOfStock 已售罄的在售商品
func (s *ProductService) ListOutOfStock(ctx context.Context) ([]*product.Product, error) {
	return s.repo.ListOutOfStock(ctx)
}

// GetByID 查商品
func (s *ProductService) GetByID(ctx context.Context, id string) (*product.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

// GetBySlug 按 slug 查商品
func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, slug)
		}
		return nil, err
	}
	return p, nil
}

// Create 上架新商品，slug 唯一
func (s *ProductService) Create(ctx context.Context, p *product.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	exists, err := s.repo.ExistsBySlug(ctx, p.Slug)
	if err != nil {
		GetMonitor().RecordDBError()
		return err
	}
	if exists {
		return fmt.Errorf("%w: slug %s", ErrDuplicate, p.Slug)
	}
	return s.repo.Create(ctx, p)
}

// Update 修改商品信息。改价改名不影响已有订单（订单存快照），
// 也不触碰库存——库存只走扣减/补货两条原子路径。
func (s *ProductService) Update(ctx context.Context, p *product.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: product %s", ErrNotFound, p.ID)
		}
		GetMonitor().RecordDBError()
		return err
	}
	return nil
}

// SetActive 上架/下架
func (s *ProductService) SetActive(ctx context.Context, id string, active bool) (*product.Product, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Active = active
	if err := s.repo.Update(ctx, p); err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	// 重新读一遍，拿到真实库存（Update 不写 stock）
	return s.GetByID(ctx, id)
}

// Restock 补货
func (s *ProductService) Restock(ctx context.Context, id string, qty int64) (*product.Product, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: restock quantity must be positive", ErrValidation)
	}
	if err := s.repo.IncrementStock(ctx, id, qty); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		GetMonitor().RecordDBError()
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// CountActive 在售商品数（仪表盘用）
func (s *ProductService) CountActive(ctx context.Context) (int64, error) {
	return s.repo.CountActive(ctx)
}

func validateProduct(p *product.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name required", ErrValidation)
	}
	if strings.TrimSpace(p.Slug) == "" {
		return fmt.Errorf("%w: product slug required", ErrValidation)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	return nil
}
