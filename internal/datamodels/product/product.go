package product

import (
	"context"
	"time"
)

// Product 菜单商品模型，Price 单位为分
type Product struct {
	ID                string `gorm:"primaryKey;size:36"`
	Name              string `gorm:"size:128;not null"`
	Slug              string `gorm:"uniqueIndex;size:128;not null"`
	Description       string `gorm:"size:512"`
	Price             int64  `gorm:"not null"`      // 分
	Stock             int64  `gorm:"not null"`      // 始终 >= 0，由条件更新保证
	Category          string `gorm:"size:32;index"` // 分类：coffee、tea、pastry、food
	ImageURL          string `gorm:"size:255"`
	Active            bool   `gorm:"index;not null;default:true"`
	LowStockThreshold int64  `gorm:"not null;default:5"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// InStock 是否有库存
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// LowStock 库存是否低于阈值（不含 0）
func (p *Product) LowStock() bool {
	return p.Stock > 0 && p.Stock <= p.LowStockThreshold
}

// Repository 商品仓储接口
//
// DecrementStock 必须是单条原子的条件更新：库存不足、商品不存在或已下架时
// 返回 false，绝不把库存减成负数。
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	ListAll(ctx context.Context) ([]*Product, error)
	ListActive(ctx context.Context) ([]*Product, error)
	ListByCategory(ctx context.Context, category string) ([]*Product, error)
	ListLowStock(ctx context.Context) ([]*Product, error)
	ListOutOfStock(ctx context.Context) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	DecrementStock(ctx context.Context, id string, qty int64) (bool, error)
	IncrementStock(ctx context.Context, id string, qty int64) error
	CountActive(ctx context.Context) (int64, error)
}
