package mysql

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/order"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, o *order.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *orderRepo) Update(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Save(o).Error
}

// UpdateStatusFrom 以旧状态为条件整单更新，命中 0 行说明并发迁移已发生。
// 每次合法迁移都会改变 status，所以这等价于对单个订单的乐观锁。
func (r *orderRepo) UpdateStatusFrom(ctx context.Context, o *order.Order, prev order.Status) (bool, error) {
	res := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND status = ?", o.ID, prev).
		Updates(map[string]interface{}{
			"status":             o.Status,
			"payment_status":     o.PaymentStatus,
			"assigned_chef_id":   o.AssignedChefID,
			"assigned_waiter_id": o.AssignedWaiterID,
			"updated_at":         time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListByChef(ctx context.Context, chefID string) ([]*order.Order, error) {
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Where("assigned_chef_id = ?", chefID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListByWaiter(ctx context.Context, waiterID string) ([]*order.Order, error) {
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Where("assigned_waiter_id = ?", waiterID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListNeedingChef 等待接单队列：已确认且尚未指派厨师
func (r *orderRepo) ListNeedingChef(ctx context.Context) ([]*order.Order, error) {
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Where("status = ? AND (assigned_chef_id = '' OR assigned_chef_id IS NULL)", order.StatusConfirmed).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListNeedingWaiter 待上餐队列：出餐完成且尚未指派服务员
func (r *orderRepo) ListNeedingWaiter(ctx context.Context) ([]*order.Order, error) {
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Where("status = ? AND (assigned_waiter_id = '' OR assigned_waiter_id IS NULL)", order.StatusReadyForService).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListBetween(ctx context.Context, from, to time.Time) ([]*order.Order, error) {
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

type statusCountRow struct {
	Status order.Status
	N      int64
}

func (r *orderRepo) CountByStatus(ctx context.Context) (order.StatusCounts, error) {
	var rows []statusCountRow
	if err := r.db.WithContext(ctx).Model(&order.Order{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := order.StatusCounts{}
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}

func (r *orderRepo) CountBetweenByStatus(ctx context.Context, from, to time.Time) (order.StatusCounts, error) {
	var rows []statusCountRow
	if err := r.db.WithContext(ctx).Model(&order.Order{}).
		Select("status, COUNT(*) AS n").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := order.StatusCounts{}
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}

func (r *orderRepo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&order.Order{}).Count(&n).Error
	return n, err
}
