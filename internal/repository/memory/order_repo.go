package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/order"
	"github.com/codewithprince01/CoffeeBeat/internal/repository"
)

// orderRepo 内存订单仓储。UpdateStatusFrom 在锁内比较并交换，
// 与 MySQL 条件更新版本语义一致。
type orderRepo struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
}

// NewOrderRepository 创建内存订单仓储
func NewOrderRepository() order.Repository {
	return &orderRepo{orders: make(map[string]*order.Order)}
}

func cloneOrder(o *order.Order) *order.Order {
	cp := *o
	cp.Items = make([]order.OrderItem, len(o.Items))
	copy(cp.Items, o.Items)
	return &cp
}

func (r *orderRepo) Create(ctx context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *orderRepo) Update(ctx context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; !ok {
		return repository.ErrNotFound
	}
	o.UpdatedAt = time.Now()
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *orderRepo) UpdateStatusFrom(ctx context.Context, o *order.Order, prev order.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.orders[o.ID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if cur.Status != prev {
		return false, nil
	}
	cur.Status = o.Status
	cur.PaymentStatus = o.PaymentStatus
	cur.AssignedChefID = o.AssignedChefID
	cur.AssignedWaiterID = o.AssignedWaiterID
	cur.UpdatedAt = time.Now()
	o.UpdatedAt = cur.UpdatedAt
	return true, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	return r.list(func(o *order.Order) bool { return o.UserID == userID })
}

func (r *orderRepo) ListByChef(ctx context.Context, chefID string) ([]*order.Order, error) {
	return r.list(func(o *order.Order) bool { return o.AssignedChefID == chefID })
}

func (r *orderRepo) ListByWaiter(ctx context.Context, waiterID string) ([]*order.Order, error) {
	return r.list(func(o *order.Order) bool { return o.AssignedWaiterID == waiterID })
}

func (r *orderRepo) ListNeedingChef(ctx context.Context) ([]*order.Order, error) {
	return r.list(func(o *order.Order) bool {
		return o.Status == order.StatusConfirmed && o.AssignedChefID == ""
	})
}

func (r *orderRepo) ListNeedingWaiter(ctx context.Context) ([]*order.Order, error) {
	return r.list(func(o *order.Order) bool {
		return o.Status == order.StatusReadyForService && o.AssignedWaiterID == ""
	})
}

func (r *orderRepo) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	all, err := r.list(func(*order.Order) bool { return true })
	if err != nil {
		return nil, err
	}
	// list 按创建时间升序，这里取最新的 limit 条并倒序返回
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all, nil
}

func (r *orderRepo) ListBetween(ctx context.Context, from, to time.Time) ([]*order.Order, error) {
	return r.list(func(o *order.Order) bool {
		return !o.CreatedAt.Before(from) && o.CreatedAt.Before(to)
	})
}

func (r *orderRepo) list(keep func(*order.Order) bool) ([]*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*order.Order
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *orderRepo) CountByStatus(ctx context.Context) (order.StatusCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(order.StatusCounts)
	for _, o := range r.orders {
		counts[o.Status]++
	}
	return counts, nil
}

func (r *orderRepo) CountBetweenByStatus(ctx context.Context, from, to time.Time) (order.StatusCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(order.StatusCounts)
	for _, o := range r.orders {
		if !o.CreatedAt.Before(from) && o.CreatedAt.Before(to) {
			counts[o.Status]++
		}
	}
	return counts, nil
}

func (r *orderRepo) CountAll(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.orders)), nil
}
