package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/order"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/user"
	"github.com/codewithprince01/CoffeeBeat/internal/notify"
	"github.com/codewithprince01/CoffeeBeat/internal/repository"
)

// Actor 发起操作的用户身份（从 JWT claims 还原）
type Actor struct {
	ID   string
	Role user.Role
}

// CreateItem 下单请求里的一行
type CreateItem struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// OrderService 订单生命周期引擎。
//
// 下单：全部校验通过后逐行扣库存，任何一行失败则回滚已扣部分，
// 订单要么完整占用库存要么完全不占用。
// 迁移：状态机表 + 角色表双重判定，落库走 CAS，并发迁移只有一个成功。
type OrderService struct {
	orders    order.Repository
	users     user.Repository
	inventory *InventoryService
	publisher notify.Publisher
}

// NewOrderService 创建订单服务，publisher 可为 nil（不发事件）
func NewOrderService(orders order.Repository, users user.Repository, inventory *InventoryService, publisher notify.Publisher) *OrderService {
	return &OrderService{
		orders:    orders,
		users:     users,
		inventory: inventory,
		publisher: publisher,
	}
}

// CreateOrder 下单。items 允许为空（配合订座的占位单）。
func (s *OrderService) CreateOrder(ctx context.Context, userID string, items []CreateItem, bookingID, notes string) (*order.Order, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		GetMonitor().RecordDBError()
		return nil, err
	}
	if !u.Active {
		return nil, fmt.Errorf("%w: account disabled", ErrForbidden)
	}
	for i, it := range items {
		if it.ProductID == "" {
			return nil, fmt.Errorf("%w: item %d missing product id", ErrValidation, i)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d quantity must be positive", ErrValidation, i)
		}
	}

	// 先读商品做快照，再扣库存。扣减中途失败时归还已扣的行。
	snapshot := make([]order.OrderItem, 0, len(items))
	for _, it := range items {
		p, err := s.inventory.products.GetByID(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: product %s", ErrNotFound, it.ProductID)
			}
			GetMonitor().RecordDBError()
			return nil, err
		}
		if !p.Active {
			return nil, fmt.Errorf("%w: %s", ErrInactiveProduct, p.Name)
		}
		snapshot = append(snapshot, order.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Price:       p.Price,
			Quantity:    it.Quantity,
		})
	}

	decremented := make([]order.OrderItem, 0, len(snapshot))
	for _, it := range snapshot {
		if err := s.inventory.TryDecrement(ctx, it.ProductID, it.Quantity); err != nil {
			s.rollbackDecrements(ctx, decremented)
			GetMonitor().RecordOrderFailed()
			if errors.Is(err, ErrOutOfStock) {
				GetMonitor().RecordStockConflict()
			}
			return nil, err
		}
		decremented = append(decremented, it)
	}

	o := &order.Order{
		UserID:         userID,
		Items:          snapshot,
		Status:         order.StatusPending,
		PaymentStatus:  order.PaymentPending,
		TableBookingID: bookingID,
		Notes:          notes,
	}
	o.TotalPrice = o.ComputeTotal()
	if err := s.orders.Create(ctx, o); err != nil {
		s.rollbackDecrements(ctx, decremented)
		GetMonitor().RecordDBError()
		GetMonitor().RecordOrderFailed()
		return nil, err
	}
	o.CustomerName = u.Name
	GetMonitor().RecordOrderCreated()
	s.fireEvent(notify.TopicOrderCreated, o)
	return o, nil
}

func (s *OrderService) rollbackDecrements(ctx context.Context, items []order.OrderItem) {
	for _, it := range items {
		if err := s.inventory.Increment(ctx, it.ProductID, it.Quantity); err != nil {
			zap.L().Error("stock rollback failed",
				zap.String("product_id", it.ProductID),
				zap.Int64("quantity", it.Quantity),
				zap.Error(err))
		}
	}
}

// UpdateStatus 驱动订单状态迁移。
// 迁移合法性、角色权限、归属（顾客只能取消自己的单）都在这里判定。
// chefID/waiterID 可为空：进入 PREPARING/SERVED 时优先用显式指派，
// 否则厨师/服务员自己驱动时自动认领。
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, orderID string, target order.Status, chefID, waiterID string) (*order.Order, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.RoleCanTarget(actor.Role, target) {
		GetMonitor().RecordTransitionRejected()
		return nil, fmt.Errorf("%w: role %s cannot set status %s", ErrForbidden, actor.Role, target)
	}
	if actor.Role == user.RoleCustomer && o.UserID != actor.ID {
		GetMonitor().RecordTransitionRejected()
		return nil, fmt.Errorf("%w: not your order", ErrForbidden)
	}
	if !order.CanTransition(o.Status, target) {
		GetMonitor().RecordTransitionRejected()
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, target)
	}

	prev := o.Status
	o.Status = target
	switch target {
	case order.StatusPreparing:
		switch {
		case chefID != "":
			chef, err := s.getStaff(ctx, chefID, user.RoleChef)
			if err != nil {
				return nil, err
			}
			o.AssignedChefID = chef.ID
		case actor.Role == user.RoleChef && o.AssignedChefID == "":
			// 厨师驱动进入制作中时自动认领
			o.AssignedChefID = actor.ID
		}
	case order.StatusServed:
		switch {
		case waiterID != "":
			waiter, err := s.getStaff(ctx, waiterID, user.RoleWaiter)
			if err != nil {
				return nil, err
			}
			o.AssignedWaiterID = waiter.ID
		case actor.Role == user.RoleWaiter && o.AssignedWaiterID == "":
			o.AssignedWaiterID = actor.ID
		}
	case order.StatusCompleted:
		// 完成即结清
		o.PaymentStatus = order.PaymentPaid
	}

	ok, err := s.orders.UpdateStatusFrom(ctx, o, prev)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	if !ok {
		// 并发迁移已抢先发生，按非法迁移处理
		GetMonitor().RecordTransitionRejected()
		return nil, fmt.Errorf("%w: order %s already left %s", ErrIllegalTransition, orderID, prev)
	}

	if target == order.StatusCancelled {
		// 取消后归还库存。归还失败只记日志，不阻塞取消。
		s.rollbackDecrements(ctx, o.Items)
	}
	s.populateCustomerName(ctx, o)
	s.fireEvent(notify.TopicOrderUpdated, o)
	return o, nil
}

// CancelOrder 取消订单（UpdateStatus 的快捷方式）
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, orderID string) (*order.Order, error) {
	return s.UpdateStatus(ctx, actor, orderID, order.StatusCancelled, "", "")
}

// AssignToChef 把订单指派给厨师。订单还在 CONFIRMED 时顺带推进到
// PREPARING；其他状态只记录指派，不动状态（指派不会把订单往回拖）。
func (s *OrderService) AssignToChef(ctx context.Context, orderID, chefID string) (*order.Order, error) {
	chef, err := s.getStaff(ctx, chefID, user.RoleChef)
	if err != nil {
		return nil, err
	}
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == order.StatusConfirmed {
		prev := o.Status
		o.Status = order.StatusPreparing
		o.AssignedChefID = chef.ID
		ok, err := s.orders.UpdateStatusFrom(ctx, o, prev)
		if err != nil {
			GetMonitor().RecordDBError()
			return nil, err
		}
		if !ok {
			GetMonitor().RecordTransitionRejected()
			return nil, fmt.Errorf("%w: order %s already left %s", ErrIllegalTransition, orderID, prev)
		}
	} else {
		if o.AssignedChefID == chef.ID {
			s.populateCustomerName(ctx, o)
			return o, nil
		}
		o.AssignedChefID = chef.ID
		if err := s.orders.Update(ctx, o); err != nil {
			GetMonitor().RecordDBError()
			return nil, err
		}
	}
	s.populateCustomerName(ctx, o)
	s.fireEvent(notify.TopicOrderUpdated, o)
	return o, nil
}

// AssignToWaiter 把订单指派给服务员。订单还在 PREPARING 时顺带推进到
// READY_FOR_SERVICE；其他状态只记录指派，不动状态。
func (s *OrderService) AssignToWaiter(ctx context.Context, orderID, waiterID string) (*order.Order, error) {
	waiter, err := s.getStaff(ctx, waiterID, user.RoleWaiter)
	if err != nil {
		return nil, err
	}
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == order.StatusPreparing {
		prev := o.Status
		o.Status = order.StatusReadyForService
		o.AssignedWaiterID = waiter.ID
		ok, err := s.orders.UpdateStatusFrom(ctx, o, prev)
		if err != nil {
			GetMonitor().RecordDBError()
			return nil, err
		}
		if !ok {
			GetMonitor().RecordTransitionRejected()
			return nil, fmt.Errorf("%w: order %s already left %s", ErrIllegalTransition, orderID, prev)
		}
	} else {
		if o.AssignedWaiterID == waiter.ID {
			s.populateCustomerName(ctx, o)
			return o, nil
		}
		o.AssignedWaiterID = waiter.ID
		if err := s.orders.Update(ctx, o); err != nil {
			GetMonitor().RecordDBError()
			return nil, err
		}
	}
	s.populateCustomerName(ctx, o)
	s.fireEvent(notify.TopicOrderUpdated, o)
	return o, nil
}

// GetByID 查单，补齐顾客名（后台用，不做归属判定）
func (s *OrderService) GetByID(ctx context.Context, id string) (*order.Order, error) {
	o, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.populateCustomerName(ctx, o)
	return o, nil
}

// GetByIDFor 按请求者身份查单：管理员或订单所有者可见，其余拒绝。
// 员工处理他人订单走状态迁移/指派路径，不走这个普通读。
func (s *OrderService) GetByIDFor(ctx context.Context, actor Actor, id string) (*order.Order, error) {
	o, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != user.RoleAdmin && o.UserID != actor.ID {
		return nil, fmt.Errorf("%w: not your order", ErrForbidden)
	}
	s.populateCustomerName(ctx, o)
	return o, nil
}

// ListByUser 顾客自己的订单
func (s *OrderService) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	return s.listAndPopulate(ctx, func() ([]*order.Order, error) {
		return s.orders.ListByUser(ctx, userID)
	})
}

// ListForChef 指派给某厨师的订单
func (s *OrderService) ListForChef(ctx context.Context, chefID string) ([]*order.Order, error) {
	return s.listAndPopulate(ctx, func() ([]*order.Order, error) {
		return s.orders.ListByChef(ctx, chefID)
	})
}

// ListForWaiter 指派给某服务员的订单
func (s *OrderService) ListForWaiter(ctx context.Context, waiterID string) ([]*order.Order, error) {
	return s.listAndPopulate(ctx, func() ([]*order.Order, error) {
		return s.orders.ListByWaiter(ctx, waiterID)
	})
}

// NeedingChef 待认领的已确认订单（后厨接单队列）
func (s *OrderService) NeedingChef(ctx context.Context) ([]*order.Order, error) {
	return s.listAndPopulate(ctx, func() ([]*order.Order, error) {
		return s.orders.ListNeedingChef(ctx)
	})
}

// NeedingWaiter 待认领的出餐订单（前厅传菜队列）
func (s *OrderService) NeedingWaiter(ctx context.Context) ([]*order.Order, error) {
	return s.listAndPopulate(ctx, func() ([]*order.Order, error) {
		return s.orders.ListNeedingWaiter(ctx)
	})
}

// ListRecent 最新订单
func (s *OrderService) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	return s.listAndPopulate(ctx, func() ([]*order.Order, error) {
		return s.orders.ListRecent(ctx, limit)
	})
}

// TodayOrders 今日订单（服务器本地时区的自然日）
func (s *OrderService) TodayOrders(ctx context.Context) ([]*order.Order, error) {
	from, to := todayRange()
	return s.listAndPopulate(ctx, func() ([]*order.Order, error) {
		return s.orders.ListBetween(ctx, from, to)
	})
}

// Stats 仪表盘统计：今日单量 + 全量按状态计数
type Stats struct {
	Today       int64              `json:"today"`
	Total       int64              `json:"total"`
	ByStatus    order.StatusCounts `json:"byStatus"`
	TodayStatus order.StatusCounts `json:"todayByStatus"`
}

// GetStats 汇总订单统计
func (s *OrderService) GetStats(ctx context.Context) (*Stats, error) {
	byStatus, err := s.orders.CountByStatus(ctx)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	total, err := s.orders.CountAll(ctx)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	from, to := todayRange()
	todayStatus, err := s.orders.CountBetweenByStatus(ctx, from, to)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	var today int64
	for _, n := range todayStatus {
		today += n
	}
	return &Stats{
		Today:       today,
		Total:       total,
		ByStatus:    byStatus,
		TodayStatus: todayStatus,
	}, nil
}

func todayRange() (time.Time, time.Time) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return from, from.AddDate(0, 0, 1)
}

func (s *OrderService) getOrder(ctx context.Context, id string) (*order.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
		}
		GetMonitor().RecordDBError()
		return nil, err
	}
	return o, nil
}

func (s *OrderService) getStaff(ctx context.Context, id string, role user.Role) (*user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		GetMonitor().RecordDBError()
		return nil, err
	}
	if u.Role != role {
		return nil, fmt.Errorf("%w: user %s is not a %s", ErrValidation, id, role)
	}
	return u, nil
}

func (s *OrderService) listAndPopulate(ctx context.Context, fn func() ([]*order.Order, error)) ([]*order.Order, error) {
	os, err := fn()
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	// 同名查询会重复命中，小缓存即可
	names := make(map[string]string)
	for _, o := range os {
		name, ok := names[o.UserID]
		if !ok {
			name = s.lookupName(ctx, o.UserID)
			names[o.UserID] = name
		}
		o.CustomerName = name
	}
	return os, nil
}

func (s *OrderService) populateCustomerName(ctx context.Context, o *order.Order) {
	o.CustomerName = s.lookupName(ctx, o.UserID)
}

func (s *OrderService) lookupName(ctx context.Context, userID string) string {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil || u.Name == "" {
		// 用户已删或查询失败时用占位名，列表展示不因此报错
		return "Customer"
	}
	return u.Name
}

// fireEvent 发布订单事件，失败只记日志和指标
func (s *OrderService) fireEvent(topic string, o *order.Order) {
	if s.publisher == nil {
		return
	}
	ev := notify.NewEvent(topic, o)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.Publish(ctx, ev); err != nil {
			GetMonitor().RecordNotifyError()
			zap.L().Warn("order event publish failed",
				zap.String("topic", topic),
				zap.String("order_id", o.ID),
				zap.Error(err))
		}
		if topic == notify.TopicOrderUpdated {
			// 再发一条带订单号的路由键，供单客户订阅
			evScoped := ev
			evScoped.Topic = notify.OrderTopic(o.ID)
			if err := s.publisher.Publish(ctx, evScoped); err != nil {
				GetMonitor().RecordNotifyError()
				zap.L().Warn("order event publish failed",
					zap.String("topic", evScoped.Topic),
					zap.String("order_id", o.ID),
					zap.Error(err))
			}
		}
	}()
}
