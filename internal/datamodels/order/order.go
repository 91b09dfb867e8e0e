package order

import (
	"context"
	"time"

	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/user"
)

// Status 订单状态
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusConfirmed       Status = "CONFIRMED"
	StatusPreparing       Status = "PREPARING"
	StatusReadyForService Status = "READY_FOR_SERVICE"
	StatusServed          Status = "SERVED"
	StatusCompleted       Status = "COMPLETED"
	StatusCancelled       Status = "CANCELLED"
)

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)

// ParseStatus 解析状态字符串，未知状态返回 false
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusPreparing,
		StatusReadyForService, StatusServed, StatusCompleted, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

// validNext 状态机合法迁移表，表外的一律拒绝
var validNext = map[Status]map[Status]bool{
	StatusPending:         {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed:       {StatusPreparing: true, StatusCancelled: true},
	StatusPreparing:       {StatusReadyForService: true, StatusCancelled: true},
	StatusReadyForService: {StatusServed: true},
	StatusServed:          {StatusCompleted: true},
	StatusCompleted:       {},
	StatusCancelled:       {},
}

// CanTransition 判断 from -> to 是否为合法迁移
func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Terminal 是否为终态
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// roleTargets 各角色可驱动的目标状态（与合法迁移表独立判定，两者都要通过）
var roleTargets = map[user.Role]map[Status]bool{
	user.RoleAdmin: {
		StatusConfirmed: true, StatusPreparing: true, StatusReadyForService: true,
		StatusServed: true, StatusCompleted: true, StatusCancelled: true,
	},
	user.RoleChef: {
		StatusConfirmed: true, StatusPreparing: true, StatusReadyForService: true,
	},
	user.RoleWaiter: {
		StatusServed: true,
	},
	user.RoleCustomer: {
		StatusCancelled: true,
	},
}

// RoleCanTarget 判断角色是否允许把订单推进到目标状态
func RoleCanTarget(role user.Role, target Status) bool {
	return roleTargets[role][target]
}

// OrderItem 订单行，下单时快照商品名称和单价（分），
// 之后商品改价/改名不影响历史订单。
type OrderItem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Price       int64  `json:"price"`
	Quantity    int64  `json:"quantity"`
}

// Subtotal 行小计
func (it OrderItem) Subtotal() int64 {
	return it.Price * it.Quantity
}

// Order 订单模型。Items 允许为空（纯订座单，金额为 0）
type Order struct {
	ID               string        `gorm:"primaryKey;size:36"`
	UserID           string        `gorm:"index;size:36;not null"`
	Items            []OrderItem   `gorm:"serializer:json"`
	TotalPrice       int64         `gorm:"not null"` // 分，服务端根据快照计算
	Status           Status        `gorm:"size:24;index;not null"`
	PaymentStatus    PaymentStatus `gorm:"size:16;not null"`
	AssignedChefID   string        `gorm:"index;size:36"`
	AssignedWaiterID string        `gorm:"index;size:36"`
	TableBookingID   string        `gorm:"index;size:36"`
	Notes            string        `gorm:"size:512"`
	CustomerName     string        `gorm:"-"` // 读取时由用户目录补齐，不落库
	CreatedAt        time.Time     `gorm:"index"`
	UpdatedAt        time.Time
}

// ComputeTotal 根据快照重新计算总价
func (o *Order) ComputeTotal() int64 {
	var total int64
	for _, it := range o.Items {
		total += it.Subtotal()
	}
	return total
}

// StatusCounts 按状态统计
type StatusCounts map[Status]int64

// Repository 订单仓储接口
//
// UpdateStatusFrom 以“当前状态等于 prev”为条件做一次 CAS 更新，
// 返回 false 表示并发迁移已经抢先发生。
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	UpdateStatusFrom(ctx context.Context, o *Order, prev Status) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	ListByChef(ctx context.Context, chefID string) ([]*Order, error)
	ListByWaiter(ctx context.Context, waiterID string) ([]*Order, error)
	ListNeedingChef(ctx context.Context) ([]*Order, error)
	ListNeedingWaiter(ctx context.Context) ([]*Order, error)
	ListRecent(ctx context.Context, limit int) ([]*Order, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]*Order, error)
	CountByStatus(ctx context.Context) (StatusCounts, error)
	CountBetweenByStatus(ctx context.Context, from, to time.Time) (StatusCounts, error)
	CountAll(ctx context.Context) (int64, error)
}
