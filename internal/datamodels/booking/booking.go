package booking

import (
	"context"
	"time"
)

// Status 订座状态
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// Booking 餐桌预订模型
type Booking struct {
	ID          string    `gorm:"primaryKey;size:36"`
	UserID      string    `gorm:"index;size:36;not null"`
	TableNumber int       `gorm:"index;not null"`
	PartySize   int       `gorm:"not null"`
	StartsAt    time.Time `gorm:"index;not null"`
	EndsAt      time.Time `gorm:"not null"`
	Status      Status    `gorm:"size:16;index;not null"`
	Notes       string    `gorm:"size:512"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Repository 订座仓储接口
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	Update(ctx context.Context, b *Booking) error
	ListByUser(ctx context.Context, userID string) ([]*Booking, error)
	ListAll(ctx context.Context) ([]*Booking, error)
	// ExpirePendingBefore 把 cutoff 之前创建且仍为 PENDING 的订座批量置为
	// EXPIRED，返回受影响条数。
	ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
