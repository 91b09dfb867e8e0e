package user

import (
	"context"
	"time"
)

// Role 用户角色（封闭枚举，权限通过查表判定，避免散落的字符串比较）
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleChef     Role = "chef"
	RoleWaiter   Role = "waiter"
	RoleCustomer Role = "customer"
)

// Valid 判断是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleChef, RoleWaiter, RoleCustomer:
		return true
	}
	return false
}

// Staff 后厨/前厅员工（含管理员）
func (r Role) Staff() bool {
	return r == RoleAdmin || r == RoleChef || r == RoleWaiter
}

// User 用户模型
type User struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"size:128;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"` // 已加密密码
	Salt         string `gorm:"size:64"`
	Role         Role   `gorm:"size:16;index;not null"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository 用户仓储接口
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	ListAll(ctx context.Context) ([]*User, error)
	ListByRole(ctx context.Context, role Role) ([]*User, error)
}
