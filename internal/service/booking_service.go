package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/booking"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/user"
	"github.com/codewithprince01/CoffeeBeat/internal/repository"
)

// BookingService 餐桌预订。未确认的订座超时后由后台清扫置为 EXPIRED。
type BookingService struct {
	repo       booking.Repository
	pendingTTL time.Duration
}

// NewBookingService 创建订座服务
func NewBookingService(repo booking.Repository, pendingTTL time.Duration) *BookingService {
	if pendingTTL <= 0 {
		pendingTTL = 30 * time.Minute
	}
	return &BookingService{repo: repo, pendingTTL: pendingTTL}
}

// Create 预订餐桌，初始状态 PENDING
func (s *BookingService) Create(ctx context.Context, userID string, tableNumber, partySize int, startsAt, endsAt time.Time, notes string) (*booking.Booking, error) {
	if tableNumber <= 0 {
		return nil, fmt.Errorf("%w: table number must be positive", ErrValidation)
	}
	if partySize <= 0 {
		return nil, fmt.Errorf("%w: party size must be positive", ErrValidation)
	}
	if !endsAt.After(startsAt) {
		return nil, fmt.Errorf("%w: booking must end after it starts", ErrValidation)
	}
	if startsAt.Before(time.Now()) {
		return nil, fmt.Errorf("%w: booking cannot start in the past", ErrValidation)
	}
	b := &booking.Booking{
		UserID:      userID,
		TableNumber: tableNumber,
		PartySize:   partySize,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		Status:      booking.StatusPending,
		Notes:       notes,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	return b, nil
}

// Confirm 确认订座（员工操作）
func (s *BookingService) Confirm(ctx context.Context, id string) (*booking.Booking, error) {
	return s.setStatus(ctx, Actor{}, id, booking.StatusConfirmed, false)
}

// Cancel 取消订座。顾客只能取消自己的。
func (s *BookingService) Cancel(ctx context.Context, actor Actor, id string) (*booking.Booking, error) {
	return s.setStatus(ctx, actor, id, booking.StatusCancelled, actor.Role == user.RoleCustomer)
}

func (s *BookingService) setStatus(ctx context.Context, actor Actor, id string, target booking.Status, checkOwner bool) (*booking.Booking, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if checkOwner && b.UserID != actor.ID {
		return nil, fmt.Errorf("%w: not your booking", ErrForbidden)
	}
	// 只有 PENDING/CONFIRMED 可变更，终态不再动
	if b.Status != booking.StatusPending && b.Status != booking.StatusConfirmed {
		return nil, fmt.Errorf("%w: booking is %s", ErrIllegalTransition, b.Status)
	}
	if target == booking.StatusConfirmed && b.Status != booking.StatusPending {
		return nil, fmt.Errorf("%w: booking is %s", ErrIllegalTransition, b.Status)
	}
	b.Status = target
	if err := s.repo.Update(ctx, b); err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	return b, nil
}

// GetByID 查订座
func (s *BookingService) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: booking %s", ErrNotFound, id)
		}
		return nil, err
	}
	return b, nil
}

// ListByUser 某用户的订座
func (s *BookingService) ListByUser(ctx context.Context, userID string) ([]*booking.Booking, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListAll 全部订座（后台用）
func (s *BookingService) ListAll(ctx context.Context) ([]*booking.Booking, error) {
	return s.repo.ListAll(ctx)
}

// SweepExpired 清扫一次过期的 PENDING 订座，返回清扫数量
func (s *BookingService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpirePendingBefore(ctx, time.Now().Add(-s.pendingTTL))
	if err != nil {
		GetMonitor().RecordDBError()
		return 0, err
	}
	if n > 0 {
		GetMonitor().RecordBookingsExpired(n)
		zap.L().Info("expired pending bookings", zap.Int64("count", n))
	}
	return n, nil
}

// RunSweeper 周期清扫，ctx 取消后退出
func (s *BookingService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil {
				zap.L().Warn("booking sweep failed", zap.Error(err))
			}
		}
	}
}
