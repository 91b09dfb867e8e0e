package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/booking"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/user"
	"github.com/codewithprince01/CoffeeBeat/internal/repository/memory"
)

func newBookingService(t *testing.T, ttl time.Duration) *BookingService {
	t.Helper()
	return NewBookingService(memory.NewBookingRepository(), ttl)
}

func TestBookingCreateAndConfirm(t *testing.T) {
	ctx := context.Background()
	svc := newBookingService(t, time.Hour)
	starts := time.Now().Add(2 * time.Hour)

	b, err := svc.Create(ctx, "user-1", 4, 2, starts, starts.Add(time.Hour), "window seat")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Status != booking.StatusPending {
		t.Fatalf("status = %s, want PENDING", b.Status)
	}

	got, err := svc.Confirm(ctx, b.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.Status != booking.StatusConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", got.Status)
	}
	// 已确认的不能再确认
	if _, err := svc.Confirm(ctx, b.ID); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("double confirm: expected illegal transition, got %v", err)
	}
}

func TestBookingValidation(t *testing.T) {
	ctx := context.Background()
	svc := newBookingService(t, time.Hour)
	starts := time.Now().Add(time.Hour)

	if _, err := svc.Create(ctx, "u", 0, 2, starts, starts.Add(time.Hour), ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad table: expected validation, got %v", err)
	}
	if _, err := svc.Create(ctx, "u", 1, 0, starts, starts.Add(time.Hour), ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad party size: expected validation, got %v", err)
	}
	if _, err := svc.Create(ctx, "u", 1, 2, starts, starts.Add(-time.Hour), ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("ends before starts: expected validation, got %v", err)
	}
	if _, err := svc.Create(ctx, "u", 1, 2, time.Now().Add(-time.Hour), starts, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("starts in the past: expected validation, got %v", err)
	}
}

func TestBookingCancelOwnership(t *testing.T) {
	ctx := context.Background()
	svc := newBookingService(t, time.Hour)
	starts := time.Now().Add(time.Hour)
	b, err := svc.Create(ctx, "user-1", 1, 2, starts, starts.Add(time.Hour), "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	other := Actor{ID: "user-2", Role: user.RoleCustomer}
	if _, err := svc.Cancel(ctx, other, b.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cancel others booking: expected forbidden, got %v", err)
	}
	// 员工可以代取消
	staff := Actor{ID: "waiter-1", Role: user.RoleWaiter}
	got, err := svc.Cancel(ctx, staff, b.ID)
	if err != nil {
		t.Fatalf("staff cancel: %v", err)
	}
	if got.Status != booking.StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", got.Status)
	}
}

func TestSweepExpiredPendingOnly(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewBookingRepository()
	svc := NewBookingService(repo, time.Nanosecond)
	starts := time.Now().Add(time.Hour)

	pending, err := svc.Create(ctx, "u", 1, 2, starts, starts.Add(time.Hour), "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	confirmed, err := svc.Create(ctx, "u", 2, 2, starts, starts.Add(time.Hour), "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Confirm(ctx, confirmed.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	n, err := svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept = %d, want 1", n)
	}
	p, _ := svc.GetByID(ctx, pending.ID)
	if p.Status != booking.StatusExpired {
		t.Fatalf("pending booking = %s, want EXPIRED", p.Status)
	}
	c, _ := svc.GetByID(ctx, confirmed.ID)
	if c.Status != booking.StatusConfirmed {
		t.Fatalf("confirmed booking must survive sweep, got %s", c.Status)
	}
	// 过期后不能取消
	if _, err := svc.Cancel(ctx, Actor{ID: "u", Role: user.RoleCustomer}, pending.ID); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("cancel expired: expected illegal transition, got %v", err)
	}
}
