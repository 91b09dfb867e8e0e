package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/order"
	"github.com/codewithprince01/CoffeeBeat/internal/repository"
)

func TestOrderRepoUpdateStatusFromCAS(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	o := &order.Order{UserID: "u-1", Status: order.StatusPending, PaymentStatus: order.PaymentPending}
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("create: %v", err)
	}

	o.Status = order.StatusConfirmed
	ok, err := repo.UpdateStatusFrom(ctx, o, order.StatusPending)
	if err != nil || !ok {
		t.Fatalf("cas from pending: ok=%v err=%v", ok, err)
	}

	// 旧前置条件再提交一次必须失败
	stale := &order.Order{ID: o.ID, Status: order.StatusCancelled}
	ok, err = repo.UpdateStatusFrom(ctx, stale, order.StatusPending)
	if err != nil {
		t.Fatalf("cas: %v", err)
	}
	if ok {
		t.Fatalf("stale cas must not win")
	}
	got, _ := repo.GetByID(ctx, o.ID)
	if got.Status != order.StatusConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", got.Status)
	}
}

func TestOrderRepoClonesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	o := &order.Order{
		UserID: "u-1",
		Status: order.StatusPending,
		Items:  []order.OrderItem{{ProductID: "p-1", ProductName: "Espresso", Price: 350, Quantity: 1}},
	}
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("create: %v", err)
	}

	// 改调用方持有的切片不能影响仓储内的数据
	o.Items[0].Quantity = 99
	got, _ := repo.GetByID(ctx, o.ID)
	if got.Items[0].Quantity != 1 {
		t.Fatalf("store mutated through caller slice: %d", got.Items[0].Quantity)
	}

	// 读出来的副本改了也不回写
	got.Items[0].ProductName = "Hacked"
	again, _ := repo.GetByID(ctx, o.ID)
	if again.Items[0].ProductName != "Espresso" {
		t.Fatalf("store mutated through read copy: %s", again.Items[0].ProductName)
	}
}

func TestOrderRepoNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	if _, err := repo.GetByID(ctx, "nope"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Update(ctx, &order.Order{ID: "nope"}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("update missing: expected ErrNotFound, got %v", err)
	}
}

func TestOrderRepoQueues(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()

	mk := func(status order.Status, chef, waiter string) *order.Order {
		o := &order.Order{UserID: "u", Status: status, AssignedChefID: chef, AssignedWaiterID: waiter}
		if err := repo.Create(ctx, o); err != nil {
			t.Fatalf("create: %v", err)
		}
		return o
	}

	mk(order.StatusConfirmed, "", "")
	mk(order.StatusConfirmed, "chef-1", "")
	mk(order.StatusPending, "", "")
	mk(order.StatusReadyForService, "chef-1", "")
	mk(order.StatusReadyForService, "chef-1", "waiter-1")

	needChef, err := repo.ListNeedingChef(ctx)
	if err != nil {
		t.Fatalf("needing chef: %v", err)
	}
	if len(needChef) != 1 {
		t.Fatalf("needing chef = %d, want 1", len(needChef))
	}
	needWaiter, err := repo.ListNeedingWaiter(ctx)
	if err != nil {
		t.Fatalf("needing waiter: %v", err)
	}
	if len(needWaiter) != 1 {
		t.Fatalf("needing waiter = %d, want 1", len(needWaiter))
	}

	counts, err := repo.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[order.StatusConfirmed] != 2 || counts[order.StatusReadyForService] != 2 || counts[order.StatusPending] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestOrderRepoListRecent(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	for i := 0; i < 5; i++ {
		if err := repo.Create(ctx, &order.Order{UserID: "u", Status: order.StatusPending}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	list, err := repo.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	// 新的在前
	if list[0].CreatedAt.Before(list[1].CreatedAt) || list[1].CreatedAt.Before(list[2].CreatedAt) {
		t.Fatalf("not sorted newest first")
	}
}
