package order

import (
	"testing"

	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/user"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPreparing, false},
		{StatusConfirmed, StatusPreparing, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusServed, false},
		{StatusPreparing, StatusReadyForService, true},
		{StatusPreparing, StatusCancelled, true},
		{StatusReadyForService, StatusServed, true},
		{StatusReadyForService, StatusCancelled, false},
		{StatusServed, StatusCompleted, true},
		{StatusServed, StatusCancelled, false},
		{StatusCompleted, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	all := []Status{
		StatusPending, StatusConfirmed, StatusPreparing,
		StatusReadyForService, StatusServed, StatusCompleted, StatusCancelled,
	}
	for _, to := range all {
		if CanTransition(StatusCompleted, to) {
			t.Fatalf("COMPLETED must be terminal, allows -> %s", to)
		}
		if CanTransition(StatusCancelled, to) {
			t.Fatalf("CANCELLED must be terminal, allows -> %s", to)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus("PREPARING"); !ok || s != StatusPreparing {
		t.Fatalf("expected PREPARING, got %q ok=%v", s, ok)
	}
	if _, ok := ParseStatus("preparing"); ok {
		t.Fatalf("status parsing must be case sensitive")
	}
	if _, ok := ParseStatus("SHIPPED"); ok {
		t.Fatalf("unknown status must not parse")
	}
}

func TestRoleCanTarget(t *testing.T) {
	// 服务员只能上菜，厨师不能上菜也不能完成
	if RoleCanTarget(user.RoleWaiter, StatusConfirmed) {
		t.Fatalf("waiter must not confirm orders")
	}
	if !RoleCanTarget(user.RoleWaiter, StatusServed) {
		t.Fatalf("waiter must be able to serve")
	}
	if RoleCanTarget(user.RoleChef, StatusServed) {
		t.Fatalf("chef must not serve")
	}
	if RoleCanTarget(user.RoleChef, StatusCompleted) {
		t.Fatalf("chef must not complete")
	}
	if !RoleCanTarget(user.RoleCustomer, StatusCancelled) {
		t.Fatalf("customer must be able to cancel")
	}
	if RoleCanTarget(user.RoleCustomer, StatusConfirmed) {
		t.Fatalf("customer must not confirm")
	}
	// 管理员全部放行
	for _, s := range []Status{StatusConfirmed, StatusPreparing, StatusReadyForService, StatusServed, StatusCompleted, StatusCancelled} {
		if !RoleCanTarget(user.RoleAdmin, s) {
			t.Fatalf("admin must be able to target %s", s)
		}
	}
}

func TestComputeTotal(t *testing.T) {
	o := &Order{Items: []OrderItem{
		{ProductID: "a", Price: 350, Quantity: 2},
		{ProductID: "b", Price: 480, Quantity: 1},
	}}
	if got := o.ComputeTotal(); got != 1180 {
		t.Fatalf("total = %d, want 1180", got)
	}
	empty := &Order{}
	if got := empty.ComputeTotal(); got != 0 {
		t.Fatalf("empty order total = %d, want 0", got)
	}
}
