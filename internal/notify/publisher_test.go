package notify

import (
	"context"
	"testing"
	"time"

	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/order"
)

func TestHubDeliversToSubscribers(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(4)
	defer cancel()

	o := &order.Order{ID: "o-1", UserID: "u-1", Status: order.StatusPending, TotalPrice: 960}
	if err := hub.Publish(context.Background(), NewEvent(TopicOrderCreated, o)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Topic != TopicOrderCreated || ev.OrderID != "o-1" || ev.TotalPrice != 960 {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("event not delivered")
	}
}

func TestHubDropsWhenSubscriberFull(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(1)
	defer cancel()

	o := &order.Order{ID: "o-1"}
	// 第二条投不进去也不能阻塞
	done := make(chan struct{})
	go func() {
		_ = hub.Publish(context.Background(), NewEvent(TopicOrderCreated, o))
		_ = hub.Publish(context.Background(), NewEvent(TopicOrderUpdated, o))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on full subscriber")
	}
	if len(ch) != 1 {
		t.Fatalf("buffered = %d, want 1", len(ch))
	}
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(1)
	cancel()
	if _, open := <-ch; open {
		t.Fatalf("channel must be closed after cancel")
	}
	// 取消后发布不应 panic
	if err := hub.Publish(context.Background(), Event{Topic: TopicOrderCreated}); err != nil {
		t.Fatalf("publish after cancel: %v", err)
	}
}

func TestOrderTopic(t *testing.T) {
	if got := OrderTopic("abc"); got != "orders.updated.abc" {
		t.Fatalf("topic = %q", got)
	}
}
