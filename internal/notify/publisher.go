package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/order"
)

// 订单事件路由键。orders.updated.<orderID> 供单客户订阅。
const (
	TopicOrderCreated = "orders.created"
	TopicOrderUpdated = "orders.updated"
)

// OrderTopic 单个订单的更新主题
func OrderTopic(orderID string) string {
	return TopicOrderUpdated + "." + orderID
}

// Event 订单事件载荷
type Event struct {
	Topic      string       `json:"topic"`
	OrderID    string       `json:"orderId"`
	UserID     string       `json:"userId"`
	Status     order.Status `json:"status"`
	TotalPrice int64        `json:"totalPrice"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// NewEvent 从订单构造事件
func NewEvent(topic string, o *order.Order) Event {
	return Event{
		Topic:      topic,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		TotalPrice: o.TotalPrice,
		OccurredAt: time.Now(),
	}
}

// Publisher 订单事件发布接口。发布失败只记日志不回滚业务，
// 调用方不依赖投递结果。
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Fanout 把事件同时发往多个发布器，返回最后一个错误
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev Event) error {
	var last error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			last = err
		}
	}
	return last
}

// Hub 进程内发布器，MQ 关闭时的兜底实现。
// 订阅者消费慢会丢事件（非阻塞投递），只保证至多一次。
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewHub 创建进程内发布器
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe 订阅事件流，返回取消函数
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish 向所有订阅者非阻塞投递
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			zap.L().Warn("notify hub subscriber full, event dropped",
				zap.String("topic", ev.Topic), zap.String("order_id", ev.OrderID))
		}
	}
	return nil
}
