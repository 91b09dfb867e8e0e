package service

import (
	"sync"
	"time"
)

// Monitor 监控服务，用于统计错误和业务指标
type Monitor struct {
	mu sync.RWMutex

	// 错误统计
	DBErrors     int64
	MQErrors     int64
	NotifyErrors int64

	// 业务统计
	OrdersCreated      int64
	OrdersFailed       int64
	StockConflicts     int64
	TransitionRejected int64
	BookingsExpired    int64

	// 时间统计
	LastDBError   time.Time
	LastMQError   time.Time
	LastOrderTime time.Time
}

var globalMonitor = &Monitor{}

// GetMonitor 获取全局监控实例
func GetMonitor() *Monitor {
	return globalMonitor
}

// RecordDBError 记录数据库错误
func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

// RecordNotifyError 记录事件发布失败
func (m *Monitor) RecordNotifyError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MQErrors++
	m.NotifyErrors++
	m.LastMQError = time.Now()
}

// RecordOrderCreated 记录下单成功
func (m *Monitor) RecordOrderCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersCreated++
	m.LastOrderTime = time.Now()
}

// RecordOrderFailed 记录下单失败
func (m *Monitor) RecordOrderFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersFailed++
}

// RecordStockConflict 记录库存不足导致的下单失败
func (m *Monitor) RecordStockConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StockConflicts++
}

// RecordTransitionRejected 记录被状态机或权限拒绝的状态迁移
func (m *Monitor) RecordTransitionRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TransitionRejected++
}

// RecordBookingsExpired 记录被清扫为过期的订座数量
func (m *Monitor) RecordBookingsExpired(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BookingsExpired += n
}

// GetStats 获取统计信息
func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	successRate := float64(0)
	total := m.OrdersCreated + m.OrdersFailed
	if total > 0 {
		successRate = float64(m.OrdersCreated) / float64(total) * 100
	}

	return map[string]interface{}{
		"errors": map[string]interface{}{
			"db":     m.DBErrors,
			"mq":     m.MQErrors,
			"notify": m.NotifyErrors,
		},
		"orders": map[string]interface{}{
			"created":             m.OrdersCreated,
			"failed":              m.OrdersFailed,
			"success_rate":        successRate,
			"stock_conflicts":     m.StockConflicts,
			"transition_rejected": m.TransitionRejected,
		},
		"bookings": map[string]interface{}{
			"expired": m.BookingsExpired,
		},
		"last_events": map[string]interface{}{
			"db_error":   m.LastDBError,
			"mq_error":   m.LastMQError,
			"last_order": m.LastOrderTime,
		},
	}
}

// Reset 重置统计（用于测试或定期清理）
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors = 0
	m.MQErrors = 0
	m.NotifyErrors = 0
	m.OrdersCreated = 0
	m.OrdersFailed = 0
	m.StockConflicts = 0
	m.TransitionRejected = 0
	m.BookingsExpired = 0
}
