package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"time"

	radix "github.com/mediocregopher/radix/v3"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/codewithprince01/CoffeeBeat/internal/config"
	"github.com/codewithprince01/CoffeeBeat/internal/infra/mq"
	"github.com/codewithprince01/CoffeeBeat/internal/infra/redis"
	"github.com/codewithprince01/CoffeeBeat/internal/logger"
	"github.com/codewithprince01/CoffeeBeat/internal/notify"
)

const (
	notifyQueue = "coffeebeat_notify"
	bindingKey  = "orders.#"

	// 每日事件计数 key，次日零点后自动过期
	redisDailyEventKey = "cb:events:%s:%s" // date, topic
	dailyKeyExpire     = "172800"          // 48小时
)

func main() {
	confDir := flag.String("conf", ".", "directory containing config.yaml")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger.Init(*debug)

	cfg, err := config.Load(*confDir)
	if err != nil {
		zap.L().Fatal("failed to load config", zap.Error(err))
	}
	if cfg.RabbitMQ.Disabled {
		zap.L().Fatal("rabbitmq is disabled, notify worker has nothing to consume")
	}

	mqConn := mq.Init(&cfg.RabbitMQ)
	redisClient := redis.Init(&cfg.Redis)

	ch, err := mqConn.Channel()
	if err != nil {
		zap.L().Fatal("failed to open channel", zap.Error(err))
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(cfg.RabbitMQ.Exchange, "topic", true, false, false, false, nil); err != nil {
		zap.L().Fatal("failed to declare exchange", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(notifyQueue, true, false, false, false, nil); err != nil {
		zap.L().Fatal("failed to declare queue", zap.Error(err))
	}
	if err := ch.QueueBind(notifyQueue, bindingKey, cfg.RabbitMQ.Exchange, false, nil); err != nil {
		zap.L().Fatal("failed to bind queue", zap.Error(err))
	}

	// 手动确认模式（auto-ack=false）
	msgs, err := ch.Consume(notifyQueue, "", false, false, false, false, nil)
	if err != nil {
		zap.L().Fatal("failed to consume", zap.Error(err))
	}

	zap.L().Info("notify worker started, waiting for order events")

	for d := range msgs {
		var ev notify.Event
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			zap.L().Warn("invalid event payload", zap.Error(err))
			// 消息格式错误，拒绝并丢弃
			_ = d.Nack(false, false)
			continue
		}
		handleEvent(redisClient, ev, d)
	}
}

func handleEvent(redisClient radix.Client, ev notify.Event, d amqp.Delivery) {
	zap.L().Info("order event",
		zap.String("topic", ev.Topic),
		zap.String("order_id", ev.OrderID),
		zap.String("user_id", ev.UserID),
		zap.String("status", string(ev.Status)),
		zap.Int64("total_price", ev.TotalPrice))

	// 事件计数落 Redis，给仪表盘做当日活动曲线
	day := time.Now().Format("2006-01-02")
	key := fmt.Sprintf(redisDailyEventKey, day, d.RoutingKey)
	var count int
	if err := redisClient.Do(radix.Cmd(&count, "INCR", key)); err != nil {
		zap.L().Warn("failed to count event", zap.Error(err))
		// Redis 暂时不可用，重新入队稍后再试
		_ = d.Nack(false, true)
		return
	}
	if count == 1 {
		if err := redisClient.Do(radix.Cmd(nil, "EXPIRE", key, dailyKeyExpire)); err != nil {
			zap.L().Warn("failed to set expire for event counter", zap.Error(err))
		}
	}

	if err := d.Ack(false); err != nil {
		zap.L().Warn("failed to ack event", zap.Error(err))
	}
}
