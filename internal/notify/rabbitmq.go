package notify

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitPublisher 基于 topic exchange 的订单事件发布器。
// 路由键即事件主题，消费者按 orders.# 或 orders.updated.<id> 绑定。
type RabbitPublisher struct {
	conn     *amqp.Connection
	exchange string
}

// NewRabbitPublisher 创建 MQ 发布器并声明 exchange
func NewRabbitPublisher(conn *amqp.Connection, exchange string) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, err
	}
	return &RabbitPublisher{conn: conn, exchange: exchange}, nil
}

// Publish 发布订单事件
func (p *RabbitPublisher) Publish(ctx context.Context, ev Event) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(&ev)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(
		ctx,
		p.exchange,
		ev.Topic,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
