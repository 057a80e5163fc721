package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher emits domain events to RabbitMQ. Publishing is best-effort:
// errors are logged and returned so callers can ignore them without
// interrupting the main request flow.
type Publisher struct {
	url string
	log *logrus.Logger
}

// NewPublisher builds a publisher for the given broker URL.
func NewPublisher(url string, log *logrus.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// DeliveryRegistered publishes to the delivery.registered queue.
func (p *Publisher) DeliveryRegistered(ctx context.Context, ev DeliveryRegisteredEvent) error {
	return p.publish(ctx, RegisteredQueue, ev)
}

// DeliveryPickedUp publishes to the delivery.pickedup queue.
func (p *Publisher) DeliveryPickedUp(ctx context.Context, ev DeliveryPickedUpEvent) error {
	return p.publish(ctx, PickedUpQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queueName string, ev any) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.WithError(err).Warn("rabbitmq dial failed")
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.WithError(err).Warn("rabbitmq channel open failed")
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		p.log.WithError(err).Warn("rabbitmq queue declare failed")
		return fmt.Errorf("queue declare: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		p.log.WithError(err).Warn("rabbitmq publish failed")
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
