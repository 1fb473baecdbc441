package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes messaging events to the broker.
type Publisher interface {
	PublishAppointmentEvent(ctx context.Context, event AppointmentEvent) error
	PublishDeliveryEvent(ctx context.Context, event DeliveryEvent) error
	Close() error
}

type RabbitMQPublisher struct {
	client *RabbitMQ
}

func NewRabbitMQPublisher(client *RabbitMQ) *RabbitMQPublisher {
	return &RabbitMQPublisher{client: client}
}

func (p *RabbitMQPublisher) PublishAppointmentEvent(ctx context.Context, event AppointmentEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid appointment event: %w", err)
	}
	return p.publish(ctx, AppointmentEventsQueue, event.EventID, event.EventID, event)
}

func (p *RabbitMQPublisher) PublishDeliveryEvent(ctx context.Context, event DeliveryEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid delivery event: %w", err)
	}
	return p.publish(ctx, DeliveryEventsQueue, event.MessageID, event.MessageID, event)
}

func (p *RabbitMQPublisher) publish(ctx context.Context, queueName, messageID, correlationID string, payload any) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("publisher is not initialized")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ch, err := p.client.channel(ctx)
	if err != nil {
		return err
	}
	defer ch.Close()

	publishing := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now().UTC(),
		MessageId:     messageID,
		CorrelationId: correlationID,
		Body:          body,
	}

	if err := ch.PublishWithContext(ctx, "", queueName, false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish message to queue %q: %w", queueName, err)
	}

	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
