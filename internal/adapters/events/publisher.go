// Package events publishes domain events to RabbitMQ. Publishing is best
// effort: callers log failures and carry on, the store stays authoritative.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"extranet/internal/domain"
)

const PricesSavedQueue = "prices.saved"

type Publisher struct {
	url   string
	queue string
}

func New(url string) *Publisher {
	return &Publisher{url: url, queue: PricesSavedQueue}
}

// PublishPricesSaved dials, declares the durable queue and publishes a
// persistent JSON message. Partner saves are infrequent, so a connection per
// event is acceptable.
func (p *Publisher) PublishPricesSaved(ctx context.Context, ev domain.PricesSavedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	return ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.EventID,
			Timestamp:    time.Now().UTC(),
			Type:         p.queue,
			Body:         body,
		},
	)
}
