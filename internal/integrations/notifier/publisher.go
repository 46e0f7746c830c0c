// Package notifier publishes booking events to RabbitMQ. Delivery of emails
// and SMS is done by a separate consumer.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher публикует события в durable очередь
type Publisher struct {
	conn  *amqp.Connection
	ch    Channel
	queue string
	log   Logger

	// amqp.Channel нельзя использовать из нескольких горутин одновременно
	mu sync.Mutex
}

// NewPublisher подключается к брокеру и объявляет очередь
func NewPublisher(url, queue string, log Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %v", ErrConnect, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: open channel: %v", ErrConnect, err)
	}

	// Объявление идемпотентно; durable, чтобы сообщения переживали рестарт брокера
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%w: declare queue %q: %v", ErrConnect, queue, err)
	}

	log.Info("Notifier: connected to broker, queue=%s", queue)

	return &Publisher{conn: conn, ch: ch, queue: queue, log: log}, nil
}

// NewPublisherWithChannel создает Publisher поверх готового канала
func NewPublisherWithChannel(ch Channel, queue string, log Logger) *Publisher {
	return &Publisher{ch: ch, queue: queue, log: log}
}

// Publish отправляет событие как persistent JSON сообщение
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMarshal, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(event.Type),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("%w: type=%s booking_id=%d: %v", ErrPublish, event.Type, event.BookingID, err)
	}

	p.log.Info("Notifier: published %s for booking id=%d", event.Type, event.BookingID)
	return nil
}

// Close закрывает канал и соединение
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Nop отбрасывает события; используется, когда брокер выключен в конфиге
type Nop struct{}

// Publish ничего не делает
func (Nop) Publish(context.Context, Event) error { return nil }

// Close ничего не делает
func (Nop) Close() error { return nil }
