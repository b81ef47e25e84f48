package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
	"github.com/kotoba-learn/kotoba-api/internal/store"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueueName is used when no queue name is configured.
const DefaultQueueName = "audio_generation"

// channel is the subset of *amqp.Channel used by the publisher.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AudioPublisher implements store.AudioQueueStore by publishing each item as
// a persistent JSON message on a durable queue.
type AudioPublisher struct {
	conn   *amqp.Connection
	ch     channel
	queue  string
	logger *slog.Logger

	// amqp channels must not be used for concurrent publishes.
	mu sync.Mutex
}

var _ store.AudioQueueStore = (*AudioPublisher)(nil)

// Dial connects to the broker at url and declares the queue.
func Dial(url, queue string, logger *slog.Logger) (*AudioPublisher, error) {
	if url == "" {
		return nil, errors.New("amqp url is required")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	p, err := newAudioPublisher(ch, queue, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newAudioPublisher(ch channel, queue string, logger *slog.Logger) (*AudioPublisher, error) {
	if queue == "" {
		queue = DefaultQueueName
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "audio_publisher"), slog.String("queue", queue))

	_, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // auto-deleted
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare queue '%s': %w", queue, err)
	}

	logger.Info("audio queue declared")
	return &AudioPublisher{ch: ch, queue: queue, logger: logger}, nil
}

// Enqueue implements store.AudioQueueStore.Enqueue.
func (p *AudioPublisher) Enqueue(ctx context.Context, item *domain.AudioQueueItem) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal audio item: %w", err)
	}

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    item.ID.String(),
			Priority:     uint8(item.Priority),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	p.mu.Unlock()

	if err != nil {
		logger.FromContextOrDefault(ctx, p.logger).Error("failed to publish audio item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return fmt.Errorf("failed to publish audio item: %w", err)
	}

	return nil
}

// Close closes the channel and the connection.
func (p *AudioPublisher) Close() error {
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
