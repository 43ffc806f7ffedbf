package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/dlswn666/johapon-api/internal/model"
)

const DefaultAuditQueue = "alimtalk_logs"

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// DeclareAuditQueue declares the durable queue audit records travel on.
func DeclareAuditQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
}

// AuditPublisher hands audit records to the broker; cmd/worker persists them.
type AuditPublisher struct {
	mu    sync.Mutex
	ch    Channel
	queue string
}

func NewAuditPublisher(ch Channel, queueName string) *AuditPublisher {
	if queueName == "" {
		queueName = DefaultAuditQueue
	}
	return &AuditPublisher{ch: ch, queue: queueName}
}

// AppendLog publishes the record under a fresh ID and returns that ID.
func (p *AuditPublisher) AppendLog(ctx context.Context, l *model.AlimtalkLog) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.SentAt.IsZero() {
		l.SentAt = time.Now()
	}

	body, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("encode audit record: %w", err)
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.Publish(
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    l.ID,
			Timestamp:    l.SentAt,
			Body:         body,
		},
	)
	if err != nil {
		return "", fmt.Errorf("publish audit record %s: %w", l.ID, err)
	}
	return l.ID, nil
}
