package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/dlswn666/johapon-api/internal/model"
	"github.com/dlswn666/johapon-api/internal/repository"
)

const (
	RetryHeader       = "x-retry-count"
	DefaultMaxRetries = 3
)

// Republisher puts a failed delivery back on its queue.
type Republisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AuditWorker persists audit records published by the API server.
type AuditWorker struct {
	LogRepo    repository.LogRepositoryInterface
	Retry      Republisher
	Queue      string
	MaxRetries int
	Timeout    time.Duration
	Log        zerolog.Logger
}

func NewAuditWorker(repo repository.LogRepositoryInterface, retry Republisher, queueName string, log zerolog.Logger) *AuditWorker {
	return &AuditWorker{
		LogRepo:    repo,
		Retry:      retry,
		Queue:      queueName,
		MaxRetries: DefaultMaxRetries,
		Timeout:    10 * time.Second,
		Log:        log,
	}
}

// errUndecodable marks messages that retrying cannot fix.
type errUndecodable struct{ err error }

func (e errUndecodable) Error() string { return "invalid audit record: " + e.err.Error() }

// Handle stores one record. Redelivered records keep their ID, so a
// duplicate insert is a no-op.
func (w *AuditWorker) Handle(ctx context.Context, body []byte) error {
	var entry model.AlimtalkLog
	if err := json.Unmarshal(body, &entry); err != nil {
		return errUndecodable{err}
	}
	if entry.ID == "" {
		return errUndecodable{fmt.Errorf("missing id")}
	}

	ctx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()
	if _, err := w.LogRepo.AppendLog(ctx, &entry); err != nil {
		return fmt.Errorf("save audit record %s: %w", entry.ID, err)
	}
	return nil
}

// Start consumes deliveries until the channel closes.
func (w *AuditWorker) Start(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		w.process(ctx, d)
	}
}

func (w *AuditWorker) process(ctx context.Context, d amqp.Delivery) {
	err := w.Handle(ctx, d.Body)
	if err == nil {
		d.Ack(false)
		return
	}

	log := w.Log.With().Str("message_id", d.MessageId).Logger()
	if _, ok := err.(errUndecodable); ok {
		log.Error().Err(err).Msg("dropping audit record")
		d.Ack(false)
		return
	}

	retries := retryCount(d.Headers)
	if retries >= w.MaxRetries {
		log.Error().Err(err).Int("retries", retries).Msg("audit record failed permanently")
		d.Nack(false, false)
		return
	}

	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[RetryHeader] = int32(retries + 1)

	pubErr := w.Retry.Publish("", w.Queue, false, false, amqp.Publishing{
		Headers:      headers,
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    d.MessageId,
		Timestamp:    d.Timestamp,
		Body:         d.Body,
	})
	if pubErr != nil {
		// fall back to broker requeue; the count is lost but the record is not
		log.Error().Err(pubErr).Msg("republish failed, requeueing")
		d.Nack(false, true)
		return
	}
	log.Warn().Err(err).Int("retry", retries+1).Msg("audit record scheduled for retry")
	d.Ack(false)
}

func retryCount(h amqp.Table) int {
	switch v := h[RetryHeader].(type) {
	case int:
		return v
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}
