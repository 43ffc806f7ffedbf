package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/dlswn666/johapon-api/internal/config"
	"github.com/dlswn666/johapon-api/internal/db"
	"github.com/dlswn666/johapon-api/internal/logging"
	"github.com/dlswn666/johapon-api/internal/queue"
	"github.com/dlswn666/johapon-api/internal/repository"
	"github.com/dlswn666/johapon-api/internal/service"
)

// The worker only needs the database and the broker, so a missing
// provider or JWT setting is not fatal here.
func main() {
	cfg, err := config.Load()
	log := logging.New(cfg.LogLevel, cfg.IsDevelopment()).With().Str("comp", "audit-worker").Logger()
	if err != nil {
		log.Warn().Err(err).Msg("configuration incomplete")
	}
	if cfg.AMQPURL == "" {
		log.Fatal().Msg("AMQP_URL is required")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("worker stopped")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	mq, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return err
	}
	defer mq.Close()

	ch, err := mq.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	q, err := queue.DeclareAuditQueue(ch, cfg.AuditQueue)
	if err != nil {
		return err
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return err
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	worker := service.NewAuditWorker(&repository.LogRepository{DB: conn}, ch, q.Name, log)

	done := make(chan struct{})
	go func() {
		worker.Start(ctx, msgs)
		close(done)
	}()

	log.Info().Str("queue", q.Name).Msg("worker running, waiting for audit records")

	closed := mq.NotifyClose(make(chan *amqp.Error, 1))
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		ch.Close()
		<-done
		return nil
	case amqpErr := <-closed:
		<-done
		if amqpErr != nil {
			return amqpErr
		}
		return errors.New("broker connection closed")
	}
}
