// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/dlswn666/johapon-api/internal/auth"
	"github.com/dlswn666/johapon-api/internal/config"
	"github.com/dlswn666/johapon-api/internal/controller"
	"github.com/dlswn666/johapon-api/internal/db"
	"github.com/dlswn666/johapon-api/internal/handler"
	"github.com/dlswn666/johapon-api/internal/logging"
	"github.com/dlswn666/johapon-api/internal/middleware"
	"github.com/dlswn666/johapon-api/internal/provider/aligo"
	"github.com/dlswn666/johapon-api/internal/queue"
	"github.com/dlswn666/johapon-api/internal/repository"
	"github.com/dlswn666/johapon-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	log := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
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

	templateRepo := &repository.TemplateRepository{DB: conn}
	secretRepo := &repository.SecretRepository{
		DB:                 conn,
		FallbackSenderKey:  cfg.DefaultSenderKey,
		DefaultChannelName: cfg.DefaultChannelName,
	}
	pricingRepo := &repository.PricingRepository{DB: conn}

	var audit service.AuditSink = &repository.LogRepository{DB: conn}
	if cfg.AMQPURL != "" {
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

		if _, err := queue.DeclareAuditQueue(ch, cfg.AuditQueue); err != nil {
			return err
		}
		audit = queue.NewAuditPublisher(ch, cfg.AuditQueue)
		log.Info().Str("queue", cfg.AuditQueue).Msg("audit records go through the broker")
	}

	creds := aligo.Credentials{
		APIKey:      cfg.Aligo.APIKey,
		UserID:      cfg.Aligo.UserID,
		SenderPhone: cfg.Aligo.SenderPhone,
	}
	client := aligo.NewClient(cfg.Aligo.BaseURL, creds, cfg.DefaultSenderKey,
		aligo.WithRateLimit(cfg.Aligo.MaxRPS),
		aligo.WithLogger(logging.Component(log, "aligo")),
	)

	sendService := &service.SendService{
		TemplateRepo: templateRepo,
		SecretRepo:   secretRepo,
		Formatter:    aligo.NewFormatter(creds),
		Dispatcher:   client,
		BatchSize:    service.DefaultBatchSize,
		Pacing:       service.DefaultPacing,
		Log:          logging.Component(log, "send"),
	}
	alimtalkService := &service.AlimtalkService{
		Sender:           sendService,
		Pricing:          &service.PricingService{PricingRepo: pricingRepo, Log: logging.Component(log, "pricing")},
		Audit:            audit,
		FailOnAuditError: cfg.Queue.FailOnAuditError,
		Log:              logging.Component(log, "alimtalk"),
	}
	templateService := &service.TemplateService{
		Provider:     client,
		TemplateRepo: templateRepo,
		Log:          logging.Component(log, "templates"),
	}

	jobs := queue.New(queue.Config{
		Concurrency: cfg.Queue.Concurrency,
		MaxSize:     cfg.Queue.MaxSize,
		JobTimeout:  cfg.Queue.JobTimeout,
		Retention:   cfg.Queue.Retention,
	}, alimtalkService.ProcessJob, logging.Component(log, "queue"))
	jobs.Start(context.Background())

	janitor, err := queue.NewJanitor(jobs, cfg.Queue.SweepSpec, logging.Component(log, "janitor"))
	if err != nil {
		return err
	}
	janitor.Start()

	alimtalkController := &controller.AlimtalkController{
		Queue:     jobs,
		Sender:    alimtalkService,
		Templates: templateService,
		Log:       logging.Component(log, "http"),
	}
	healthHandler := &handler.HealthHandler{
		Queue:   jobs,
		Started: time.Now(),
		AppEnv:  cfg.AppEnv,
		Port:    cfg.Port,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logging.Component(log, "http")))
	r.Use(chimw.Recoverer)

	r.Get("/health", healthHandler.Health)
	r.Get("/health/detailed", healthHandler.Detailed)

	verifier := auth.NewVerifier(cfg.JWTSecret)
	r.Route("/api/alimtalk", func(r chi.Router) {
		r.Use(middleware.Auth(verifier))
		alimtalkController.Routes(r)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.JobTimeout+10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	janitor.Stop(shutdownCtx)
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("queue did not drain")
	}
	return nil
}
