// @title Eventhub API
// @version 1.0
// @description Events platform: events with participants, images and likes.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"eventhub/config"
	_ "eventhub/docs"
	"eventhub/internal/adapters/auth"
	"eventhub/internal/adapters/blob"
	"eventhub/internal/adapters/email"
	"eventhub/internal/adapters/notify"
	deliveryhttp "eventhub/internal/delivery/http"
	"eventhub/internal/delivery/http/controllers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
	"eventhub/internal/repository/postgres"
	"eventhub/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to database")

	blobs, closeBlobs, err := openBlobStore(ctx, cfg.Blob, logger)
	if err != nil {
		return err
	}
	defer closeBlobs()

	publisher, closePublisher := openPublisher(ctx, cfg.NATS, logger)
	defer closePublisher()

	// Repositories
	txManager := postgres.NewTxManager(db)
	eventRepo := postgres.NewEventRepository(db)
	participantRepo := postgres.NewParticipantRepository(db)
	imageRepo := postgres.NewImageRepository(db)
	likeRepo := postgres.NewLikeRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Email
	mailer := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:          cfg.Email.AWSRegion,
			AccessKeyID:     cfg.Email.AWSAccessKeyID,
			SecretAccessKey: cfg.Email.AWSSecretAccessKey,
		},
	}, logger)
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	// Services
	jwt := auth.NewJWT(cfg.JWTSecret)
	eventService := services.NewEventService(services.EventServiceDeps{
		Tx:           txManager,
		Events:       eventRepo,
		Participants: participantRepo,
		Images:       imageRepo,
		Likes:        likeRepo,
		Users:        userRepo,
		Blobs:        blobs,
		Coder:        blob.Base64{},
		Publisher:    publisher,
		EmailService: emailService,
		Logger:       logger,
	}, cfg.ContextTimeout)
	userService := services.NewUserService(userRepo, auth.NewBcryptHasher(bcrypt.DefaultCost), jwt, cfg.TokenExpiry, emailService, logger, cfg.ContextTimeout)
	likeService := services.NewLikeService(txManager, likeRepo, eventRepo, time.Now, cfg.ContextTimeout)

	if cfg.Blob.SweepInterval > 0 {
		sweeper := &services.BlobSweeper{Images: imageRepo, Blobs: blobs, Grace: cfg.Blob.SweepGrace, Logger: logger}
		go sweeper.Run(ctx, cfg.Blob.SweepInterval)
		logger.Info("blob sweeper started", "interval", cfg.Blob.SweepInterval, "grace", cfg.Blob.SweepGrace)
	}

	// HTTP
	router := deliveryhttp.NewRouter(
		controllers.NewEventController(logger, eventService),
		controllers.NewUserController(logger, userService, eventService, likeService),
		controllers.NewAuthController(logger, userService),
		middleware.RequireAuth(jwt, logger),
	)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.CORS(cfg.AllowedOrigins, middleware.LoggingMiddleware(logger, router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openBlobStore(ctx context.Context, cfg config.BlobConfig, logger *slog.Logger) (domain.BlobStore, func(), error) {
	switch cfg.Provider {
	case "gcs":
		store, err := blob.NewGCS(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using gcs blob store", "bucket", cfg.GCSBucket)
		return store, func() { _ = store.Close() }, nil
	default:
		store, err := blob.NewFileSystem(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using file system blob store", "dir", cfg.Dir)
		return store, func() {}, nil
	}
}

// openPublisher falls back to a logging publisher when NATS is not configured or unreachable.
func openPublisher(ctx context.Context, url string, logger *slog.Logger) (domain.EventPublisher, func()) {
	if url == "" {
		return notify.Noop{Logger: logger}, func() {}
	}
	js, err := notify.NewJetStream(ctx, url, "eventhub-api", logger)
	if err != nil {
		logger.Warn("failed to connect to NATS, notifications will only be logged", "err", err)
		return notify.Noop{Logger: logger}, func() {}
	}
	logger.Info("connected to NATS", "url", url)
	return js, func() { _ = js.Close() }
}
