package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nishant946/masset/internal/config"
	"github.com/nishant946/masset/internal/db"
	"github.com/nishant946/masset/internal/email"
	"github.com/nishant946/masset/internal/events"
	"github.com/nishant946/masset/internal/logger"
	"github.com/nishant946/masset/internal/paypal"
	"github.com/nishant946/masset/internal/server"
)

// @title Masset API
// @version 1.0
// @description Digital asset marketplace: gallery, uploads, moderation and PayPal checkout.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init()
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Info("Starting Masset application")

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	emailService := email.New(email.Config{
		From:      cfg.EmailFrom,
		FromName:  cfg.EmailFromName,
		SMTPHost:  cfg.SMTPHost,
		SMTPPort:  cfg.SMTPPort,
		SMTPUser:  cfg.SMTPUser,
		SMTPPass:  cfg.SMTPPass,
		RedisAddr: cfg.RedisAddr,
	})
	defer emailService.Close()
	logger.Info("Email service initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go emailService.Start(ctx)

	deps := server.Deps{
		Provider: paypal.NewClient(paypal.Config{
			BaseURL:      cfg.PayPalAPIURL,
			ClientID:     cfg.PayPalClientID,
			ClientSecret: cfg.PayPalClientSecret,
			Timeout:      cfg.PayPalTimeout,
		}),
		Checks: map[string]server.Check{
			"postgres": database.PingContext,
			"redis":    emailService.Ping,
		},
	}
	if cfg.RabbitMQURL != "" {
		deps.Publisher = events.NewPublisher(cfg.RabbitMQURL)
		go events.NewConsumer(cfg.RabbitMQURL, emailService).Run(ctx)
	} else {
		logger.Warn("RABBITMQ_URL not set, purchase events disabled")
	}

	srv := server.New(database, cfg, deps)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
