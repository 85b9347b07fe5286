package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jcelest/orange-medical-transport/internal/admin"
	"github.com/jcelest/orange-medical-transport/internal/api/router"
	"github.com/jcelest/orange-medical-transport/internal/bookings"
	appconfig "github.com/jcelest/orange-medical-transport/internal/config"
	"github.com/jcelest/orange-medical-transport/internal/dedupe"
	"github.com/jcelest/orange-medical-transport/internal/notify"
	"github.com/jcelest/orange-medical-transport/internal/observability/metrics"
	"github.com/jcelest/orange-medical-transport/pkg/logging"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel, cfg.Env)
	logger.Info("starting orange-medical-transport API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	email := buildEmailSender(cfg, logger)
	if email == nil {
		logger.Warn("no email transport configured; email notifications disabled")
	}

	sms, smsProvider := notify.BuildSMSSender(notify.SMSProviderConfig{
		TwilioAccountSID: cfg.TwilioAccountSID,
		TwilioAuthToken:  cfg.TwilioAuthToken,
		TwilioFromNumber: cfg.TwilioFromNumber,
		GatewayAddress:   cfg.SMSEmailGateway,
	}, email, logger)
	if sms == nil {
		logger.Warn("no SMS transport configured; SMS notifications disabled")
	} else {
		logger.Info("SMS transport selected", "provider", smsProvider)
	}

	bookingMetrics := metrics.NewBookingMetrics(nil)

	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		Email:          email,
		SMS:            sms,
		StaffEmail:     cfg.NotificationEmail,
		StaffPhone:     cfg.CompanyPhone,
		ContactPhone:   formatCompanyPhone(cfg.CompanyPhone),
		ChannelTimeout: cfg.NotifyTimeout,
		Metrics:        bookingMetrics,
		Logger:         logger,
	})

	guard := buildDedupeGuard(cfg, logger)

	store := bookings.NewPostgresStore(pool)
	bookingService := bookings.NewService(store, dispatcher, guard, bookingMetrics, logger)
	bookingsHandler := bookings.NewHandler(bookingService, logger)
	adminHandler := admin.NewHandler(cfg.AdminPassword, cfg.AdminTokenTTL, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		BookingsHandler:    bookingsHandler,
		AdminHandler:       adminHandler,
		AdminSecret:        cfg.AdminPassword,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildEmailSender picks the configured email transport. The constructors
// return nil concrete pointers when unconfigured, so each branch must guard
// before assigning to the interface.
func buildEmailSender(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			return s
		}
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			return nil
		}
		if s := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
		}, logger); s != nil {
			return s
		}
	default:
		if s := notify.NewSMTPSender(notify.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
		}, logger); s != nil {
			return s
		}
	}
	return nil
}

// buildDedupeGuard connects to Redis when the dedupe window is enabled. A
// failed connection disables deduplication rather than blocking startup.
func buildDedupeGuard(cfg *appconfig.Config, logger *logging.Logger) *dedupe.Guard {
	if cfg.RedisAddr == "" || cfg.DedupeWindow <= 0 {
		return nil
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable; duplicate suppression disabled", "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("duplicate suppression enabled", "window", cfg.DedupeWindow.String())
	return dedupe.NewGuard(client, cfg.DedupeWindow, logger)
}

// formatCompanyPhone renders a bare 10-digit number as xxx-xxx-xxxx for
// message bodies. Anything else passes through untouched.
func formatCompanyPhone(p string) string {
	if len(p) != 10 {
		return p
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return p
		}
	}
	return p[:3] + "-" + p[3:6] + "-" + p[6:]
}
