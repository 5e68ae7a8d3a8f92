package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/safar/vintagebikes/internal/api"
	"github.com/safar/vintagebikes/internal/auth"
	"github.com/safar/vintagebikes/internal/cart"
	"github.com/safar/vintagebikes/internal/checkout"
	"github.com/safar/vintagebikes/internal/config"
	"github.com/safar/vintagebikes/internal/database"
	"github.com/safar/vintagebikes/internal/events"
	"github.com/safar/vintagebikes/internal/logger"
	"github.com/safar/vintagebikes/internal/payment"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.New(cfg.Log)

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close()
	log.Info().Msg("connected to database")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrate database")
		}
	}

	gateway := newGateway(cfg.Payment, log)

	var publisher events.Publisher = events.NopPublisher{}
	var producer *events.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, 1024, log)
		producer.Start()
		publisher = producer
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing order events")
	}

	var cartCache cart.Cache = cart.NopCache{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, cart cache disabled")
		} else {
			cartCache = cart.NewRedisCache(rdb, cfg.Redis.CartTTL)
		}
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, cfg.Auth.VerifyTokenTTL)

	handler := api.NewRouter(api.Deps{
		DB:     db,
		Auth:   auth.NewService(db, tokens, auth.LogMailer{Log: log}, cfg.Auth, log),
		Tokens: tokens,
		Cart:   cart.NewService(db, cartCache, log),
		Checkout: checkout.NewService(db, gateway, publisher, checkout.Config{
			Currency:     cfg.Payment.Currency,
			VerifyIntent: cfg.Payment.VerifyIntent,
		}, log),
		Log:             log,
		RequestTimeout:  cfg.Server.RequestTimeout,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		SecureCookies:   cfg.Auth.SecureCookies,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if producer != nil {
		if err := producer.Close(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("flush order events")
		}
	}
}

func newGateway(cfg config.PaymentConfig, log zerolog.Logger) payment.Gateway {
	var gw payment.Gateway
	switch cfg.Provider {
	case "stripe":
		gw = payment.NewStripeGateway(cfg.StripeSecretKey)
	default:
		log.Warn().Msg("using in-memory payment gateway")
		gw = payment.NewFakeGateway()
	}

	return payment.NewBreakerGateway(gw, payment.BreakerSettings{
		ConsecutiveFailures: cfg.BreakerFailures,
		OpenTimeout:         cfg.BreakerTimeout,
	}, log)
}
