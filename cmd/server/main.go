package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go-storefront/internal/cart"
	"github.com/fjod/go-storefront/internal/catalog"
	h "github.com/fjod/go-storefront/internal/http"
	"github.com/fjod/go-storefront/internal/notify"
	"github.com/fjod/go-storefront/internal/order"
	"github.com/fjod/go-storefront/internal/payment"
	"github.com/fjod/go-storefront/internal/payment/stripe"
	"github.com/fjod/go-storefront/internal/webhook"
)

type Config struct {
	HTTPPort            string
	RedisAddr           string
	RedisPassword       string
	PostgresHost        string
	PostgresPort        int
	PostgresUser        string
	PostgresPassword    string
	PostgresDB          string
	StripeSecretKey     string
	StripeWebhookSecret string
	KafkaBrokers        []string
	RequestTimeout      time.Duration
	ShutdownTimeout     time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		PostgresHost:        getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:        getEnvInt("POSTGRES_PORT", 5432),
		PostgresUser:        getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword:    getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:          getEnv("POSTGRES_DB", "storefront"),
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		KafkaBrokers:        strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		RequestTimeout:      30 * time.Second,
		ShutdownTimeout:     10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	if cfg.StripeSecretKey == "" {
		log.Fatal("STRIPE_SECRET_KEY is required")
	}
	if cfg.StripeWebhookSecret == "" {
		log.Fatal("STRIPE_WEBHOOK_SECRET is required")
	}

	// cart store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	cartStore := cart.NewRedisStore(redisClient)
	cartService := cart.NewService(cartStore)

	// durable stores
	db, err := order.Connect(&order.Credentials{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPassword,
		DBName:   cfg.PostgresDB,
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	if err := catalog.RunMigrations(db, "postgres", "internal/catalog/migrations"); err != nil {
		log.Fatalf("failed to run catalog migrations: %v", err)
	}
	if err := order.RunMigrations(db, "postgres", "internal/order/migrations"); err != nil {
		log.Fatalf("failed to run order migrations: %v", err)
	}

	catalogRepo := catalog.NewSQLRepository(db)
	orderRepo := order.NewSQLRepository(db)

	// payment processor
	stripeClient := stripe.NewClient(stripe.Config{SecretKey: cfg.StripeSecretKey})
	coordinator := payment.NewCoordinator(cartStore, catalogRepo, stripeClient)
	couponResolver := payment.NewCouponResolver(stripeClient)

	// orders and settlement
	orderFactory := order.NewFactory(cartStore, catalogRepo, orderRepo)
	registry := notify.NewRegistry()
	dispatcher := notify.NewDispatcher(registry)
	verifier := stripe.NewWebhookVerifier(cfg.StripeWebhookSecret)
	webhookProcessor := webhook.NewProcessor(verifier, orderRepo, dispatcher)

	// outbox publisher
	publisher := order.NewPublisher(orderRepo, cfg.KafkaBrokers...)
	publisherCtx, stopPublisher := context.WithCancel(context.Background())
	go publisher.Run(publisherCtx)

	router := h.NewRouter(h.RouterConfig{
		CartHandler:    h.NewCartHandler(cartService),
		PaymentHandler: h.NewPaymentHandler(coordinator, catalogRepo),
		CouponHandler:  h.NewCouponHandler(couponResolver),
		OrderHandler:   h.NewOrderHandler(orderFactory, orderRepo, cartService),
		WebhookHandler: h.NewWebhookHandler(webhookProcessor),
		WSHandler:      h.NewWSHandler(registry),
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // websocket pushes have no write deadline
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	stopPublisher()
	publisher.Close()

	log.Println("server exited")
}
