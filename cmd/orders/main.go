package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mishraomi/ecommerce-app/internal/orders"
	"github.com/mishraomi/ecommerce-app/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "orders", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("orders", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if _, err := db.Exec("SET search_path TO orders"); err != nil {
		logger.Error("failed to set search_path", "error", err)
		os.Exit(1)
	}

	urls := orders.ServiceURLs{
		ProductService: os.Getenv("PRODUCT_SERVICE_URL"),
		CartService:    os.Getenv("CART_SERVICE_URL"),
	}
	if urls.ProductService == "" {
		logger.Error("PRODUCT_SERVICE_URL environment variable is required")
		os.Exit(1)
	}
	if urls.CartService == "" {
		logger.Error("CART_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	var events orders.EventPublisher
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		publisher := orders.NewKafkaPublisher(strings.Split(kafkaBrokers, ","))
		defer func() { _ = publisher.Close() }()
		events = publisher
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	repo := orders.NewOrderRepository(db)
	stockClient := orders.NewProductServiceClient(urls.ProductService, httpClient)
	cartClient := orders.NewCartServiceClient(urls.CartService, httpClient)
	saga := orders.NewSaga(repo, stockClient, cartClient, events, logger)
	handler := orders.NewHandler(repo, saga, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders", handler.HandleList)
	mux.HandleFunc("POST /orders", handler.HandleCreate)
	mux.HandleFunc("GET /orders/{id}", handler.HandleGet)
	mux.HandleFunc("PUT /orders/{id}", handler.HandleUpdate)
	mux.HandleFunc("DELETE /orders/{id}", handler.HandleDelete)
	mux.HandleFunc("PATCH /orders/{id}/status", handler.HandleUpdateStatus)
	mux.HandleFunc("GET /users/{userId}/orders", handler.HandleListByUser)
	mux.Handle("GET /metrics", metricsHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8083"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting orders service", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
