package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mishraomi/ecommerce-app/internal/carts"
	"github.com/mishraomi/ecommerce-app/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "carts", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

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

	if _, err := db.Exec("SET search_path TO carts"); err != nil {
		logger.Error("failed to set search_path", "error", err)
		os.Exit(1)
	}

	productServiceURL := os.Getenv("PRODUCT_SERVICE_URL")
	if productServiceURL == "" {
		logger.Error("PRODUCT_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	orderServiceURL := os.Getenv("ORDER_SERVICE_URL")
	if orderServiceURL == "" {
		logger.Error("ORDER_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	repo := carts.NewCartRepository(db)
	productClient := carts.NewProductServiceClient(productServiceURL, httpClient)
	orderClient := carts.NewOrderServiceClient(orderServiceURL, httpClient)
	handler := carts.NewHandler(repo, productClient, orderClient, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /carts/{userId}", handler.HandleGet)
	mux.HandleFunc("POST /carts/{userId}/items", handler.HandleAddItem)
	mux.HandleFunc("PUT /carts/{userId}/items/{productId}", handler.HandleUpdateItem)
	mux.HandleFunc("DELETE /carts/{userId}/items/{productId}", handler.HandleRemoveItem)
	mux.HandleFunc("DELETE /carts/{userId}", handler.HandleClear)
	mux.HandleFunc("POST /carts/{userId}/checkout", handler.HandleCheckout)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8082"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting carts service", "port", port)
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
