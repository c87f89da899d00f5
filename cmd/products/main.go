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

	"github.com/mishraomi/ecommerce-app/internal/products"
	"github.com/mishraomi/ecommerce-app/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "products", "0.1.0")
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

	if _, err := db.Exec("SET search_path TO products"); err != nil {
		logger.Error("failed to set search_path", "error", err)
		os.Exit(1)
	}

	// STOCK_ATOMIC=true switches decrements to the single-statement
	// conditional UPDATE; the default keeps the read-then-write mutation.
	atomicStock := os.Getenv("STOCK_ATOMIC") == "true"

	repo := products.NewProductRepository(db, atomicStock)
	handler := products.NewHandler(repo, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", handler.HandleList)
	mux.HandleFunc("POST /products", handler.HandleCreate)
	mux.HandleFunc("GET /products/{id}", handler.HandleGet)
	mux.HandleFunc("PUT /products/{id}", handler.HandleUpdate)
	mux.HandleFunc("DELETE /products/{id}", handler.HandleDelete)
	mux.HandleFunc("GET /products/{id}/stock", handler.HandleGetStock)
	mux.HandleFunc("POST /products/{id}/stock/update", handler.HandleUpdateStock)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting products service", "port", port, "atomic_stock", atomicStock)
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
