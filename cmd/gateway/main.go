package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mishraomi/ecommerce-app/internal/gateway"
	"github.com/mishraomi/ecommerce-app/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "gateway", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	productServiceURL := requireEnv(logger, "PRODUCT_SERVICE_URL")
	cartServiceURL := requireEnv(logger, "CART_SERVICE_URL")
	orderServiceURL := requireEnv(logger, "ORDER_SERVICE_URL")
	userServiceURL := requireEnv(logger, "USER_SERVICE_URL")

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	productsProxy := gateway.NewServiceProxy(productServiceURL, httpClient)
	cartsProxy := gateway.NewServiceProxy(cartServiceURL, httpClient)
	ordersProxy := gateway.NewServiceProxy(orderServiceURL, httpClient)
	usersProxy := gateway.NewServiceProxy(userServiceURL, httpClient)
	handler := gateway.NewHandler(productsProxy, cartsProxy, ordersProxy, usersProxy, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(handler.HandleProducts))
	mux.HandleFunc("POST /products", telemetry.WithHTTPRoute(handler.HandleProducts))
	mux.HandleFunc("GET /products/{id}", telemetry.WithHTTPRoute(handler.HandleProducts))
	mux.HandleFunc("PUT /products/{id}", telemetry.WithHTTPRoute(handler.HandleProducts))
	mux.HandleFunc("DELETE /products/{id}", telemetry.WithHTTPRoute(handler.HandleProducts))
	mux.HandleFunc("GET /products/{id}/stock", telemetry.WithHTTPRoute(handler.HandleProducts))
	mux.HandleFunc("POST /products/{id}/stock/update", telemetry.WithHTTPRoute(handler.HandleProducts))

	mux.HandleFunc("GET /carts/{userId}", telemetry.WithHTTPRoute(handler.HandleCarts))
	mux.HandleFunc("DELETE /carts/{userId}", telemetry.WithHTTPRoute(handler.HandleCarts))
	mux.HandleFunc("POST /carts/{userId}/items", telemetry.WithHTTPRoute(handler.HandleCarts))
	mux.HandleFunc("PUT /carts/{userId}/items/{productId}", telemetry.WithHTTPRoute(handler.HandleCarts))
	mux.HandleFunc("DELETE /carts/{userId}/items/{productId}", telemetry.WithHTTPRoute(handler.HandleCarts))
	mux.HandleFunc("POST /carts/{userId}/checkout", telemetry.WithHTTPRoute(handler.HandleCarts))

	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("PUT /orders/{id}", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("DELETE /orders/{id}", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("PATCH /orders/{id}/status", telemetry.WithHTTPRoute(handler.HandleOrders))

	mux.HandleFunc("GET /users", telemetry.WithHTTPRoute(handler.HandleUsers))
	mux.HandleFunc("POST /users", telemetry.WithHTTPRoute(handler.HandleUsers))
	mux.HandleFunc("GET /users/{id}", telemetry.WithHTTPRoute(handler.HandleUsers))
	mux.HandleFunc("PUT /users/{id}", telemetry.WithHTTPRoute(handler.HandleUsers))
	mux.HandleFunc("DELETE /users/{id}", telemetry.WithHTTPRoute(handler.HandleUsers))
	mux.HandleFunc("GET /users/{userId}/orders", telemetry.WithHTTPRoute(handler.HandleOrders))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "gateway",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting gateway service", "port", port)
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

func requireEnv(logger *slog.Logger, name string) string {
	value := os.Getenv(name)
	if value == "" {
		logger.Error(name + " environment variable is required")
		os.Exit(1)
	}
	return value
}
