package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mishraomi/ecommerce-app/internal/messaging"
	"github.com/mishraomi/ecommerce-app/internal/notifier"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	emailServiceURL := os.Getenv("EMAIL_SERVICE_URL")
	if emailServiceURL == "" {
		logger.Error("EMAIL_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	brokers := strings.Split(kafkaBrokers, ",")
	placedConsumer := messaging.NewConsumer(brokers, "order.placed", "order-notifier")
	defer func() { _ = placedConsumer.Close() }()
	failedConsumer := messaging.NewConsumer(brokers, "order.failed", "order-notifier")
	defer func() { _ = failedConsumer.Close() }()

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}

	handler := notifier.NewHandler(emailServiceURL, httpClient, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting order notifier", "brokers", brokers)

	var wg sync.WaitGroup
	consume := func(consumer *messaging.Consumer, handle messaging.Handler, topic string) {
		defer wg.Done()
		if err := consumer.Consume(ctx, handle); err != nil {
			if ctx.Err() == context.Canceled {
				logger.Info("consumer stopped", "topic", topic)
				return
			}
			logger.Error("consumer error", "error", err, "topic", topic)
			cancel()
		}
	}

	wg.Add(2)
	go consume(placedConsumer, handler.HandlePlaced, "order.placed")
	go consume(failedConsumer, handler.HandleFailed, "order.failed")
	wg.Wait()
}
