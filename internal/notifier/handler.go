package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mishraomi/ecommerce-app/internal/domain"
)

// Handler turns order lifecycle events into emails through the email
// service. It is strictly after-the-fact: the placement flow has already
// finished by the time an event arrives here.
type Handler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *Handler {
	return &Handler{
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

// HandlePlaced consumes order.placed events.
func (h *Handler) HandlePlaced(ctx context.Context, key string, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		// A malformed event will never become parseable; drop it rather
		// than wedge the partition.
		h.logger.Error("dropping malformed order placed event", "error", err, "key", key)
		return nil
	}

	h.logger.Info("processing order placed event", "order_id", event.OrderID, "user_id", event.UserID)

	body := map[string]string{
		"to":      event.UserID + "@example.com",
		"subject": "Order received: " + event.OrderID,
		"body": fmt.Sprintf("Your order %s with %d item(s) totalling %s has been received and is pending.",
			event.OrderID, len(event.Items), event.TotalAmount),
	}
	if err := h.sendEmail(ctx, body); err != nil {
		return fmt.Errorf("send order received email: %w", err)
	}

	return nil
}

// HandleFailed consumes order.failed events.
func (h *Handler) HandleFailed(ctx context.Context, key string, payload []byte) error {
	var event domain.OrderFailedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("dropping malformed order failed event", "error", err, "key", key)
		return nil
	}

	h.logger.Info("processing order failed event", "order_id", event.OrderID, "user_id", event.UserID)

	body := map[string]string{
		"to":      event.UserID + "@example.com",
		"subject": "Order could not be completed: " + event.OrderID,
		"body":    fmt.Sprintf("Your order %s could not be completed: %s. Our team has been notified.", event.OrderID, event.Reason),
	}
	if err := h.sendEmail(ctx, body); err != nil {
		return fmt.Errorf("send order failed email: %w", err)
	}

	return nil
}

func (h *Handler) sendEmail(ctx context.Context, body map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
