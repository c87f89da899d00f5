package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mishraomi/ecommerce-app/internal/domain"
)

type capturedEmail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func emailServer(t *testing.T, status int, captured *[]capturedEmail) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /send", func(w http.ResponseWriter, r *http.Request) {
		var email capturedEmail
		if err := json.NewDecoder(r.Body).Decode(&email); err != nil {
			t.Errorf("failed to decode email request: %v", err)
		}
		*captured = append(*captured, email)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"status":"sent"}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandlePlaced(t *testing.T) {
	var captured []capturedEmail
	server := emailServer(t, http.StatusOK, &captured)
	h := NewHandler(server.URL, server.Client(), testLogger())

	event := domain.OrderPlacedEvent{
		OrderID:     "order-1",
		UserID:      "user-1",
		TotalAmount: decimal.RequireFromString("100.00"),
		Items: []domain.OrderLine{
			{ProductID: "p1", ProductName: "Widget", Quantity: 2, Price: decimal.RequireFromString("50.00")},
		},
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	if err := h.HandlePlaced(context.Background(), "order-1", payload); err != nil {
		t.Fatalf("HandlePlaced failed: %v", err)
	}

	if len(captured) != 1 {
		t.Fatalf("expected 1 email, got %d", len(captured))
	}
	if !strings.Contains(captured[0].Subject, "order-1") {
		t.Errorf("expected subject to mention the order, got %q", captured[0].Subject)
	}
	if !strings.Contains(captured[0].Body, "100.00") {
		t.Errorf("expected body to mention the total, got %q", captured[0].Body)
	}
}

func TestHandleFailed(t *testing.T) {
	var captured []capturedEmail
	server := emailServer(t, http.StatusOK, &captured)
	h := NewHandler(server.URL, server.Client(), testLogger())

	event := domain.OrderFailedEvent{
		OrderID:   "order-2",
		UserID:    "user-1",
		Reason:    "clear cart for user user-1: cart service returned status 500",
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	if err := h.HandleFailed(context.Background(), "order-2", payload); err != nil {
		t.Fatalf("HandleFailed failed: %v", err)
	}

	if len(captured) != 1 {
		t.Fatalf("expected 1 email, got %d", len(captured))
	}
	if !strings.Contains(captured[0].Subject, "order-2") {
		t.Errorf("expected subject to mention the order, got %q", captured[0].Subject)
	}
	if !strings.Contains(captured[0].Body, "cart service returned status 500") {
		t.Errorf("expected body to carry the failure reason, got %q", captured[0].Body)
	}
}

func TestMalformedEventIsDropped(t *testing.T) {
	var captured []capturedEmail
	server := emailServer(t, http.StatusOK, &captured)
	h := NewHandler(server.URL, server.Client(), testLogger())

	if err := h.HandlePlaced(context.Background(), "k", []byte("not json")); err != nil {
		t.Fatalf("expected malformed event to be dropped without error, got %v", err)
	}
	if len(captured) != 0 {
		t.Fatalf("expected no email for malformed event, got %d", len(captured))
	}
}

func TestEmailServiceFailureSurfaces(t *testing.T) {
	var captured []capturedEmail
	server := emailServer(t, http.StatusInternalServerError, &captured)
	h := NewHandler(server.URL, server.Client(), testLogger())

	event := domain.OrderPlacedEvent{OrderID: "order-3", UserID: "user-1"}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	if err := h.HandlePlaced(context.Background(), "order-3", payload); err == nil {
		t.Fatal("expected an error when the email service fails")
	}
}
