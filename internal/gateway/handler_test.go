package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func handlerWithOrders(ordersURL string, client *http.Client) *Handler {
	unused := NewServiceProxy("http://unused", http.DefaultClient)
	return NewHandler(unused, unused, NewServiceProxy(ordersURL, client), unused, discardLogger())
}

func TestHandler_HandleOrders(t *testing.T) {
	t.Run("proxies GET /orders with query string", func(t *testing.T) {
		ordersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/orders" {
				t.Errorf("expected /orders, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("status") != "PENDING" {
				t.Errorf("expected status query to pass through, got %q", r.URL.RawQuery)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`[{"id":"1"}]`))
		}))
		defer ordersServer.Close()

		handler := handlerWithOrders(ordersServer.URL, ordersServer.Client())

		req := httptest.NewRequest(http.MethodGet, "/orders?status=PENDING", nil)
		rec := httptest.NewRecorder()

		handler.HandleOrders(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
		if rec.Body.String() != `[{"id":"1"}]` {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("proxies POST /orders with body", func(t *testing.T) {
		ordersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"user_id":"user1"}` {
				t.Errorf("unexpected body: %s", body)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"new-id"}`))
		}))
		defer ordersServer.Close()

		handler := handlerWithOrders(ordersServer.URL, ordersServer.Client())

		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"user_id":"user1"}`))
		rec := httptest.NewRecorder()

		handler.HandleOrders(rec, req)

		if rec.Code != http.StatusCreated {
			t.Errorf("expected status 201, got %d", rec.Code)
		}
	})

	t.Run("preserves downstream error status", func(t *testing.T) {
		ordersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"order must contain at least one item"}`))
		}))
		defer ordersServer.Close()

		handler := handlerWithOrders(ordersServer.URL, ordersServer.Client())

		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		handler.HandleOrders(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("returns 502 when the order service is unavailable", func(t *testing.T) {
		handler := handlerWithOrders("http://localhost:1", &http.Client{})

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		rec := httptest.NewRecorder()

		handler.HandleOrders(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", rec.Code)
		}

		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["error"] != "service unavailable" {
			t.Errorf("expected 'service unavailable', got %s", resp["error"])
		}
	})
}

func TestHandler_HandleCarts(t *testing.T) {
	t.Run("forwards cart checkout to the cart service", func(t *testing.T) {
		cartsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/carts/user1/checkout" {
				t.Errorf("expected /carts/user1/checkout, got %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"order-1","status":"PENDING"}`))
		}))
		defer cartsServer.Close()

		unused := NewServiceProxy("http://unused", http.DefaultClient)
		handler := NewHandler(unused, NewServiceProxy(cartsServer.URL, cartsServer.Client()), unused, unused, discardLogger())

		req := httptest.NewRequest(http.MethodPost, "/carts/user1/checkout", nil)
		rec := httptest.NewRecorder()

		handler.HandleCarts(rec, req)

		if rec.Code != http.StatusCreated {
			t.Errorf("expected status 201, got %d", rec.Code)
		}
	})
}
