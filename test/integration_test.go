//go:build integration

package test

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mishraomi/ecommerce-app/internal/carts"
	"github.com/mishraomi/ecommerce-app/internal/domain"
	"github.com/mishraomi/ecommerce-app/internal/messaging"
	"github.com/mishraomi/ecommerce-app/internal/notifier"
	"github.com/mishraomi/ecommerce-app/internal/orders"
	"github.com/mishraomi/ecommerce-app/internal/products"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// stack wires the three entity services over one database, each behind a
// real HTTP server, the way they talk in deployment.
type stack struct {
	productsRepo *products.ProductRepository
	cartsRepo    *carts.CartRepository
	ordersRepo   *orders.OrderRepository

	productsServer *httptest.Server
	cartsServer    *httptest.Server
	ordersServer   *httptest.Server
}

// setupStack builds the services. cartClearURL overrides where the placement
// flow sends its cart-clear call; empty means the real cart service.
func setupStack(t *testing.T, pg *PostgresSetup, cartClearURL string) *stack {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	httpClient := &http.Client{Timeout: 10 * time.Second}

	productsDB := schemaDB(t, pg, "products")
	productsRepo := products.NewProductRepository(productsDB, false)
	productsHandler := products.NewHandler(productsRepo, logger)
	productsMux := http.NewServeMux()
	productsMux.HandleFunc("GET /products/{id}", productsHandler.HandleGet)
	productsMux.HandleFunc("GET /products/{id}/stock", productsHandler.HandleGetStock)
	productsMux.HandleFunc("POST /products/{id}/stock/update", productsHandler.HandleUpdateStock)
	productsServer := httptest.NewServer(productsMux)
	t.Cleanup(productsServer.Close)

	cartsDB := schemaDB(t, pg, "carts")
	cartsRepo := carts.NewCartRepository(cartsDB)
	cartsMux := http.NewServeMux()
	cartsServer := httptest.NewServer(cartsMux)
	t.Cleanup(cartsServer.Close)

	if cartClearURL == "" {
		cartClearURL = cartsServer.URL
	}

	ordersDB := schemaDB(t, pg, "orders")
	ordersRepo := orders.NewOrderRepository(ordersDB)
	saga := orders.NewSaga(
		ordersRepo,
		orders.NewProductServiceClient(productsServer.URL, httpClient),
		orders.NewCartServiceClient(cartClearURL, httpClient),
		nil,
		logger,
	)
	ordersHandler := orders.NewHandler(ordersRepo, saga, logger)
	ordersMux := http.NewServeMux()
	ordersMux.HandleFunc("POST /orders", ordersHandler.HandleCreate)
	ordersMux.HandleFunc("GET /orders/{id}", ordersHandler.HandleGet)
	ordersMux.HandleFunc("PATCH /orders/{id}/status", ordersHandler.HandleUpdateStatus)
	ordersServer := httptest.NewServer(ordersMux)
	t.Cleanup(ordersServer.Close)

	cartsHandler := carts.NewHandler(
		cartsRepo,
		carts.NewProductServiceClient(productsServer.URL, httpClient),
		carts.NewOrderServiceClient(ordersServer.URL, httpClient),
		logger,
	)
	cartsMux.HandleFunc("GET /carts/{userId}", cartsHandler.HandleGet)
	cartsMux.HandleFunc("POST /carts/{userId}/items", cartsHandler.HandleAddItem)
	cartsMux.HandleFunc("DELETE /carts/{userId}", cartsHandler.HandleClear)
	cartsMux.HandleFunc("POST /carts/{userId}/checkout", cartsHandler.HandleCheckout)

	return &stack{
		productsRepo:   productsRepo,
		cartsRepo:      cartsRepo,
		ordersRepo:     ordersRepo,
		productsServer: productsServer,
		cartsServer:    cartsServer,
		ordersServer:   ordersServer,
	}
}

func schemaDB(t *testing.T, pg *PostgresSetup, schema string) *sql.DB {
	t.Helper()
	db, err := DBWithSchema(pg.ConnStr, schema)
	if err != nil {
		t.Fatalf("failed to open %s DB: %v", schema, err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedProduct(ctx context.Context, t *testing.T, repo *products.ProductRepository, name string, price string, stock int) *domain.Product {
	t.Helper()
	p := &domain.Product{Name: name, Price: dec(price), AvailableStock: stock}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return p
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func TestCheckoutPlacesOrderAndClearsCart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	s := setupStack(t, pg, "")
	widget := seedProduct(ctx, t, s.productsRepo, "Widget", "50.00", 10)

	resp := postJSON(t, s.cartsServer.URL+"/carts/user-1/items",
		`{"product_id": "`+widget.ID+`", "quantity": 2}`)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d adding item, got %d: %s", http.StatusOK, resp.StatusCode, body)
	}

	resp = postJSON(t, s.cartsServer.URL+"/carts/user-1/checkout", "")
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d on checkout, got %d: %s", http.StatusCreated, resp.StatusCode, body)
	}

	var order domain.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		t.Fatalf("failed to decode order: %v", err)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected status %s, got %s", domain.OrderStatusPending, order.Status)
	}
	if !order.TotalAmount.Equal(dec("100.00")) {
		t.Fatalf("expected total 100.00, got %s", order.TotalAmount)
	}

	stored, err := s.ordersRepo.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if stored == nil || stored.Status != domain.OrderStatusPending {
		t.Fatalf("expected persisted PENDING order, got %+v", stored)
	}

	product, err := s.productsRepo.GetByID(ctx, widget.ID)
	if err != nil {
		t.Fatalf("failed to fetch product: %v", err)
	}
	if product.AvailableStock != 8 {
		t.Fatalf("expected stock 8 after checkout, got %d", product.AvailableStock)
	}

	cart, err := s.cartsRepo.GetByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to fetch cart: %v", err)
	}
	if cart == nil {
		t.Fatal("expected cart record to survive clearing")
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart after checkout, got %d items", len(cart.Items))
	}
}

func TestPlacementInsufficientStockLeavesNoOrder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	s := setupStack(t, pg, "")
	widget := seedProduct(ctx, t, s.productsRepo, "Widget", "50.00", 1)

	resp := postJSON(t, s.ordersServer.URL+"/orders",
		`{"user_id": "user-2", "total_amount": "100.00", "items": [{"product_id": "`+widget.ID+`", "product_name": "Widget", "quantity": 2, "price": "50.00"}]}`)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d: %s", http.StatusBadRequest, resp.StatusCode, body)
	}

	list, err := s.ordersRepo.List(ctx, "", "user-2")
	if err != nil {
		t.Fatalf("failed to list orders: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no persisted order, got %d", len(list))
	}

	product, err := s.productsRepo.GetByID(ctx, widget.ID)
	if err != nil {
		t.Fatalf("failed to fetch product: %v", err)
	}
	if product.AvailableStock != 1 {
		t.Fatalf("expected stock untouched at 1, got %d", product.AvailableStock)
	}
}

func TestCartClearFailureFlagsOrderFailed(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	brokenCarts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "cart service down", http.StatusInternalServerError)
	}))
	defer brokenCarts.Close()

	s := setupStack(t, pg, brokenCarts.URL)
	widget := seedProduct(ctx, t, s.productsRepo, "Widget", "50.00", 10)

	resp := postJSON(t, s.ordersServer.URL+"/orders",
		`{"user_id": "user-3", "total_amount": "100.00", "items": [{"product_id": "`+widget.ID+`", "product_name": "Widget", "quantity": 2, "price": "50.00"}]}`)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadGateway {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d: %s", http.StatusBadGateway, resp.StatusCode, body)
	}

	var errBody struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if errBody.Status != string(domain.OrderStatusFailed) {
		t.Fatalf("expected status %s in error body, got %s", domain.OrderStatusFailed, errBody.Status)
	}

	stored, err := s.ordersRepo.GetByID(ctx, errBody.OrderID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if stored == nil || stored.Status != domain.OrderStatusFailed {
		t.Fatalf("expected persisted FAILED order, got %+v", stored)
	}

	// The decrement applied before the failure stays applied.
	product, err := s.productsRepo.GetByID(ctx, widget.ID)
	if err != nil {
		t.Fatalf("failed to fetch product: %v", err)
	}
	if product.AvailableStock != 8 {
		t.Fatalf("expected stock to stay decremented at 8, got %d", product.AvailableStock)
	}
}

func TestPromotePendingAdvancesOnlyPendingOrders(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	ordersDB := schemaDB(t, pg, "orders")
	repo := orders.NewOrderRepository(ordersDB)

	statuses := []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusPending,
		domain.OrderStatusShipped,
	}
	ids := make([]string, 0, len(statuses))
	for _, status := range statuses {
		order := &domain.Order{
			UserID:      "user-4",
			Status:      status,
			TotalAmount: dec("50.00"),
			Items: []domain.OrderLine{
				{ProductID: "p1", ProductName: "Widget", Quantity: 1, Price: dec("50.00")},
			},
			CreatedAt: time.Now().UTC(),
		}
		if err := repo.Create(ctx, order); err != nil {
			t.Fatalf("failed to create order: %v", err)
		}
		ids = append(ids, order.ID)
	}

	promoted, err := repo.PromotePending(ctx)
	if err != nil {
		t.Fatalf("failed to promote: %v", err)
	}
	if promoted != 2 {
		t.Fatalf("expected 2 promoted orders, got %d", promoted)
	}

	for i, id := range ids {
		order, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("failed to fetch order: %v", err)
		}
		want := domain.OrderStatusProcessing
		if statuses[i] == domain.OrderStatusShipped {
			want = domain.OrderStatusShipped
		}
		if order.Status != want {
			t.Fatalf("order %d: expected status %s, got %s", i, want, order.Status)
		}
	}
}

type emailCapture struct {
	mu     sync.Mutex
	emails []map[string]string
}

func (e *emailCapture) handler(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	e.mu.Lock()
	e.emails = append(e.emails, req)
	e.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, `{"status":"sent"}`)
}

func (e *emailCapture) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.emails)
}

func (e *emailCapture) first() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.emails[0]
}

func TestOrderPlacedEventReachesNotifier(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	emailCap := &emailCapture{}
	emailMux := http.NewServeMux()
	emailMux.HandleFunc("POST /send", emailCap.handler)
	emailServer := httptest.NewServer(emailMux)
	defer emailServer.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := notifier.NewHandler(emailServer.URL, &http.Client{Timeout: 10 * time.Second}, logger)

	consumer := messaging.NewConsumer(brokers, "order.placed", "order-notifier")
	defer func() { _ = consumer.Close() }()

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	done := make(chan struct{})
	go func() {
		_ = consumer.Consume(consumerCtx, handler.HandlePlaced)
		close(done)
	}()

	publisher := orders.NewKafkaPublisher(brokers)
	defer func() { _ = publisher.Close() }()

	event := domain.OrderPlacedEvent{
		OrderID:     "order-123",
		UserID:      "user-5",
		TotalAmount: dec("100.00"),
		Items: []domain.OrderLine{
			{ProductID: "p1", ProductName: "Widget", Quantity: 2, Price: dec("50.00")},
		},
		Timestamp: time.Now().UTC(),
	}
	if err := publisher.PublishPlaced(ctx, event); err != nil {
		t.Fatalf("failed to publish event: %v", err)
	}

	deadline := time.After(time.Minute)
	for emailCap.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for notification email")
		case <-time.After(100 * time.Millisecond):
		}
	}

	email := emailCap.first()
	if !strings.Contains(email["subject"], "order-123") {
		t.Fatalf("expected email subject to mention the order, got: %s", email["subject"])
	}

	stopConsumer()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("consumer did not stop")
	}
}
