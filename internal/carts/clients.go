package carts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mishraomi/ecommerce-app/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrProductUnknown = errors.New("product unknown")

// ProductReader resolves a product for the stock gate on cart writes.
type ProductReader interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
}

// OrderPlacer submits an assembled order on checkout.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (*domain.Order, error)
}

// OrderRequest mirrors the order service's placement payload.
type OrderRequest struct {
	UserID      string             `json:"user_id"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Items       []domain.OrderLine `json:"items"`
}

// RemoteError carries a collaborator's rejection so the handler can relay
// the original status and message.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote service returned status %d: %s", e.StatusCode, e.Message)
}

// ProductServiceClient implements ProductReader over the product service's
// HTTP API.
type ProductServiceClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewProductServiceClient(baseURL string, client *http.Client) *ProductServiceClient {
	return &ProductServiceClient{baseURL: baseURL, httpClient: client}
}

func (c *ProductServiceClient) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	url := fmt.Sprintf("%s/products/%s", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create product request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", productID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrProductUnknown, productID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product service returned status %d for product %s", resp.StatusCode, productID)
	}

	var product domain.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("decode product response: %w", err)
	}
	return &product, nil
}

// OrderServiceClient implements OrderPlacer over the order service's HTTP
// API.
type OrderServiceClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOrderServiceClient(baseURL string, client *http.Client) *OrderServiceClient {
	return &OrderServiceClient{baseURL: baseURL, httpClient: client}
}

func (c *OrderServiceClient) PlaceOrder(ctx context.Context, orderReq OrderRequest) (*domain.Order, error) {
	data, err := json.Marshal(orderReq)
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("place order for user %s: %w", orderReq.UserID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		var remoteBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&remoteBody)
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: remoteBody.Error}
	}

	var order domain.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	return &order, nil
}
