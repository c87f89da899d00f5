package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mishraomi/ecommerce-app/internal/domain"
)

// ServiceURLs carries the base URLs of the collaborating services. It is
// built from the environment in main and handed to the clients explicitly.
type ServiceURLs struct {
	ProductService string
	CartService    string
}

// ProductServiceClient implements StockClient over the product service's
// HTTP API.
type ProductServiceClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewProductServiceClient(baseURL string, client *http.Client) *ProductServiceClient {
	return &ProductServiceClient{baseURL: baseURL, httpClient: client}
}

func (c *ProductServiceClient) GetStock(ctx context.Context, productID string) (int, error) {
	url := fmt.Sprintf("%s/products/%s/stock", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create stock request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get stock for product %s: %w", productID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("%w: %s", ErrProductUnknown, productID)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("product service returned status %d for product %s", resp.StatusCode, productID)
	}

	var available int
	if err := json.NewDecoder(resp.Body).Decode(&available); err != nil {
		return 0, fmt.Errorf("decode stock response: %w", err)
	}
	return available, nil
}

type stockUpdateRequest struct {
	Quantity  int                   `json:"quantity"`
	Operation domain.StockOperation `json:"operation"`
}

// DecreaseStock applies a DECREASE mutation. There is no matching increase
// call here: the placement flow never returns stock it has taken.
func (c *ProductServiceClient) DecreaseStock(ctx context.Context, productID string, quantity int) error {
	data, err := json.Marshal(stockUpdateRequest{Quantity: quantity, Operation: domain.StockDecrease})
	if err != nil {
		return fmt.Errorf("marshal stock update: %w", err)
	}

	url := fmt.Sprintf("%s/products/%s/stock/update", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create stock update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("update stock for product %s: %w", productID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrInsufficientStock, productID)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrProductUnknown, productID)
	default:
		return fmt.Errorf("product service returned status %d for product %s", resp.StatusCode, productID)
	}
}

// CartServiceClient implements CartClient over the cart service's HTTP API.
type CartServiceClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCartServiceClient(baseURL string, client *http.Client) *CartServiceClient {
	return &CartServiceClient{baseURL: baseURL, httpClient: client}
}

func (c *CartServiceClient) ClearCart(ctx context.Context, userID string) error {
	url := fmt.Sprintf("%s/carts/%s", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("create clear cart request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("clear cart for user %s: %w", userID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cart service returned status %d for user %s", resp.StatusCode, userID)
	}
	return nil
}
