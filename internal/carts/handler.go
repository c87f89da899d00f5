package carts

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mishraomi/ecommerce-app/internal/domain"
)

// CartStore is the persistence surface the handler needs; the postgres
// repository implements it.
type CartStore interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Clear(ctx context.Context, userID string) (bool, error)
}

type Handler struct {
	store    CartStore
	products ProductReader
	orders   OrderPlacer
	logger   *slog.Logger
}

func NewHandler(store CartStore, products ProductReader, orders OrderPlacer, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		products: products,
		orders:   orders,
		logger:   logger,
	}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	cart, err := h.store.GetByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get cart", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if cart == nil {
		h.writeError(w, http.StatusNotFound, "cart not found for user "+userID)
		return
	}

	h.writeJSON(w, http.StatusOK, cart)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// HandleAddItem adds a product to the user's cart, creating the cart lazily.
// Adding a product already in the cart merges quantities, and the stock gate
// runs against the cumulative quantity. Name and unit price come from the
// product service, not the client.
func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" || req.Quantity < 1 {
		h.writeError(w, http.StatusBadRequest, "product_id and a positive quantity are required")
		return
	}

	cart, err := h.store.GetByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get cart", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if cart == nil {
		cart = &domain.Cart{UserID: userID}
	}

	requested := req.Quantity
	if line := cart.Line(req.ProductID); line != nil {
		requested += line.Quantity
	}

	product := h.gateStock(r.Context(), w, req.ProductID, requested)
	if product == nil {
		return
	}

	if line := cart.Line(req.ProductID); line != nil {
		line.Quantity = requested
	} else {
		cart.Items = append(cart.Items, domain.CartLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    req.Quantity,
			UnitPrice:   product.Price,
		})
	}

	if err := h.store.Save(r.Context(), cart); err != nil {
		h.logger.Error("failed to save cart", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart item added", "user_id", userID, "product_id", req.ProductID, "quantity", requested)
	h.writeJSON(w, http.StatusOK, cart)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	productID := r.PathValue("productId")

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity < 1 {
		h.writeError(w, http.StatusBadRequest, "quantity must be greater than zero")
		return
	}

	cart, err := h.store.GetByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get cart", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if cart == nil {
		h.writeError(w, http.StatusNotFound, "cart not found for user "+userID)
		return
	}

	line := cart.Line(productID)
	if line == nil {
		h.writeError(w, http.StatusNotFound, "product "+productID+" not in cart")
		return
	}

	if product := h.gateStock(r.Context(), w, productID, req.Quantity); product == nil {
		return
	}

	line.Quantity = req.Quantity

	if err := h.store.Save(r.Context(), cart); err != nil {
		h.logger.Error("failed to save cart", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart item updated", "user_id", userID, "product_id", productID, "quantity", req.Quantity)
	h.writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	productID := r.PathValue("productId")

	cart, err := h.store.GetByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get cart", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if cart == nil {
		h.writeError(w, http.StatusNotFound, "cart not found for user "+userID)
		return
	}

	kept := cart.Items[:0]
	for _, line := range cart.Items {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	cart.Items = kept

	if err := h.store.Save(r.Context(), cart); err != nil {
		h.logger.Error("failed to save cart", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart item removed", "user_id", userID, "product_id", productID)
	h.writeJSON(w, http.StatusOK, cart)
}

// HandleClear empties the cart but keeps the cart record, so a later add
// reuses it.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	found, err := h.store.Clear(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to clear cart", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "cart not found for user "+userID)
		return
	}

	h.logger.Info("cart cleared", "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleCheckout turns the cart into an order request and submits it to the
// order service. The order service owns all further validation and the
// placement sequence; its rejections are relayed as-is.
func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	cart, err := h.store.GetByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get cart", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if cart == nil {
		h.writeError(w, http.StatusNotFound, "cart not found for user "+userID)
		return
	}

	orderReq := OrderRequest{
		UserID:      userID,
		TotalAmount: cart.Total(),
	}
	for _, line := range cart.Items {
		orderReq.Items = append(orderReq.Items, domain.OrderLine{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Price:       line.UnitPrice,
		})
	}

	order, err := h.orders.PlaceOrder(r.Context(), orderReq)
	if err != nil {
		var remote *RemoteError
		if errors.As(err, &remote) {
			h.logger.Info("checkout rejected by order service", "user_id", userID, "status", remote.StatusCode, "message", remote.Message)
			h.writeError(w, remote.StatusCode, remote.Message)
			return
		}
		h.logger.Error("failed to place order", "error", err, "user_id", userID)
		h.writeError(w, http.StatusBadGateway, "order service unavailable")
		return
	}

	h.logger.Info("cart checked out", "user_id", userID, "order_id", order.ID)
	h.writeJSON(w, http.StatusCreated, order)
}

// gateStock resolves the product and verifies availability, writing the
// error response itself on failure. A nil product means the request has been
// answered.
func (h *Handler) gateStock(ctx context.Context, w http.ResponseWriter, productID string, quantity int) *domain.Product {
	product, err := h.products.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrProductUnknown) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return nil
		}
		h.logger.Error("failed to check stock", "error", err, "product_id", productID)
		h.writeError(w, http.StatusBadGateway, "product service unavailable")
		return nil
	}

	if product.AvailableStock < quantity {
		h.writeError(w, http.StatusBadRequest,
			"insufficient stock available for product "+productID)
		return nil
	}

	return product
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
