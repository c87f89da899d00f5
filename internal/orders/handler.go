package orders

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mishraomi/ecommerce-app/internal/domain"
)

type Handler struct {
	repo   *OrderRepository
	saga   *Saga
	logger *slog.Logger
}

func NewHandler(repo *OrderRepository, saga *Saga, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		saga:   saga,
		logger: logger,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req PlacementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.saga.PlaceOrder(r.Context(), req)
	if err != nil {
		h.writePlacementError(w, order, err)
		return
	}

	h.logger.Info("order created", "order_id", order.ID, "user_id", order.UserID)
	h.writeJSON(w, http.StatusCreated, order)
}

// writePlacementError maps placement failures onto the error taxonomy:
// validation and stock-gate failures are 400s with nothing persisted,
// post-persist failures are 502s carrying the FAILED order id.
func (h *Handler) writePlacementError(w http.ResponseWriter, order *domain.Order, err error) {
	switch {
	case errors.Is(err, ErrPlacementFailed):
		h.writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":    err.Error(),
			"order_id": order.ID,
			"status":   string(order.Status),
		})
	case errors.Is(err, ErrNoItems),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrTotalMismatch),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrProductUnknown):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("failed to place order", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	var status domain.OrderStatus
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, err := ParseStatus(s)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = parsed
	}

	orders, err := h.repo.List(r.Context(), status, "")
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("orders listed", "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "missing user id")
		return
	}

	orders, err := h.repo.List(r.Context(), "", userID)
	if err != nil {
		h.logger.Error("failed to list orders for user", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target, err := ParseStatus(req.Status)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	current, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if current == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	if !CanTransition(current.Status, target) {
		err := fmt.Errorf("%w: %s to %s", ErrIllegalTransition, current.Status, target)
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.repo.UpdateStatus(r.Context(), id, target)
	if err != nil {
		h.logger.Error("failed to update order status", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	h.writeJSON(w, http.StatusOK, order)
}

// HandleUpdate replaces an order's lines and total wholesale. Stock is
// re-validated against the raw requested quantities; quantities already held
// by the order being replaced are not credited back.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req PlacementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	existing, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if existing == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	order, err := Assemble(req)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.saga.checkAvailability(r.Context(), order.Items); err != nil {
		h.writePlacementError(w, nil, err)
		return
	}

	order.ID = existing.ID
	order.Status = existing.Status
	order.CreatedAt = existing.CreatedAt

	found, err := h.repo.Replace(r.Context(), order)
	if err != nil {
		h.logger.Error("failed to update order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.logger.Info("order updated", "order_id", order.ID)
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	found, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.logger.Info("order deleted", "order_id", id)
	w.WriteHeader(http.StatusNoContent)
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
