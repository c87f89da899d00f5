package products

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mishraomi/ecommerce-app/internal/domain"
)

type Handler struct {
	repo   *ProductRepository
	logger *slog.Logger
}

func NewHandler(repo *ProductRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := validateProduct(&product); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.repo.Create(r.Context(), &product); err != nil {
		h.logger.Error("failed to create product", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product created", "product_id", product.ID, "name", product.Name)
	h.writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	product.ID = id

	if msg := validateProduct(&product); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	found, err := h.repo.Update(r.Context(), &product)
	if err != nil {
		h.logger.Error("failed to update product", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.Info("product updated", "product_id", id)
	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	found, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete product", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.Info("product deleted", "product_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetStock answers the stock gate's read: the bare available stock as
// a JSON number.
func (h *Handler) HandleGetStock(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product stock", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product.AvailableStock)
}

type stockUpdateRequest struct {
	Quantity  *int   `json:"quantity"`
	Operation string `json:"operation"`
}

func (h *Handler) HandleUpdateStock(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req stockUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == nil {
		h.writeError(w, http.StatusBadRequest, "missing stock quantity")
		return
	}

	product, err := h.repo.UpdateStock(r.Context(), id, *req.Quantity, domain.StockOperation(req.Operation))
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientStock):
			h.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrNegativeQuantity), errors.Is(err, ErrInvalidOperation):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to update stock", "error", err, "id", id)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.Info("stock updated", "product_id", id, "quantity", *req.Quantity, "operation", req.Operation, "available", product.AvailableStock)
	h.writeJSON(w, http.StatusOK, product)
}

func validateProduct(p *domain.Product) string {
	if p.Name == "" {
		return "product name is required"
	}
	if !p.Price.IsPositive() {
		return "price must be greater than zero"
	}
	if p.AvailableStock < 0 {
		return "available stock cannot be negative"
	}
	return ""
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
