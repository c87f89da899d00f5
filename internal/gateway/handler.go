package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

// Handler fronts the four entity services, forwarding by path prefix. The
// gateway adds no semantics of its own; status codes and bodies pass through
// untouched.
type Handler struct {
	productsProxy *ServiceProxy
	cartsProxy    *ServiceProxy
	ordersProxy   *ServiceProxy
	usersProxy    *ServiceProxy
	logger        *slog.Logger
}

func NewHandler(productsProxy, cartsProxy, ordersProxy, usersProxy *ServiceProxy, logger *slog.Logger) *Handler {
	return &Handler{
		productsProxy: productsProxy,
		cartsProxy:    cartsProxy,
		ordersProxy:   ordersProxy,
		usersProxy:    usersProxy,
		logger:        logger,
	}
}

func (h *Handler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, h.productsProxy)
}

func (h *Handler) HandleCarts(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, h.cartsProxy)
}

func (h *Handler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, h.ordersProxy)
}

func (h *Handler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, h.usersProxy)
}

func (h *Handler) proxyRequest(w http.ResponseWriter, r *http.Request, proxy *ServiceProxy) {
	path := r.URL.Path

	resp, err := proxy.ForwardRequest(r.Context(), r, path)
	if err != nil {
		h.logger.Error("failed to forward request", "error", err, "path", path)
		h.writeError(w, http.StatusBadGateway, "service unavailable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(resp.StatusCode)

	h.logger.Info("request proxied", "method", r.Method, "path", path, "status", resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Error("failed to copy response body", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.logger.Error("failed to encode error response", "error", err)
	}
}
