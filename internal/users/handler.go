package users

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mishraomi/ecommerce-app/internal/domain"
)

type Handler struct {
	repo   *UserRepository
	logger *slog.Logger
}

func NewHandler(repo *UserRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if users == nil {
		users = []domain.User{}
	}

	h.writeJSON(w, http.StatusOK, users)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	user, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get user", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil {
		h.writeError(w, http.StatusNotFound, "user not found")
		return
	}

	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var user domain.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := validateUser(&user); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.repo.Create(r.Context(), &user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			h.writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("failed to create user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("user created", "user_id", user.ID)
	h.writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var user domain.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user.ID = id

	if msg := validateUser(&user); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	found, err := h.repo.Update(r.Context(), &user)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			h.writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("failed to update user", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "user not found")
		return
	}

	h.logger.Info("user updated", "user_id", id)
	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	found, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete user", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "user not found")
		return
	}

	h.logger.Info("user deleted", "user_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func validateUser(u *domain.User) string {
	if u.Name == "" {
		return "name is required"
	}
	if !strings.Contains(u.Email, "@") {
		return "a valid email is required"
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
