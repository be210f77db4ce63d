package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Dan9191/user-service/internal/models"
	"github.com/Dan9191/user-service/internal/repository"
	"github.com/Dan9191/user-service/internal/service"
	"github.com/Dan9191/user-service/internal/storage"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const healthTimeout = 2 * time.Second

type Handler struct {
	svc   *service.Service
	store *storage.Store
	log   *logrus.Logger
}

func NewHandler(svc *service.Service, store *storage.Store, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, store: store, log: log}
}

// userPayload distinguishes absent fields from empty ones
type userPayload struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

// ListUsers handles GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(detach(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

// CreateUser handles POST /users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	user, err := decodeUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	rec, err := h.svc.CreateUser(detach(r), user)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// UpdateUser handles PUT /users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	user, err := decodeUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	rec, err := h.svc.UpdateUser(detach(r), id, user)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// DeleteUser handles DELETE /users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.svc.DeleteUser(detach(r), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, detailResponse{Detail: "User deleted"})
}

// Health reports whether the database answers a ping
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.log.Errorf("Health check failed: %v", h.store.Wrap("ping", err))
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// detach keeps request values but drops client cancellation, so a
// disconnect does not abort a database operation already under way.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func userID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &service.ValidationError{Field: "id", Reason: fmt.Sprintf("invalid integer %q", raw)}
	}
	return id, nil
}

func decodeUser(r *http.Request) (models.User, error) {
	var p userPayload
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&p); err != nil {
		return models.User{}, &service.ValidationError{Field: "body", Reason: err.Error()}
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return models.User{}, &service.ValidationError{Field: "body", Reason: "unexpected data after JSON object"}
	}
	if p.Name == nil {
		return models.User{}, &service.ValidationError{Field: "name", Reason: "field required"}
	}
	if p.Email == nil {
		return models.User{}, &service.ValidationError{Field: "email", Reason: "field required"}
	}
	return models.User{Name: *p.Name, Email: *p.Email}, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		ve *service.ValidationError
		se *storage.StorageError
	)
	switch {
	case errors.As(err, &ve):
		h.writeJSON(w, http.StatusUnprocessableEntity, detailResponse{Detail: ve.Error()})
	case errors.Is(err, repository.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, detailResponse{Detail: "User not found"})
	case errors.As(err, &se):
		h.writeJSON(w, http.StatusInternalServerError, detailResponse{Detail: "Database error: " + se.Message})
	default:
		h.log.Errorf("Unhandled error: %v", err)
		h.writeJSON(w, http.StatusInternalServerError, detailResponse{Detail: "Internal server error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}
