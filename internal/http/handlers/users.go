package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/finance-api/internal/http/respond"
	"github.com/hongminglow/finance-api/internal/middleware"
	"github.com/hongminglow/finance-api/internal/models"
	"github.com/hongminglow/finance-api/internal/models/dto"
	"github.com/hongminglow/finance-api/internal/storage"
)

// UserHandler serves /users. Every route needs ADMIN.
type UserHandler struct {
	users storage.UserStore
	gate  *middleware.Gate
	log   logrus.FieldLogger
}

// NewUserHandler constructs the handler.
func NewUserHandler(users storage.UserStore, gate *middleware.Gate, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{users: users, gate: gate, log: log}
}

// Register attaches user routes to the router.
func (h *UserHandler) Register(r chi.Router) {
	r.HandleFunc("/users", h.gate.WithRole(h.handleCollection, models.RoleAdmin))
	r.HandleFunc("/users/{id}", h.gate.WithRole(h.handleItem, models.RoleAdmin))
}

func (h *UserHandler) handleCollection(w http.ResponseWriter, r *http.Request, _ models.Identity) {
	switch r.Method {
	case http.MethodGet:
		users, err := h.users.ListUsers(r.Context())
		if err != nil {
			serverError(w, r, h.log, "list users failed", err)
			return
		}
		respond.JSON(w, http.StatusOK, users)
	case http.MethodPost:
		h.create(w, r)
	default:
		respond.MethodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (h *UserHandler) handleItem(w http.ResponseWriter, r *http.Request, _ models.Identity) {
	id := chi.URLParam(r, "id")
	switch r.Method {
	case http.MethodGet:
		user, err := h.users.GetUser(r.Context(), id)
		if err != nil {
			h.storeError(w, r, "get user failed", err)
			return
		}
		respond.JSON(w, http.StatusOK, user)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		if err := h.users.DeleteUser(r.Context(), id); err != nil {
			h.storeError(w, r, "delete user failed", err)
			return
		}
		respond.NoContent(w)
	default:
		respond.MethodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (h *UserHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Name == "" || req.Email == "" {
		respond.Error(w, http.StatusBadRequest, "Missing name or email")
		return
	}
	// Accounts created here are administrators unless a role is given.
	role := models.RoleAdmin
	if req.Role != nil {
		role = models.Role(*req.Role)
		if !role.Valid() {
			respond.Error(w, http.StatusBadRequest, "Invalid role")
			return
		}
	}

	created, err := h.users.CreateUser(r.Context(), models.User{
		ID:    uuid.NewString(),
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Role:  role,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "User already exists")
			return
		}
		serverError(w, r, h.log, "create user failed", err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req dto.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	patch := storage.UserPatch{Name: req.Name, Phone: req.Phone}
	if req.Role != nil {
		role := models.Role(*req.Role)
		if !role.Valid() {
			respond.Error(w, http.StatusBadRequest, "Invalid role")
			return
		}
		patch.Role = &role
	}

	updated, err := h.users.UpdateUser(r.Context(), id, patch)
	if err != nil {
		h.storeError(w, r, "update user failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

func (h *UserHandler) storeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "Not found")
		return
	}
	serverError(w, r, h.log, msg, err)
}
