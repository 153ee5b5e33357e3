package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/finance-api/internal/auth"
	"github.com/hongminglow/finance-api/internal/http/respond"
	"github.com/hongminglow/finance-api/internal/models"
	"github.com/hongminglow/finance-api/internal/models/dto"
	"github.com/hongminglow/finance-api/internal/storage"
)

// AuthHandler owns the register/login endpoints that issue session tokens.
type AuthHandler struct {
	users  storage.UserStore
	tokens *auth.TokenManager
	signup *auth.SignupHook
	log    logrus.FieldLogger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(users storage.UserStore, tokens *auth.TokenManager, signup *auth.SignupHook, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, signup: signup, log: log}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r chi.Router) {
	r.HandleFunc("/auth/register", h.handleRegister)
	r.HandleFunc("/auth/login", h.handleLogin)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.MethodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := validateRegistration(req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		serverError(w, r, h.log, "hash password failed", err)
		return
	}

	user := models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Role:         models.RoleUser,
		PasswordHash: passwordHash,
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		user.Phone = &phone
	}
	created, err := h.users.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "User already exists")
			return
		}
		serverError(w, r, h.log, "create user failed", err)
		return
	}

	promoted, err := h.signup.AfterCreate(r.Context(), created)
	if err != nil {
		h.log.WithError(err).WithField("user_id", created.ID).Warn("signup hook failed")
	}
	respond.JSON(w, http.StatusCreated, promoted)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.MethodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || strings.TrimSpace(req.Password) == "" {
		respond.Error(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	user, err := h.users.FindByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		serverError(w, r, h.log, "find user failed", err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respond.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token, err := h.tokens.Generate(user)
	if err != nil {
		serverError(w, r, h.log, "generate token failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.LoginResponse{Token: token, User: user})
}

func validateRegistration(req dto.RegisterRequest) error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		return errors.New("Missing name or email")
	}
	if len(strings.TrimSpace(req.Password)) < 8 || !utf8.ValidString(req.Password) {
		return errors.New("Password must be at least 8 characters")
	}
	return nil
}
