package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/finance-api/internal/http/respond"
	"github.com/hongminglow/finance-api/internal/middleware"
	"github.com/hongminglow/finance-api/internal/models"
	"github.com/hongminglow/finance-api/internal/models/dto"
	"github.com/hongminglow/finance-api/internal/storage"
)

// MovementHandler serves /movements. Reads are open to any session; writes need ADMIN.
type MovementHandler struct {
	movements storage.MovementStore
	users     storage.UserStore
	gate      *middleware.Gate
	log       logrus.FieldLogger
}

// NewMovementHandler constructs the handler.
func NewMovementHandler(movements storage.MovementStore, users storage.UserStore, gate *middleware.Gate, log logrus.FieldLogger) *MovementHandler {
	return &MovementHandler{movements: movements, users: users, gate: gate, log: log}
}

// Register attaches movement routes to the router.
func (h *MovementHandler) Register(r chi.Router) {
	r.HandleFunc("/movements", h.gate.AdminWrites(h.handleCollection))
	r.HandleFunc("/movements/{id}", h.gate.AdminWrites(h.handleItem))
}

func (h *MovementHandler) handleCollection(w http.ResponseWriter, r *http.Request, _ models.Identity) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		respond.MethodNotAllowed(w, r, http.MethodGet, http.MethodHead, http.MethodPost)
	}
}

func (h *MovementHandler) handleItem(w http.ResponseWriter, r *http.Request, _ models.Identity) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid id")
		return
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		respond.MethodNotAllowed(w, r, http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete)
	}
}

func (h *MovementHandler) list(w http.ResponseWriter, r *http.Request) {
	movements, err := h.movements.ListMovements(r.Context(), storage.Descending)
	if err != nil {
		serverError(w, r, h.log, "list movements failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, movements)
}

func (h *MovementHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMovementRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Amount.IsZero() || req.Concept == "" || req.Date == "" || req.Type == "" || req.UserID == "" {
		respond.Error(w, http.StatusBadRequest, "Missing fields")
		return
	}
	kind := models.MovementType(req.Type)
	if !kind.Valid() {
		respond.Error(w, http.StatusBadRequest, "Invalid type")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid date")
		return
	}

	if _, err := h.users.GetUser(r.Context(), req.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusBadRequest, "User not found")
			return
		}
		serverError(w, r, h.log, "lookup movement owner failed", err)
		return
	}

	created, err := h.movements.CreateMovement(r.Context(), models.Movement{
		Amount:  req.Amount,
		Concept: req.Concept,
		Date:    date,
		Type:    kind,
		UserID:  req.UserID,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusBadRequest, "User not found")
			return
		}
		serverError(w, r, h.log, "create movement failed", err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (h *MovementHandler) get(w http.ResponseWriter, r *http.Request, id int64) {
	movement, err := h.movements.GetMovement(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Not found")
			return
		}
		serverError(w, r, h.log, "get movement failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, movement)
}

func (h *MovementHandler) update(w http.ResponseWriter, r *http.Request, id int64) {
	var req dto.UpdateMovementRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	patch := storage.MovementPatch{Amount: req.Amount, Concept: req.Concept}
	if req.Type != nil {
		kind := models.MovementType(*req.Type)
		if !kind.Valid() {
			respond.Error(w, http.StatusBadRequest, "Invalid type")
			return
		}
		patch.Type = &kind
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid date")
			return
		}
		patch.Date = &date
	}

	updated, err := h.movements.UpdateMovement(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Not found")
			return
		}
		serverError(w, r, h.log, "update movement failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

func (h *MovementHandler) delete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.movements.DeleteMovement(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Not found")
			return
		}
		serverError(w, r, h.log, "delete movement failed", err)
		return
	}
	respond.NoContent(w)
}
