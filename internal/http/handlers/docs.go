package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/finance-api/internal/docs"
)

// DocsHandler serves the OpenAPI document.
type DocsHandler struct {
	log logrus.FieldLogger
}

// NewDocsHandler constructs the handler.
func NewDocsHandler(log logrus.FieldLogger) *DocsHandler {
	return &DocsHandler{log: log}
}

// Register attaches documentation routes to the router.
func (h *DocsHandler) Register(r chi.Router) {
	r.Get("/docs", h.handleJSON)
	r.Get("/docs.yaml", h.handleYAML)
}

func (h *DocsHandler) handleJSON(w http.ResponseWriter, r *http.Request) {
	body, err := docs.JSON()
	if err != nil {
		serverError(w, r, h.log, "render openapi document failed", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (h *DocsHandler) handleYAML(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(docs.YAML())
}

