package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/finance-api/internal/http/respond"
	"github.com/hongminglow/finance-api/internal/middleware"
	"github.com/hongminglow/finance-api/internal/models"
	"github.com/hongminglow/finance-api/internal/report"
)

// ReportHandler serves the administrator reports.
type ReportHandler struct {
	reports *report.Service
	gate    *middleware.Gate
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewReportHandler constructs the handler.
func NewReportHandler(reports *report.Service, gate *middleware.Gate, log logrus.FieldLogger) *ReportHandler {
	return &ReportHandler{reports: reports, gate: gate, log: log, now: time.Now}
}

// Register attaches report routes to the router.
func (h *ReportHandler) Register(r chi.Router) {
	r.HandleFunc("/reports", h.gate.WithRole(h.handleReport, models.RoleAdmin))
	r.HandleFunc("/reports/csv", h.gate.WithRole(h.handleCSV, models.RoleAdmin))
}

func (h *ReportHandler) handleReport(w http.ResponseWriter, r *http.Request, _ models.Identity) {
	if r.Method != http.MethodGet {
		respond.MethodNotAllowed(w, r, http.MethodGet)
		return
	}
	rep, err := h.reports.Build(r.Context())
	if err != nil {
		serverError(w, r, h.log, "build report failed", err)
		return
	}
	if !rep.Valid {
		h.log.WithField("movements", len(rep.Points)).Warn("report balance is not a number; check movement amounts")
	}
	respond.JSON(w, http.StatusOK, rep)
}

func (h *ReportHandler) handleCSV(w http.ResponseWriter, r *http.Request, _ models.Identity) {
	if r.Method != http.MethodGet {
		respond.MethodNotAllowed(w, r, http.MethodGet)
		return
	}
	body, err := h.reports.CSV(r.Context())
	if err != nil {
		serverError(w, r, h.log, "export csv failed", err)
		return
	}
	respond.CSV(w, "report_"+h.now().UTC().Format("2006-01-02")+".csv", body)
}
