package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/finance-api/internal/http/respond"
)

var errInvalidDate = errors.New("invalid date")

// dateLayouts are tried in order when parsing movement dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errInvalidDate
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// serverError logs err with request context and writes a generic 500.
func serverError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, msg string, err error) {
	log.WithError(err).WithFields(logrus.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"request_id": chimw.GetReqID(r.Context()),
	}).Error(msg)
	respond.Error(w, http.StatusInternalServerError, "Server error")
}
