package middleware

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/finance-api/internal/http/respond"
	"github.com/hongminglow/finance-api/internal/metrics"
	"github.com/hongminglow/finance-api/internal/models"
)

// SessionResolver produces the authenticated identity for a request, if any.
type SessionResolver interface {
	Resolve(r *http.Request) (models.Identity, bool)
}

// HandlerFunc is a handler that receives the resolved session explicitly.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, session models.Identity)

// Gate enforces authentication and role allow-lists in front of handlers.
type Gate struct {
	sessions SessionResolver
	log      logrus.FieldLogger
}

// NewGate creates a gate backed by the session resolver.
func NewGate(sessions SessionResolver, log logrus.FieldLogger) *Gate {
	return &Gate{sessions: sessions, log: log}
}

// WithRole wraps next so it only runs for an authenticated session whose role
// is in allowed. With no roles listed any authenticated session passes.
// A missing session yields 401 and a disallowed role 403.
func (g *Gate) WithRole(next HandlerFunc, allowed ...models.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := g.sessions.Resolve(r)
		if !ok {
			g.deny(r, "unauthorized", "")
			respond.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		session.Role = session.Role.OrDefault()
		if len(allowed) > 0 && !hasRole(allowed, session.Role) {
			g.deny(r, "forbidden", session.ID)
			respond.Error(w, http.StatusForbidden, "Forbidden")
			return
		}
		metrics.RecordGateDecision("allowed")
		next(w, r, session)
	}
}

// AdminWrites lets any session read with GET or HEAD and requires ADMIN for
// every other method.
func (g *Gate) AdminWrites(next HandlerFunc) http.HandlerFunc {
	read := g.WithRole(next)
	write := g.WithRole(next, models.RoleAdmin)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			read(w, r)
			return
		}
		write(w, r)
	}
}

func (g *Gate) deny(r *http.Request, outcome, userID string) {
	metrics.RecordGateDecision(outcome)
	g.log.WithFields(logrus.Fields{
		"outcome": outcome,
		"user_id": userID,
		"method":  r.Method,
		"path":    r.URL.Path,
	}).Debug("access denied")
}

func hasRole(allowed []models.Role, role models.Role) bool {
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}
