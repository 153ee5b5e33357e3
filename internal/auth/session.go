package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/finance-api/internal/models"
	"github.com/hongminglow/finance-api/internal/storage"
)

// JWTResolver turns a bearer token into the current identity. The role is
// read from the user record, so role changes apply to existing tokens.
type JWTResolver struct {
	tokens *TokenManager
	users  storage.UserStore
	log    logrus.FieldLogger
}

// NewJWTResolver creates a resolver backed by the token manager and user store.
func NewJWTResolver(tokens *TokenManager, users storage.UserStore, log logrus.FieldLogger) *JWTResolver {
	return &JWTResolver{tokens: tokens, users: users, log: log}
}

// Resolve returns the identity for the request, or false when there is none.
func (j *JWTResolver) Resolve(r *http.Request) (models.Identity, bool) {
	raw, ok := bearerToken(r)
	if !ok {
		return models.Identity{}, false
	}
	claims, err := j.tokens.Parse(raw)
	if err != nil {
		j.log.WithError(err).Debug("rejecting session token")
		return models.Identity{}, false
	}
	user, err := j.users.GetUser(r.Context(), claims.Subject)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			j.log.WithError(err).WithField("user_id", claims.Subject).Error("session lookup failed")
		}
		return models.Identity{}, false
	}
	return user.Identity(), true
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
