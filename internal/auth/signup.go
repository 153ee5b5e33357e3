package auth

import (
	"context"
	"fmt"

	"github.com/hongminglow/finance-api/internal/models"
	"github.com/hongminglow/finance-api/internal/storage"
)

// PromotionPolicy decides which self-registered accounts become administrators.
type PromotionPolicy string

const (
	// PromoteAlways makes every newly registered account an ADMIN.
	PromoteAlways PromotionPolicy = "always"
	// PromoteFirst makes only the oldest account an ADMIN, even when
	// registrations race.
	PromoteFirst PromotionPolicy = "first"
)

// SignupHook runs once after a self-service registration creates a user.
type SignupHook struct {
	users  storage.UserStore
	policy PromotionPolicy
}

// NewSignupHook creates the post-registration hook.
func NewSignupHook(users storage.UserStore, policy PromotionPolicy) *SignupHook {
	if policy != PromoteFirst {
		policy = PromoteAlways
	}
	return &SignupHook{users: users, policy: policy}
}

// AfterCreate applies the promotion policy and returns the user as stored.
func (h *SignupHook) AfterCreate(ctx context.Context, user models.User) (models.User, error) {
	if h.policy == PromoteFirst {
		stored, err := h.users.PromoteIfFirst(ctx, user.ID)
		if err != nil {
			return user, fmt.Errorf("promote first user %s: %w", user.ID, err)
		}
		return stored, nil
	}
	admin := models.RoleAdmin
	updated, err := h.users.UpdateUser(ctx, user.ID, storage.UserPatch{Role: &admin})
	if err != nil {
		return user, fmt.Errorf("promote user %s: %w", user.ID, err)
	}
	return updated, nil
}
