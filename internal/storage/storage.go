package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/finance-api/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// SortOrder selects the date ordering of movement listings.
type SortOrder int

const (
	Descending SortOrder = iota
	Ascending
)

// UserPatch lists the user fields to change. Nil fields are left untouched.
type UserPatch struct {
	Name  *string
	Role  *models.Role
	Phone *string
}

// MovementPatch lists the movement fields to change. Nil fields are left untouched.
type MovementPatch struct {
	Amount  *models.Amount
	Concept *string
	Date    *time.Time
	Type    *models.MovementType
}

// UserStore captures persistence operations for accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
	// PromoteIfFirst makes id an ADMIN when it is the oldest account and
	// returns the stored user. The check and the update are atomic.
	PromoteIfFirst(ctx context.Context, id string) (models.User, error)
}

// MovementStore captures persistence operations for movements. Reads join
// the owner's id, name and email.
type MovementStore interface {
	CreateMovement(ctx context.Context, m models.Movement) (models.Movement, error)
	GetMovement(ctx context.Context, id int64) (models.Movement, error)
	ListMovements(ctx context.Context, order SortOrder) ([]models.Movement, error)
	UpdateMovement(ctx context.Context, id int64, patch MovementPatch) (models.Movement, error)
	DeleteMovement(ctx context.Context, id int64) error
}

// Store is the full persistence surface used by the server.
type Store interface {
	UserStore
	MovementStore
}
