package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/finance-api/internal/models"
	"github.com/hongminglow/finance-api/internal/storage"
)

func TestUsersLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, err := s.CreateUser(ctx, models.User{ID: "a", Name: "A", Email: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, a.Role)

	_, err = s.CreateUser(ctx, models.User{ID: "b", Name: "B", Email: "a@example.com"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	_, err = s.CreateUser(ctx, models.User{ID: "b", Name: "B", Email: "b@example.com"})
	require.NoError(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "b", users[0].ID, "newest first")

	phone := "555"
	updated, err := s.UpdateUser(ctx, "a", storage.UserPatch{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.Name)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "555", *updated.Phone)

	notFirst, err := s.PromoteIfFirst(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, notFirst.Role)
	first, err := s.PromoteIfFirst(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, first.Role)
	_, err = s.PromoteIfFirst(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.DeleteUser(ctx, "a"))
	assert.ErrorIs(t, s.DeleteUser(ctx, "a"), storage.ErrNotFound)
	_, err = s.UpdateUser(ctx, "a", storage.UserPatch{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMovementsLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.CreateUser(ctx, models.User{ID: "u", Name: "Owner", Email: "o@example.com"})
	require.NoError(t, err)

	_, err = s.CreateMovement(ctx, models.Movement{UserID: "ghost"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late, err := s.CreateMovement(ctx, models.Movement{Amount: models.NumberAmount(5), Concept: "late", Date: jan.AddDate(0, 1, 0), Type: models.Income, UserID: "u"})
	require.NoError(t, err)
	early, err := s.CreateMovement(ctx, models.Movement{Amount: models.StringAmount("7"), Concept: "early", Date: jan, Type: models.Expense, UserID: "u"})
	require.NoError(t, err)
	assert.False(t, late.Amount.IsNumeric(), "amounts come back as stored text")

	asc, err := s.ListMovements(ctx, storage.Ascending)
	require.NoError(t, err)
	assert.Equal(t, []int64{early.ID, late.ID}, []int64{asc[0].ID, asc[1].ID})
	require.NotNil(t, asc[0].User)
	assert.Equal(t, "Owner", asc[0].User.Name)

	desc, err := s.ListMovements(ctx, storage.Descending)
	require.NoError(t, err)
	assert.Equal(t, late.ID, desc[0].ID)

	concept := "renamed"
	updated, err := s.UpdateMovement(ctx, early.ID, storage.MovementPatch{Concept: &concept})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Concept)
	assert.Equal(t, "7", updated.Amount.String())

	require.NoError(t, s.DeleteUser(ctx, "u"))
	_, err = s.GetMovement(ctx, late.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound, "owner deletion cascades")
}
