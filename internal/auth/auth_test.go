package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/finance-api/internal/models"
	"github.com/hongminglow/finance-api/internal/storage"
	"github.com/hongminglow/finance-api/internal/storage/memory"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "finance-api", time.Hour)
	token, err := tm.Generate(models.User{ID: "u-1", Name: "Ana", Email: "ana@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	claims, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, "ana@example.com", claims.Email)
}

func TestTokenRejections(t *testing.T) {
	tm := NewTokenManager("secret", "finance-api", time.Hour)
	user := models.User{ID: "u-1"}

	other := NewTokenManager("other-secret", "finance-api", time.Hour)
	forged, err := other.Generate(user)
	require.NoError(t, err)
	_, err = tm.Parse(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign := NewTokenManager("secret", "someone-else", time.Hour)
	wrongIssuer, err := foreign.Generate(user)
	require.NoError(t, err)
	_, err = tm.Parse(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	past := NewTokenManager("secret", "finance-api", time.Minute)
	past.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := past.Generate(user)
	require.NoError(t, err)
	_, err = tm.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tm.Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTResolver(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	user, err := store.CreateUser(ctx, models.User{ID: "u-1", Name: "Ana", Email: "ana@example.com", Role: models.RoleUser})
	require.NoError(t, err)

	tm := NewTokenManager("secret", "finance-api", time.Hour)
	resolver := NewJWTResolver(tm, store, quietLogger())

	token, err := tm.Generate(user)
	require.NoError(t, err)

	request := func(header string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/movements", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		return r
	}

	_, ok := resolver.Resolve(request(""))
	assert.False(t, ok, "no header")
	_, ok = resolver.Resolve(request("Basic abc"))
	assert.False(t, ok, "wrong scheme")
	_, ok = resolver.Resolve(request("Bearer garbage"))
	assert.False(t, ok, "bad token")

	id, ok := resolver.Resolve(request("Bearer " + token))
	require.True(t, ok)
	assert.Equal(t, models.Identity{ID: "u-1", Name: "Ana", Email: "ana@example.com", Role: models.RoleUser}, id)

	// A role change in the store applies without reissuing the token.
	admin := models.RoleAdmin
	_, err = store.UpdateUser(ctx, "u-1", storagePatchRole(admin))
	require.NoError(t, err)
	id, ok = resolver.Resolve(request("bearer " + token))
	require.True(t, ok)
	assert.Equal(t, models.RoleAdmin, id.Role)

	require.NoError(t, store.DeleteUser(ctx, "u-1"))
	_, ok = resolver.Resolve(request("Bearer " + token))
	assert.False(t, ok, "deleted user has no session")
}

func TestSignupHookPromotesEveryAccountByDefault(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	hook := NewSignupHook(store, "")

	for _, id := range []string{"first", "second"} {
		u, err := store.CreateUser(ctx, models.User{ID: id, Name: id, Email: id + "@example.com"})
		require.NoError(t, err)
		promoted, err := hook.AfterCreate(ctx, u)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, promoted.Role, id)
	}
}

func TestSignupHookFirstOnly(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	hook := NewSignupHook(store, PromoteFirst)

	first, err := store.CreateUser(ctx, models.User{ID: "first", Name: "F", Email: "f@example.com"})
	require.NoError(t, err)
	first, err = hook.AfterCreate(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, first.Role)

	second, err := store.CreateUser(ctx, models.User{ID: "second", Name: "S", Email: "s@example.com"})
	require.NoError(t, err)
	second, err = hook.AfterCreate(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, second.Role)
}

func TestSignupHookFirstOnlyUnderConcurrentRegistrations(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	hook := NewSignupHook(store, PromoteFirst)

	ids := []string{"u0", "u1", "u2", "u3", "u4", "u5", "u6", "u7"}
	for _, id := range ids {
		_, err := store.CreateUser(ctx, models.User{ID: id, Name: id, Email: id + "@example.com"})
		require.NoError(t, err)
	}

	// Every account exists before any hook runs, so no count is ever 1.
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			u, err := store.GetUser(ctx, id)
			if assert.NoError(t, err) {
				_, err = hook.AfterCreate(ctx, u)
				assert.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	admins := 0
	for _, u := range users {
		if u.Role == models.RoleAdmin {
			admins++
			assert.Equal(t, "u0", u.ID)
		}
	}
	assert.Equal(t, 1, admins)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", ""))
}

func storagePatchRole(role models.Role) storage.UserPatch {
	return storage.UserPatch{Role: &role}
}
