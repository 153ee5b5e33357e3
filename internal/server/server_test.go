package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/finance-api/internal/config"
	"github.com/hongminglow/finance-api/internal/storage/memory"
)

func testRoutes(t *testing.T) http.Handler {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := config.Config{
		Port:              "0",
		StorageBackend:    config.BackendMemory,
		JWTSecret:         "server-test-secret",
		JWTIssuer:         "finance-api",
		JWTTTL:            time.Hour,
		CORSOrigins:       []string{"https://app.example.com"},
		SignupAdminPolicy: "always",
	}
	return Routes(cfg, memory.New(), log)
}

func send(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRegisterLoginAndRecordMovements(t *testing.T) {
	h := testRoutes(t)

	rr := send(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var user struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))
	assert.Equal(t, "ADMIN", user.Role)

	rr = send(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &login))

	for _, m := range []map[string]any{
		{"amount": 1000, "concept": "Salary", "date": "2026-01-01", "type": "INCOME", "userId": user.ID},
		{"amount": "250.25", "concept": "Rent", "date": "2026-01-05", "type": "EXPENSE", "userId": user.ID},
	} {
		rr = send(t, h, http.MethodPost, "/movements", login.Token, m)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr = send(t, h, http.MethodGet, "/reports", login.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var rep struct {
		Balance float64 `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rep))
	assert.InDelta(t, 749.75, rep.Balance, 1e-9)

	rr = send(t, h, http.MethodGet, "/reports/csv", login.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "\ufeffid,concept,amount,type,date,user\n"))
}

func TestUnknownRoute(t *testing.T) {
	h := testRoutes(t)

	rr := send(t, h, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rr.Body.String())
}

func TestMovementsWithoutTokenAreRejected(t *testing.T) {
	h := testRoutes(t)

	rr := send(t, h, http.MethodGet, "/movements", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = send(t, h, http.MethodGet, "/movements", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := testRoutes(t)

	req := httptest.NewRequest(http.MethodOptions, "/movements", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	h := testRoutes(t)
	send(t, h, http.MethodGet, "/health", "", nil)

	rr := send(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "finance_http_requests_total")
}
