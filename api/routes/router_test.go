package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/greencycle-tech/ewaste-backend/pkg/auth"
	"github.com/greencycle-tech/ewaste-backend/pkg/config"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
)

type allowAllSessions struct{}

func (allowAllSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func testRouter(t *testing.T) (http.Handler, config.JWTConfig) {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "ewaste-test",
			ExpirationMinutes: 15,
		},
	}
	router := NewRouter(RouterParams{
		Config:   cfg,
		Sessions: allowAllSessions{},
	})
	return router, cfg.JWT
}

func mintToken(t *testing.T, cfg config.JWTConfig, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	require.NoError(t, err)
	return token
}

func TestRouterHealthLive(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Env"))
}

func TestRouterRequiresAuthOnAPIRoutes(t *testing.T) {
	router, _ := testRouter(t)

	for _, path := range []string{
		"/api/v1/orders",
		"/api/v1/tickets",
		"/api/v1/notifications",
		"/api/v1/assignments/statistics",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouterGatesAssignmentsToStaff(t *testing.T) {
	router, jwtCfg := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assignments/statistics", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwtCfg, enums.UserRoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouterGatesAgentRoutesToAgents(t *testing.T) {
	router, jwtCfg := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agent/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwtCfg, enums.UserRoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
