package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entregaszap/portaria/internal/model"
	"github.com/entregaszap/portaria/internal/utils"
)

const testSecret = "test-secret"

func protected(t *testing.T, roles ...string) *echo.Echo {
	t.Helper()
	e := echo.New()
	g := e.Group("/v1", JWTAuth(testSecret), RequireRole(roles...))
	g.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id": c.Get("user_id"),
			"role":    c.Get("role"),
		})
	})
	return e
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	e := protected(t, model.RolePorteiro)
	tok, err := utils.NewAccessToken(testSecret, "f-1", model.RolePorteiro, 15)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"f-1"`)
	assert.Contains(t, rec.Body.String(), `"role":"porteiro"`)
}

func TestJWTAuthRejectsMissingToken(t *testing.T) {
	e := protected(t, model.RolePorteiro)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	e := protected(t, model.RolePorteiro)
	tok, err := utils.NewAccessToken("other-secret", "f-1", model.RolePorteiro, 15)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleForbidsOtherRoles(t *testing.T) {
	e := protected(t, model.RoleSuperadmin)
	tok, err := utils.NewAccessToken(testSecret, "f-1", model.RolePorteiro, 15)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
