package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entregaszap/portaria/internal/config"
	"github.com/entregaszap/portaria/internal/identity"
	"github.com/entregaszap/portaria/internal/repository"
	"github.com/entregaszap/portaria/internal/utils"
)

func testAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4,
	}
	return NewAuthHandler(cfg, identity.NewAdapter(),
		repository.NewEmployeeRepo(db),
		repository.NewBuildingRepo(db),
		repository.NewSessionRepo(db)), mock
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func buildingMockRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "nome", "endereco", "cidade", "estado", "cep", "webhook_url", "ativo"}).
		AddRow("b-1", "Residencial Aurora", "Rua A, 1", "São Paulo", "SP", "01000-000", nil, true)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	h, mock := testAuthHandler(t)
	e := echo.New()
	e.POST("/v1/auth/login", h.Login)

	hash, err := utils.HashPassword(utils.DefaultPassword, 4)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM funcionarios WHERE cpf = ?`)).
		WithArgs("12345678901").
		WillReturnRows(sqlmock.NewRows([]string{"id", "condominio_id", "nome", "cpf", "senha", "cargo", "ativo"}).
			AddRow("f-1", "b-1", "João Porteiro", "12345678901", hash, "porteiro", true))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessoes`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM condominios WHERE ativo = 1`)).
		WillReturnRows(buildingMockRows())

	// Formatted CPF must match the same account as raw digits.
	rec := postJSON(e, "/v1/auth/login", `{"cpf":"123.456.789-01","password":"123456"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Employee struct {
			Name     string `json:"name"`
			Role     string `json:"role"`
			Building string `json:"building"`
		} `json:"employee"`
		Access  struct{ Token string } `json:"access"`
		Refresh struct{ Token string } `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "João Porteiro", resp.Employee.Name)
	assert.Equal(t, "porteiro", resp.Employee.Role)
	assert.Equal(t, "Residencial Aurora", resp.Employee.Building)
	assert.NotEmpty(t, resp.Access.Token)
	assert.NotEmpty(t, resp.Refresh.Token)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginWrongPassword(t *testing.T) {
	h, mock := testAuthHandler(t)
	e := echo.New()
	e.POST("/v1/auth/login", h.Login)

	hash, err := utils.HashPassword("outrasenha", 4)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM funcionarios WHERE cpf = ?`)).
		WithArgs("12345678901").
		WillReturnRows(sqlmock.NewRows([]string{"id", "condominio_id", "nome", "cpf", "senha", "cargo", "ativo"}).
			AddRow("f-1", "b-1", "João Porteiro", "12345678901", hash, "porteiro", true))

	rec := postJSON(e, "/v1/auth/login", `{"cpf":"12345678901","password":"123456"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownCPF(t *testing.T) {
	h, mock := testAuthHandler(t)
	e := echo.New()
	e.POST("/v1/auth/login", h.Login)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM funcionarios WHERE cpf = ?`)).
		WithArgs("00000000000").
		WillReturnRows(sqlmock.NewRows([]string{"id", "condominio_id", "nome", "cpf", "senha", "cargo", "ativo"}))

	rec := postJSON(e, "/v1/auth/login", `{"cpf":"00000000000","password":"123456"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginInactiveEmployee(t *testing.T) {
	h, mock := testAuthHandler(t)
	e := echo.New()
	e.POST("/v1/auth/login", h.Login)

	hash, err := utils.HashPassword(utils.DefaultPassword, 4)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM funcionarios WHERE cpf = ?`)).
		WithArgs("12345678901").
		WillReturnRows(sqlmock.NewRows([]string{"id", "condominio_id", "nome", "cpf", "senha", "cargo", "ativo"}).
			AddRow("f-1", "b-1", "João Porteiro", "12345678901", hash, "porteiro", false))

	rec := postJSON(e, "/v1/auth/login", `{"cpf":"12345678901","password":"123456"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginMissingFields(t *testing.T) {
	h, _ := testAuthHandler(t)
	e := echo.New()
	e.POST("/v1/auth/login", h.Login)

	rec := postJSON(e, "/v1/auth/login", `{"cpf":"","password":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
