package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/entregaszap/portaria/internal/config"
	"github.com/entregaszap/portaria/internal/identity"
	"github.com/entregaszap/portaria/internal/repository"
	"github.com/entregaszap/portaria/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints. Staff log in with
// CPF and password; the subject of the issued access token is the
// employee's backend UUID.
type AuthHandler struct {
	Cfg       config.Config
	Adapter   *identity.Adapter
	Employees *repository.EmployeeRepo
	Buildings *repository.BuildingRepo
	Sessions  *repository.SessionRepo
}

func NewAuthHandler(cfg config.Config, a *identity.Adapter, e *repository.EmployeeRepo, b *repository.BuildingRepo, s *repository.SessionRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Adapter: a, Employees: e, Buildings: b, Sessions: s}
}

// ----- DTOs -----

type loginReq struct {
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	Employee any       `json:"employee"`
	Access   tokenPart `json:"access"`
	Refresh  tokenPart `json:"refresh"`
}

// onlyDigits strips everything but digits from a CPF, so formatted and
// unformatted input match the same account.
func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Login verifies CPF and password and returns a token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	cpf := onlyDigits(req.CPF)
	if cpf == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cpf/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	emp, err := h.Employees.GetByCPF(ctx, cpf)
	if err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	if !emp.Active || !utils.VerifyPassword(emp.Senha, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	return h.issuePair(c, ctx, emp, http.StatusOK)
}

// Refresh trades a valid refresh token for a new pair. The old session
// is revoked so each refresh token works exactly once.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash := utils.HashRefreshRaw(req.RefreshToken)
	employeeID, err := h.Sessions.Validate(ctx, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}

	emp, err := h.Employees.GetByID(ctx, employeeID)
	if err != nil || !emp.Active {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	if err := h.Sessions.Revoke(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	return h.issuePair(c, ctx, emp, http.StatusOK)
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.Revoke(ctx, utils.HashRefreshRaw(req.RefreshToken)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated employee.
func (h *AuthHandler) Me(c echo.Context) error {
	employeeID, ok := c.Get("user_id").(string)
	if !ok || employeeID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	emp, err := h.Employees.GetByID(ctx, employeeID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	buildings, err := h.Buildings.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load profile failed"})
	}
	return c.JSON(http.StatusOK, h.Adapter.Employee(emp, buildings))
}

func (h *AuthHandler) issuePair(c echo.Context, ctx context.Context, emp *repository.EmployeeRow, status int) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, emp.ID, emp.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Sessions.Store(ctx, emp.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}

	buildings, err := h.Buildings.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load profile failed"})
	}
	return c.JSON(status, authResp{
		Employee: h.Adapter.Employee(emp, buildings),
		Access:   tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh:  tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}
