package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/entregaszap/portaria/internal/config"
	"github.com/entregaszap/portaria/internal/identity"
	"github.com/entregaszap/portaria/internal/model"
	"github.com/entregaszap/portaria/internal/repository"
	"github.com/entregaszap/portaria/internal/utils"
)

// EmployeeHandler serves staff management. New accounts without a
// password start with the default one and are expected to change it.
type EmployeeHandler struct {
	Cfg       config.Config
	Adapter   *identity.Adapter
	Buildings *repository.BuildingRepo
	Employees *repository.EmployeeRepo
}

func NewEmployeeHandler(cfg config.Config, a *identity.Adapter, b *repository.BuildingRepo, e *repository.EmployeeRepo) *EmployeeHandler {
	return &EmployeeHandler{Cfg: cfg, Adapter: a, Buildings: b, Employees: e}
}

type employeeReq struct {
	Name       string `json:"name" validate:"required"`
	CPF        string `json:"cpf" validate:"required"`
	Password   string `json:"password"`
	Role       string `json:"role" validate:"required,oneof=porteiro sindico superadmin"`
	BuildingID int64  `json:"building_id" validate:"required,gt=0"`
}

// List returns every active staff member.
func (h *EmployeeHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	buildings, err := h.Buildings.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list staff failed"})
	}
	rows, err := h.Employees.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list staff failed"})
	}
	return c.JSON(http.StatusOK, h.Adapter.Employees(rows, buildings))
}

// Create registers a staff account.
func (h *EmployeeHandler) Create(c echo.Context) error {
	var req employeeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	buildingNative, err := nativeID(h.Adapter, req.BuildingID)
	if err != nil {
		return err
	}

	password := req.Password
	if password == "" {
		password = utils.DefaultPassword
	}
	hash, err := utils.HashPassword(password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create staff failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	row := identity.EmployeeInsert(model.Employee{
		Name:   req.Name,
		CPF:    onlyDigits(req.CPF),
		Role:   req.Role,
		Active: true,
	}, hash, buildingNative)
	if err := h.Employees.Create(ctx, row); err != nil {
		if errors.Is(err, repository.ErrCPFExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "cpf already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create staff failed"})
	}

	buildings, err := h.Buildings.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create staff failed"})
	}
	return c.JSON(http.StatusCreated, h.Adapter.Employee(row, buildings))
}

// Update rewrites a staff account. An empty password keeps the current
// one.
func (h *EmployeeHandler) Update(c echo.Context) error {
	id, err := localID(c, "id")
	if err != nil {
		return err
	}
	native, err := nativeID(h.Adapter, id)
	if err != nil {
		return err
	}

	var req employeeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	buildingNative, err := nativeID(h.Adapter, req.BuildingID)
	if err != nil {
		return err
	}

	hash := ""
	if req.Password != "" {
		hash, err = utils.HashPassword(req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update staff failed"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	row := identity.EmployeeInsert(model.Employee{
		Name:   req.Name,
		CPF:    onlyDigits(req.CPF),
		Role:   req.Role,
		Active: true,
	}, hash, buildingNative)
	row.ID = native
	if err := h.Employees.Update(ctx, row); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmployeeNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "staff not found"})
		case errors.Is(err, repository.ErrCPFExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "cpf already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update staff failed"})
	}

	got, err := h.Employees.GetByID(ctx, native)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update staff failed"})
	}
	buildings, err := h.Buildings.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update staff failed"})
	}
	return c.JSON(http.StatusOK, h.Adapter.Employee(got, buildings))
}

// Deactivate soft-deletes a staff account.
func (h *EmployeeHandler) Deactivate(c echo.Context) error {
	id, err := localID(c, "id")
	if err != nil {
		return err
	}
	native, err := nativeID(h.Adapter, id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Employees.Deactivate(ctx, native); err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "staff not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate staff failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
