package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/entregaszap/portaria/internal/identity"
	"github.com/entregaszap/portaria/internal/model"
	"github.com/entregaszap/portaria/internal/repository"
)

// BuildingHandler serves the superadmin building management endpoints.
type BuildingHandler struct {
	Adapter   *identity.Adapter
	Buildings *repository.BuildingRepo
}

func NewBuildingHandler(a *identity.Adapter, b *repository.BuildingRepo) *BuildingHandler {
	return &BuildingHandler{Adapter: a, Buildings: b}
}

type buildingReq struct {
	Name   string `json:"name" validate:"required"`
	Street string `json:"street" validate:"required"`
	City   string `json:"city" validate:"required"`
	State  string `json:"state" validate:"required"`
	Zip    string `json:"zip" validate:"required"`
}

type webhookReq struct {
	WebhookURL string `json:"webhook_url" validate:"omitempty,url"`
}

// List returns every active building.
func (h *BuildingHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rows, err := h.Buildings.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list buildings failed"})
	}
	out := make([]model.Building, 0, len(rows))
	for _, row := range rows {
		out = append(out, h.Adapter.Building(row))
	}
	return c.JSON(http.StatusOK, out)
}

// Create registers a new building.
func (h *BuildingHandler) Create(c echo.Context) error {
	var req buildingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	row := identity.BuildingInsert(model.Building{
		Name: req.Name,
		Address: model.Address{
			Street: req.Street,
			City:   req.City,
			State:  req.State,
			Zip:    req.Zip,
		},
	})
	if err := h.Buildings.Create(ctx, row); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create building failed"})
	}
	return c.JSON(http.StatusCreated, h.Adapter.Building(row))
}

// Update rewrites a building's name and address.
func (h *BuildingHandler) Update(c echo.Context) error {
	id, err := localID(c, "id")
	if err != nil {
		return err
	}
	native, err := nativeID(h.Adapter, id)
	if err != nil {
		return err
	}

	var req buildingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	row := identity.BuildingInsert(model.Building{
		Name: req.Name,
		Address: model.Address{
			Street: req.Street,
			City:   req.City,
			State:  req.State,
			Zip:    req.Zip,
		},
	})
	row.ID = native
	if err := h.Buildings.Update(ctx, row); err != nil {
		if errors.Is(err, repository.ErrBuildingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "building not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update building failed"})
	}

	got, err := h.Buildings.GetByID(ctx, native)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update building failed"})
	}
	return c.JSON(http.StatusOK, h.Adapter.Building(got))
}

// UpdateWebhook sets or clears the per-building webhook override. An
// empty url reverts the building to the default endpoint.
func (h *BuildingHandler) UpdateWebhook(c echo.Context) error {
	id, err := localID(c, "id")
	if err != nil {
		return err
	}
	native, err := nativeID(h.Adapter, id)
	if err != nil {
		return err
	}

	var req webhookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Buildings.UpdateWebhook(ctx, native, req.WebhookURL); err != nil {
		if errors.Is(err, repository.ErrBuildingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "building not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update webhook failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Deactivate soft-deletes a building.
func (h *BuildingHandler) Deactivate(c echo.Context) error {
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

	if err := h.Buildings.Deactivate(ctx, native); err != nil {
		if errors.Is(err, repository.ErrBuildingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "building not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate building failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
