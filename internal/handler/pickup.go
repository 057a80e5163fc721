package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/entregaszap/portaria/internal/repository"
	"github.com/entregaszap/portaria/internal/workflow"
)

// PickupHandler serves the retrieval-code lookup and confirmation flow.
type PickupHandler struct {
	Service *workflow.PickupService
}

func NewPickupHandler(s *workflow.PickupService) *PickupHandler {
	return &PickupHandler{Service: s}
}

// Persons returns the fixed "who collected it" vocabulary.
func (h *PickupHandler) Persons(c echo.Context) error {
	return c.JSON(http.StatusOK, workflow.PickupPersons)
}

// Lookup finds the pending delivery carrying ?code=. Codes shorter than
// five digits are rejected without touching the store.
func (h *PickupHandler) Lookup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	match, err := h.Service.Lookup(ctx, c.QueryParam("code"))
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrCodeTooShort):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrDeliveryNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no pending delivery with this code"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, match)
}

type confirmReq struct {
	Code       string `json:"code" validate:"required,len=5"`
	PickedUpBy string `json:"picked_up_by" validate:"required"`
}

// Confirm marks the pending delivery with the given code as picked up
// and notifies the resident. A second confirmation of the same code is
// a conflict; the record never moves back to pending.
func (h *PickupHandler) Confirm(c echo.Context) error {
	var req confirmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 6*dbTimeout)
	defer cancel()

	match, err := h.Service.Confirm(ctx, req.Code, req.PickedUpBy)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDeliveryNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no pending delivery with this code"})
		case errors.Is(err, repository.ErrNotPending):
			return c.JSON(http.StatusConflict, echo.Map{"error": "delivery already picked up or cancelled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}
	return c.JSON(http.StatusOK, match)
}
