package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/entregaszap/portaria/internal/identity"
	"github.com/entregaszap/portaria/internal/model"
	"github.com/entregaszap/portaria/internal/repository"
	"github.com/entregaszap/portaria/internal/workflow"
)

// BroadcastHandler serves síndico announcements to selected residents.
// The manager name on the message is the authenticated employee's.
type BroadcastHandler struct {
	Adapter     *identity.Adapter
	Buildings   *repository.BuildingRepo
	Residents   *repository.ResidentRepo
	Employees   *repository.EmployeeRepo
	Broadcaster *workflow.Broadcaster
}

func NewBroadcastHandler(
	a *identity.Adapter,
	b *repository.BuildingRepo,
	r *repository.ResidentRepo,
	e *repository.EmployeeRepo,
	bc *workflow.Broadcaster,
) *BroadcastHandler {
	return &BroadcastHandler{Adapter: a, Buildings: b, Residents: r, Employees: e, Broadcaster: bc}
}

type broadcastReq struct {
	BuildingID  int64   `json:"building_id" validate:"required,gt=0"`
	ResidentIDs []int64 `json:"resident_ids" validate:"required,min=1"`
	Text        string  `json:"text" validate:"required"`
}

// Send posts the announcement to each selected resident in turn.
func (h *BroadcastHandler) Send(c echo.Context) error {
	var req broadcastReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	employeeID, _ := c.Get("user_id").(string)
	if employeeID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}

	ctx := c.Request().Context()
	manager, err := h.Employees.GetByID(ctx, employeeID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}

	buildingNative, err := nativeID(h.Adapter, req.BuildingID)
	if err != nil {
		return err
	}
	buildingRow, err := h.Buildings.GetByID(ctx, buildingNative)
	if err != nil {
		if errors.Is(err, repository.ErrBuildingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "building not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "broadcast failed"})
	}

	buildings := []*repository.BuildingRow{buildingRow}
	residents := make([]model.Resident, 0, len(req.ResidentIDs))
	for _, rid := range req.ResidentIDs {
		native, err := nativeID(h.Adapter, rid)
		if err != nil {
			return err
		}
		row, err := h.Residents.GetByID(ctx, native)
		if err != nil {
			if errors.Is(err, repository.ErrResidentNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "resident not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "broadcast failed"})
		}
		residents = append(residents, h.Adapter.Resident(row, buildings))
	}

	result := h.Broadcaster.Send(ctx, workflow.BroadcastRequest{
		Building:  h.Adapter.Building(buildingRow),
		Residents: residents,
		Manager:   manager.Name,
		Text:      req.Text,
	})
	return c.JSON(http.StatusOK, result)
}
