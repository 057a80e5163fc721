package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/entregaszap/portaria/internal/identity"
	"github.com/entregaszap/portaria/internal/model"
	"github.com/entregaszap/portaria/internal/repository"
	"github.com/entregaszap/portaria/internal/workflow"
)

// ReminderHandler serves the reminder screen: the pending/sent buckets,
// batch sends and resends, session exclusion, and the stale-delivery
// candidate query.
type ReminderHandler struct {
	Adapter    *identity.Adapter
	Service    *workflow.ReminderService
	Deliveries *repository.DeliveryRepo
}

func NewReminderHandler(a *identity.Adapter, s *workflow.ReminderService, d *repository.DeliveryRepo) *ReminderHandler {
	return &ReminderHandler{Adapter: a, Service: s, Deliveries: d}
}

func (h *ReminderHandler) buildingScope(c echo.Context) (string, error) {
	q := c.QueryParam("building_id")
	if q == "" {
		return "", nil
	}
	id, err := strconv.ParseInt(q, 10, 64)
	if err != nil || id <= 0 {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid building_id")
	}
	return nativeID(h.Adapter, id)
}

// Pending lists deliveries still waiting for their first reminder in
// this session.
func (h *ReminderHandler) Pending(c echo.Context) error {
	buildingNative, err := h.buildingScope(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	items, err := h.Service.Pending(ctx, buildingNative)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reminders failed"})
	}
	return c.JSON(http.StatusOK, items)
}

// Sent lists deliveries already reminded in this session.
func (h *ReminderHandler) Sent(c echo.Context) error {
	buildingNative, err := h.buildingScope(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	items, err := h.Service.Sent(ctx, buildingNative)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reminders failed"})
	}
	return c.JSON(http.StatusOK, items)
}

type reminderSendReq struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}

// Send posts a reminder for each selected delivery. Failed items stay
// in the pending bucket for retry.
func (h *ReminderHandler) Send(c echo.Context) error {
	return h.dispatch(c, h.Service.Send)
}

// Resend re-sends reminders for items already in the sent bucket.
func (h *ReminderHandler) Resend(c echo.Context) error {
	return h.dispatch(c, h.Service.Resend)
}

func (h *ReminderHandler) dispatch(c echo.Context, fn func(context.Context, []int64) (*workflow.ReminderResult, error)) error {
	var req reminderSendReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := fn(c.Request().Context(), req.IDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send reminders failed"})
	}
	return c.JSON(http.StatusOK, result)
}

// Exclude hides a delivery from the reminder view for the rest of the
// session.
func (h *ReminderHandler) Exclude(c echo.Context) error {
	id, err := localID(c, "id")
	if err != nil {
		return err
	}
	h.Service.Exclude(id)
	return c.NoContent(http.StatusNoContent)
}

// Candidates returns pending deliveries whose age crossed ?hours=
// (default 24) and whose last reminder, if any, is older than the same
// cutoff. The síndico uses it to pick what to nudge.
func (h *ReminderHandler) Candidates(c echo.Context) error {
	hours := 24
	if q := c.QueryParam("hours"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hours"})
		}
		hours = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	details, err := h.Deliveries.ListNeedingReminder(ctx, hours)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list candidates failed"})
	}

	out := make([]model.Delivery, 0, len(details))
	for _, d := range details {
		out = append(out, h.Adapter.Delivery(d))
	}
	return c.JSON(http.StatusOK, out)
}
