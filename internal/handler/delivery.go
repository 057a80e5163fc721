package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/entregaszap/portaria/internal/identity"
	"github.com/entregaszap/portaria/internal/model"
	"github.com/entregaszap/portaria/internal/notify"
	"github.com/entregaszap/portaria/internal/repository"
	"github.com/entregaszap/portaria/internal/storage"
	"github.com/entregaszap/portaria/internal/workflow"
)

// DeliveryHandler serves the front-desk registration flow: form
// sessions with their stable retrieval codes, the register-and-notify
// batch, the pending list, cancellation and photo uploads.
type DeliveryHandler struct {
	Adapter    *identity.Adapter
	Buildings  *repository.BuildingRepo
	Residents  *repository.ResidentRepo
	Deliveries *repository.DeliveryRepo
	Registrar  *workflow.Registrar
	Photos     *storage.PhotoStore

	mu    sync.Mutex
	forms map[string]*workflow.FormSession
}

func NewDeliveryHandler(
	a *identity.Adapter,
	b *repository.BuildingRepo,
	r *repository.ResidentRepo,
	d *repository.DeliveryRepo,
	reg *workflow.Registrar,
	photos *storage.PhotoStore,
) *DeliveryHandler {
	return &DeliveryHandler{
		Adapter:    a,
		Buildings:  b,
		Residents:  r,
		Deliveries: d,
		Registrar:  reg,
		Photos:     photos,
		forms:      make(map[string]*workflow.FormSession),
	}
}

// ----- form sessions -----

// OpenForm starts a registration form and returns its id. The form
// holds the retrieval code once the package service is selected, so the
// code printed on the package matches the one submitted later.
func (h *DeliveryHandler) OpenForm(c echo.Context) error {
	id := uuid.NewString()
	h.mu.Lock()
	h.forms[id] = h.Registrar.NewFormSession()
	h.mu.Unlock()
	return c.JSON(http.StatusCreated, echo.Map{"form_id": id})
}

func (h *DeliveryHandler) form(id string) (*workflow.FormSession, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.forms[id]
	return s, ok
}

func (h *DeliveryHandler) closeForm(id string) {
	h.mu.Lock()
	delete(h.forms, id)
	h.mu.Unlock()
}

type selectServiceReq struct {
	Service string `json:"service" validate:"required"`
}

// SelectService records the form's service choice and returns the
// retrieval code for package deliveries (empty for other services).
// Re-selecting packages keeps the code already shown.
func (h *DeliveryHandler) SelectService(c echo.Context) error {
	session, ok := h.form(c.Param("form"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown form"})
	}

	var req selectServiceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	code, err := session.SelectService(ctx, req.Service)
	if err != nil {
		if errors.Is(err, workflow.ErrCodeSpaceExhausted) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "no retrieval code available"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign code failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"code": code})
}

// ----- registration -----

type registerReq struct {
	FormID      string  `json:"form_id" validate:"required"`
	BuildingID  int64   `json:"building_id" validate:"required,gt=0"`
	ResidentIDs []int64 `json:"resident_ids" validate:"required,min=1"`
	Service     string  `json:"service" validate:"required"`
	PhotoURL    string  `json:"photo_url"`
	Observation string  `json:"observation"`
}

// Register notifies the selected residents and, for packages, records a
// delivery per notified resident. The batch runs sequentially inside
// the request; partial failure is reported per resident, not as an
// error. The form resets only when at least one send succeeded.
func (h *DeliveryHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, ok := h.form(req.FormID)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown form"})
	}

	buildingNative, err := nativeID(h.Adapter, req.BuildingID)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	buildingRow, err := h.Buildings.GetByID(ctx, buildingNative)
	if err != nil {
		if errors.Is(err, repository.ErrBuildingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "building not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "register failed"})
	}
	building := h.Adapter.Building(buildingRow)

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
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "register failed"})
		}
		residents = append(residents, h.Adapter.Resident(row, buildings))
	}

	code := ""
	if req.Service == notify.ServicePackage {
		code = session.Code()
		if code == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "select the package service first"})
		}
	}

	result := h.Registrar.Register(ctx, workflow.RegisterRequest{
		Building:    building,
		Residents:   residents,
		Service:     req.Service,
		Code:        code,
		PhotoURL:    req.PhotoURL,
		Observation: req.Observation,
	})

	if result.Succeeded > 0 {
		session.Reset()
		h.closeForm(req.FormID)
	}
	return c.JSON(http.StatusOK, result)
}

// ----- listing and cancellation -----

// List returns deliveries, newest first. ?status= filters on the API
// vocabulary (pending, picked-up, cancelled; default pending) and
// ?building_id= scopes to one building.
func (h *DeliveryHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	buildingNative := ""
	if q := c.QueryParam("building_id"); q != "" {
		id, err := strconv.ParseInt(q, 10, 64)
		if err != nil || id <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid building_id"})
		}
		native, err := nativeID(h.Adapter, id)
		if err != nil {
			return err
		}
		buildingNative = native
	}

	var (
		details []*repository.DeliveryDetail
		err     error
	)
	switch model.DeliveryStatus(c.QueryParam("status")) {
	case "", model.StatusPending:
		details, err = h.Deliveries.ListPending(ctx, buildingNative)
	case model.StatusPickedUp:
		details, err = h.Deliveries.ListByStatus(ctx, repository.DBStatusPickedUp, buildingNative)
	case model.StatusCancelled:
		details, err = h.Deliveries.ListByStatus(ctx, repository.DBStatusCancelled, buildingNative)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list deliveries failed"})
	}

	out := make([]model.Delivery, 0, len(details))
	for _, d := range details {
		out = append(out, h.Adapter.Delivery(d))
	}
	return c.JSON(http.StatusOK, out)
}

type cancelReq struct {
	Reason string `json:"reason" validate:"required"`
}

// Cancel moves a pending delivery to cancelled. Cancelled deliveries
// stay visible in reports but never match a retrieval code again.
func (h *DeliveryHandler) Cancel(c echo.Context) error {
	id, err := localID(c, "id")
	if err != nil {
		return err
	}
	native, err := nativeID(h.Adapter, id)
	if err != nil {
		return err
	}

	var req cancelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Deliveries.Cancel(ctx, native, req.Reason); err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "delivery is not pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- photos -----

// UploadPhoto stores a package photo and returns its public URL for the
// registration form.
func (h *DeliveryHandler) UploadPhoto(c echo.Context) error {
	file, err := c.FormFile("photo")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "photo required"})
	}
	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable photo"})
	}
	defer src.Close()

	url, err := h.Photos.Save(src, file.Filename)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save photo failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"photo_url": url})
}

type deletePhotoReq struct {
	PhotoURL string `json:"photo_url" validate:"required"`
}

// DeletePhoto discards an uploaded photo that was never attached to a
// submitted registration.
func (h *DeliveryHandler) DeletePhoto(c echo.Context) error {
	var req deletePhotoReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.Photos.Delete(req.PhotoURL); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete photo failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
