package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/entregaszap/portaria/internal/csvio"
	"github.com/entregaszap/portaria/internal/identity"
	"github.com/entregaszap/portaria/internal/model"
	"github.com/entregaszap/portaria/internal/repository"
)

// ResidentHandler serves resident management: CRUD plus the
// semicolon-delimited list import/export the síndicos exchange.
type ResidentHandler struct {
	Adapter   *identity.Adapter
	Buildings *repository.BuildingRepo
	Residents *repository.ResidentRepo
}

func NewResidentHandler(a *identity.Adapter, b *repository.BuildingRepo, r *repository.ResidentRepo) *ResidentHandler {
	return &ResidentHandler{Adapter: a, Buildings: b, Residents: r}
}

type residentReq struct {
	Name       string `json:"name" validate:"required"`
	Apartment  string `json:"apartment" validate:"required"`
	Block      string `json:"block"`
	Phone      string `json:"phone" validate:"required"`
	BuildingID int64  `json:"building_id" validate:"required,gt=0"`
}

// List returns active residents, optionally scoped to one building via
// ?building_id=.
func (h *ResidentHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	buildings, err := h.Buildings.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list residents failed"})
	}

	var rows []*repository.ResidentRow
	if q := c.QueryParam("building_id"); q != "" {
		id, err := strconv.ParseInt(q, 10, 64)
		if err != nil || id <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid building_id"})
		}
		native, err := nativeID(h.Adapter, id)
		if err != nil {
			return err
		}
		rows, err = h.Residents.ListByBuilding(ctx, native)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list residents failed"})
		}
	} else {
		rows, err = h.Residents.ListActive(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list residents failed"})
		}
	}

	return c.JSON(http.StatusOK, h.Adapter.Residents(rows, buildings))
}

// Create registers a resident in a building.
func (h *ResidentHandler) Create(c echo.Context) error {
	var req residentReq
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

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	row := identity.ResidentInsert(model.Resident{
		Name:      req.Name,
		Apartment: req.Apartment,
		Block:     req.Block,
		Phone:     req.Phone,
		Active:    true,
	}, buildingNative)
	if err := h.Residents.Create(ctx, row); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create resident failed"})
	}

	buildings, err := h.Buildings.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create resident failed"})
	}
	return c.JSON(http.StatusCreated, h.Adapter.Resident(row, buildings))
}

// Update rewrites a resident's fields, including moving them to another
// building.
func (h *ResidentHandler) Update(c echo.Context) error {
	id, err := localID(c, "id")
	if err != nil {
		return err
	}
	native, err := nativeID(h.Adapter, id)
	if err != nil {
		return err
	}

	var req residentReq
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

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	row := identity.ResidentInsert(model.Resident{
		Name:      req.Name,
		Apartment: req.Apartment,
		Block:     req.Block,
		Phone:     req.Phone,
		Active:    true,
	}, buildingNative)
	row.ID = native
	if err := h.Residents.Update(ctx, row); err != nil {
		if errors.Is(err, repository.ErrResidentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resident not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update resident failed"})
	}

	got, err := h.Residents.GetByID(ctx, native)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update resident failed"})
	}
	buildings, err := h.Buildings.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update resident failed"})
	}
	return c.JSON(http.StatusOK, h.Adapter.Resident(got, buildings))
}

// Deactivate soft-deletes a resident.
func (h *ResidentHandler) Deactivate(c echo.Context) error {
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

	if err := h.Residents.Deactivate(ctx, native); err != nil {
		if errors.Is(err, repository.ErrResidentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resident not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate resident failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Export streams the active residents as the semicolon-delimited list.
func (h *ResidentHandler) Export(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	buildings, err := h.Buildings.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}
	rows, err := h.Residents.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}

	text := csvio.ExportResidents(h.Adapter.Residents(rows, buildings))
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="moradores.csv"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(text))
}

type importResp struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}

// Import parses an uploaded resident list and inserts the rows. Each
// row names its building; rows whose building is unknown are skipped
// and reported, never failed, so one bad line cannot sink an import.
func (h *ResidentHandler) Import(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file required"})
	}
	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable file"})
	}
	defer src.Close()

	raw, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable file"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*dbTimeout)
	defer cancel()

	buildings, err := h.Buildings.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "import failed"})
	}
	byName := make(map[string]string, len(buildings))
	for _, b := range buildings {
		byName[strings.ToLower(b.Name)] = b.ID
	}

	resp := importResp{}
	for _, m := range csvio.ParseResidents(string(raw)) {
		buildingID, ok := byName[strings.ToLower(m.Building)]
		if !ok {
			resp.Skipped++
			resp.Warnings = append(resp.Warnings, "unknown building: "+m.Building)
			continue
		}
		row := identity.ResidentInsert(m, buildingID)
		if err := h.Residents.Create(ctx, row); err != nil {
			resp.Skipped++
			resp.Warnings = append(resp.Warnings, "insert failed: "+m.Name)
			continue
		}
		resp.Imported++
	}
	return c.JSON(http.StatusOK, resp)
}
