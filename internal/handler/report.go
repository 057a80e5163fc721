package handler

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/entregaszap/portaria/internal/identity"
	"github.com/entregaszap/portaria/internal/repository"
)

// ReportHandler serves the síndico report screens: per-status counts
// over a date range and delivery history exports in CSV and XLSX.
type ReportHandler struct {
	Adapter    *identity.Adapter
	Buildings  *repository.BuildingRepo
	Deliveries *repository.DeliveryRepo
}

func NewReportHandler(a *identity.Adapter, b *repository.BuildingRepo, d *repository.DeliveryRepo) *ReportHandler {
	return &ReportHandler{Adapter: a, Buildings: b, Deliveries: d}
}

type statsResp struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	PickedUp  int `json:"picked_up"`
	Cancelled int `json:"cancelled"`
}

// dateParam parses an optional yyyy-mm-dd query parameter. endOfDay
// pushes the time to 23:59:59 so a single-day range covers the day.
func dateParam(c echo.Context, name string, endOfDay bool) (time.Time, error) {
	q := c.QueryParam(name)
	if q == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", q)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

// Stats returns the per-status delivery counts for one building over an
// optional ?from=/?to= date range.
func (h *ReportHandler) Stats(c echo.Context) error {
	id, err := strconv.ParseInt(c.QueryParam("building_id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "building_id required"})
	}
	native, err := nativeID(h.Adapter, id)
	if err != nil {
		return err
	}
	from, err := dateParam(c, "from", false)
	if err != nil {
		return err
	}
	to, err := dateParam(c, "to", true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	st, err := h.Deliveries.Stats(ctx, native, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stats failed"})
	}
	return c.JSON(http.StatusOK, statsResp{
		Total:     st.Total,
		Pending:   st.Pending,
		PickedUp:  st.PickedUp,
		Cancelled: st.Cancelled,
	})
}

func (h *ReportHandler) listForExport(c echo.Context) ([]*repository.DeliveryDetail, error) {
	buildingNative := ""
	if q := c.QueryParam("building_id"); q != "" {
		id, err := strconv.ParseInt(q, 10, 64)
		if err != nil || id <= 0 {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid building_id")
		}
		buildingNative, err = nativeID(h.Adapter, id)
		if err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	return h.Deliveries.ListAll(ctx, buildingNative)
}

var exportHeader = []string{
	"codigo", "morador", "apartamento", "condominio", "status",
	"recebida_em", "retirada_em", "retirado_por", "observacoes",
}

func exportRow(d *repository.DeliveryDetail) []string {
	pickedUp := ""
	if d.PickedUpAt.Valid {
		pickedUp = d.PickedUpAt.Time.Format("02/01/2006 15:04")
	}
	return []string{
		d.Code,
		d.Resident.Name,
		d.Resident.Apartment,
		d.Building.Name,
		d.Status,
		d.ReceivedAt.Format("02/01/2006 15:04"),
		pickedUp,
		d.PickupPerson.String,
		d.Observation.String,
	}
}

// ExportCSV streams the delivery history as semicolon-delimited lines,
// the same convention as the resident list.
func (h *ReportHandler) ExportCSV(c echo.Context) error {
	details, err := h.listForExport(c)
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}

	lines := make([]string, 0, len(details)+1)
	lines = append(lines, strings.Join(exportHeader, ";"))
	for _, d := range details {
		lines = append(lines, strings.Join(exportRow(d), ";"))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="entregas.csv"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(strings.Join(lines, "\n")))
}

// ExportXLSX streams the delivery history as a spreadsheet.
func (h *ReportHandler) ExportXLSX(c echo.Context) error {
	details, err := h.listForExport(c)
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Entregas"
	f.SetSheetName("Sheet1", sheet)
	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
	}
	for i, d := range details {
		for col, value := range exportRow(d) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="entregas.xlsx"`)
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
