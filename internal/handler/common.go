package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/entregaszap/portaria/internal/identity"
)

// dbTimeout bounds every per-request database interaction.
const dbTimeout = 5 * time.Second

// localID parses an :id path parameter into the dashboard's integer id
// space.
func localID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// nativeID resolves a local integer id back to the backend UUID. Ids
// this process never handed out (including those synthesized for
// local-only deliveries) resolve to a 404.
func nativeID(a *identity.Adapter, id int64) (string, error) {
	native, ok := a.ToNativeID(id)
	if !ok {
		return "", echo.NewHTTPError(http.StatusNotFound, "unknown id")
	}
	return native, nil
}
