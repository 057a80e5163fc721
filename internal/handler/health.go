// Package handler contains the HTTP handlers. Each handler struct
// bundles the repositories and workflow services its endpoints need;
// wiring happens at startup so tests can construct handlers with fakes.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness endpoint used by load balancers.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
