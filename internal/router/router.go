// Package router wires the HTTP routes to their handlers and applies
// the auth middleware per role group. Porteiros run the front desk
// (registration, pickup, reminders); síndicos additionally manage
// residents, broadcasts and reports; superadmins manage buildings and
// staff.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/entregaszap/portaria/internal/config"
	"github.com/entregaszap/portaria/internal/handler"
	"github.com/entregaszap/portaria/internal/middleware"
	"github.com/entregaszap/portaria/internal/model"
)

// Handlers collects every handler the router mounts.
type Handlers struct {
	Auth       *handler.AuthHandler
	Buildings  *handler.BuildingHandler
	Residents  *handler.ResidentHandler
	Employees  *handler.EmployeeHandler
	Deliveries *handler.DeliveryHandler
	Pickups    *handler.PickupHandler
	Reminders  *handler.ReminderHandler
	Reports    *handler.ReportHandler
	Broadcasts *handler.BroadcastHandler
}

// Register mounts every route. rdb may be nil; the cache and rate-limit
// middleware then pass requests through untouched.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client, photoDir string) {
	e.GET("/healthz", handler.Health)
	e.Static(cfg.PhotoBaseURL, photoDir)

	rate := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Unauthenticated auth endpoints.
	auth := e.Group("/v1/auth", rate)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Everything past this point needs a valid access token.
	anyStaff := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), rate,
		middleware.RequireRole(model.RolePorteiro, model.RoleSindico, model.RoleSuperadmin))
	anyStaff.GET("/me", h.Auth.Me)
	anyStaff.GET("/buildings", h.Buildings.List, cache)
	anyStaff.GET("/residents", h.Residents.List, cache)

	// Front desk: registration form, deliveries, pickups, reminders.
	desk := anyStaff
	desk.POST("/deliveries/form", h.Deliveries.OpenForm)
	desk.POST("/deliveries/form/:form/service", h.Deliveries.SelectService)
	desk.POST("/deliveries", h.Deliveries.Register)
	desk.GET("/deliveries", h.Deliveries.List)
	desk.POST("/deliveries/:id/cancel", h.Deliveries.Cancel)
	desk.POST("/deliveries/photo", h.Deliveries.UploadPhoto)
	desk.DELETE("/deliveries/photo", h.Deliveries.DeletePhoto)

	desk.GET("/pickups/persons", h.Pickups.Persons, cache)
	desk.GET("/pickups/lookup", h.Pickups.Lookup)
	desk.POST("/pickups/confirm", h.Pickups.Confirm)

	desk.GET("/reminders/pending", h.Reminders.Pending)
	desk.GET("/reminders/sent", h.Reminders.Sent)
	desk.GET("/reminders/candidates", h.Reminders.Candidates)
	desk.POST("/reminders/send", h.Reminders.Send)
	desk.POST("/reminders/resend", h.Reminders.Resend)
	desk.DELETE("/reminders/:id", h.Reminders.Exclude)

	// Síndico and up: resident management, broadcasts, reports.
	manage := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), rate,
		middleware.RequireRole(model.RoleSindico, model.RoleSuperadmin))
	manage.POST("/residents", h.Residents.Create)
	manage.PUT("/residents/:id", h.Residents.Update)
	manage.DELETE("/residents/:id", h.Residents.Deactivate)
	manage.GET("/residents/export", h.Residents.Export)
	manage.POST("/residents/import", h.Residents.Import)

	manage.POST("/broadcasts", h.Broadcasts.Send)

	manage.PUT("/buildings/:id/webhook", h.Buildings.UpdateWebhook)

	manage.GET("/reports/stats", h.Reports.Stats)
	manage.GET("/reports/deliveries.csv", h.Reports.ExportCSV)
	manage.GET("/reports/deliveries.xlsx", h.Reports.ExportXLSX)

	// Superadmin only: buildings and staff.
	admin := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), rate,
		middleware.RequireRole(model.RoleSuperadmin))
	admin.POST("/buildings", h.Buildings.Create)
	admin.PUT("/buildings/:id", h.Buildings.Update)
	admin.DELETE("/buildings/:id", h.Buildings.Deactivate)

	admin.GET("/staff", h.Employees.List)
	admin.POST("/staff", h.Employees.Create)
	admin.PUT("/staff/:id", h.Employees.Update)
	admin.DELETE("/staff/:id", h.Employees.Deactivate)
}
