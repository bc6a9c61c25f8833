package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/device-ops-dashboard/internal/middleware"
	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

// RegisterAdmin mounts the admin area. Every route requires an active
// ADMIN; write routes are rate limited.
func RegisterAdmin(e *echo.Echo, h Handlers, guard *middleware.Guard, limit echo.MiddlewareFunc) {
	g := e.Group("/admin", guard.Area("", model.RoleAdmin))

	g.GET("/dashboard", h.Inventory.Dashboard)

	// ---- Demo management ----
	g.GET("/demo-management", h.Demo.Options)
	g.GET("/demo-management/sessions", h.Demo.Sessions)
	g.POST("/demo-management/sessions", h.Demo.CreateSession, limit)

	// ---- Hospitals ----
	g.GET("/hospitals", h.Hospital.List)
	g.GET("/hospitals/form-options", h.Hospital.FormOptions)
	g.GET("/hospitals/pincode/:code", h.Hospital.Pincode)
	g.GET("/hospitals/:id", h.Hospital.Get)
	g.POST("/hospitals", h.Hospital.Create, limit)
	g.PUT("/hospitals/:id", h.Hospital.Update, limit)
	g.POST("/hospitals/:id/engineers", h.Hospital.AssignEngineer, limit)
	g.DELETE("/hospitals/:id/engineers/:engineerID", h.Hospital.RemoveEngineer, limit)
	g.POST("/hospitals/:id/devices", h.Hospital.AssignDevice, limit)
	g.DELETE("/hospitals/:id/devices/:deviceID", h.Hospital.ReturnDevice, limit)

	// ---- Regions ----
	g.GET("/regions", h.Region.Tree)
	g.POST("/regions", h.Region.Create, limit)
	g.PUT("/regions/:id", h.Region.Update, limit)
	g.DELETE("/regions/:id", h.Region.Delete, limit)

	// ---- Team ----
	g.GET("/team", h.Team.Directory)
	g.GET("/team/managers/:id", h.Team.Manager)
	g.POST("/team/users", h.Team.CreateUser, limit)
	g.PUT("/team/:id", h.Team.UpsertProfile, limit)
	g.DELETE("/team/:id", h.Team.DeleteUser, limit)
	g.POST("/team/:id/approve", h.Team.Approve, limit)
	g.POST("/team/:id/reject", h.Team.Reject, limit)
	g.POST("/team/:id/activate", h.Team.Activate, limit)
	g.POST("/team/:id/deactivate", h.Team.Deactivate, limit)
	g.POST("/team/:id/regional-manager", h.Team.AssignRegionalManager, limit)
	g.DELETE("/team/:id/regional-manager", h.Team.RemoveRegionalManager, limit)
	g.POST("/team/:id/hospitals", h.Team.AssignHospital, limit)
	g.DELETE("/team/:id/hospitals/:hospitalID", h.Team.RemoveHospital, limit)

	// ---- Devices and catalog ----
	g.GET("/devices", h.Catalog.Overview)
	g.GET("/devices/categories", h.Catalog.Categories)
	g.POST("/devices/categories", h.Catalog.CreateCategory, limit)
	g.GET("/devices/models", h.Catalog.Models)
	g.POST("/devices/models", h.Catalog.CreateModel, limit)
	g.PUT("/devices/models/:id", h.Catalog.UpdateModel, limit)
	g.DELETE("/devices/models/:id", h.Catalog.DeleteModel, limit)
	g.POST("/devices/units", h.Catalog.CreateDevice, limit)
	g.PUT("/devices/units/:id", h.Catalog.UpdateDevice, limit)
	g.DELETE("/devices/units/:id", h.Catalog.DeleteDevice, limit)

	// ---- Inventory ----
	g.GET("/inventory", h.Inventory.Summary)
	g.GET("/inventory/export", h.Inventory.Export)
	g.GET("/inventory/models/:id", h.Inventory.ModelDevices)
}
