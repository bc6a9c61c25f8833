package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/device-ops-dashboard/internal/middleware"
	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

// RegisterField mounts the regional manager and field engineer areas.
// Members of another role are sent to their own dashboard; the engineer
// area sends everyone else to the admin dashboard.
func RegisterField(e *echo.Echo, h Handlers, guard *middleware.Guard) {
	m := e.Group("/manager", guard.Area("", model.RoleRegionalManager))
	m.GET("/dashboard", h.Field.ManagerDashboard)

	f := e.Group("/engineer", guard.Area("/admin/dashboard", model.RoleFieldEngineer))
	f.GET("/dashboard", h.Field.EngineerDashboard)
	f.GET("/hospitals/:id", h.Field.EngineerHospital)
	f.GET("/devices/:id", h.Field.EngineerDevice)
}
