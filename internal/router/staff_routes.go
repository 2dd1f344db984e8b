package router

import (
	"github.com/labstack/echo/v4"

	"github.com/dernsupport/service-desk/internal/handler"
	"github.com/dernsupport/service-desk/internal/middleware"
	"github.com/dernsupport/service-desk/internal/model"
)

// RegisterStaff registers the master and manager surfaces.  Masters see
// their own assignment queue, the inventory and the notification feed;
// managers additionally run the catalog, the request pipeline, users,
// payments and support.
func RegisterStaff(e *echo.Echo, jwtSecret string,
	req *handler.RequestHandler, inv *handler.InventoryHandler,
	st *handler.ServiceTypeHandler, adm *handler.AdminHandler,
	pay *handler.PaymentHandler, sup *handler.SupportHandler,
	nt *handler.NotificationHandler) {

	// Masters and managers share the working surface.
	staff := e.Group("",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleMaster, model.RoleManager),
	)
	staff.GET("/services/assignments", req.Assignments)
	staff.GET("/services/assignments/completed", req.CompletedAssignments)
	staff.PUT("/services/requests/:id/status", req.UpdateStatus)

	staff.GET("/inventory", inv.List)
	staff.GET("/inventory/categories", inv.Categories)
	staff.GET("/inventory/stats", inv.Stats)
	staff.GET("/inventory/:id", inv.Get)
	staff.GET("/inventory/:id/usage", inv.Usage)
	staff.POST("/inventory/:id/use", inv.Use)

	staff.GET("/notifications", nt.List)
	staff.GET("/notifications/unread-count", nt.UnreadCount)
	staff.PUT("/notifications/mark-all-read", nt.MarkAllRead)
	staff.PUT("/notifications/:id/read", nt.MarkRead)

	// Manager-only administration.
	mgr := e.Group("",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleManager),
	)
	mgr.GET("/services/types/all", st.ListAll)
	mgr.POST("/services/types", st.Create)
	mgr.PUT("/services/types/:id", st.Update)
	mgr.DELETE("/services/types/:id", st.Delete)

	mgr.GET("/services/all-requests", req.List)
	mgr.PUT("/services/requests/:id/assign", req.Assign)

	mgr.POST("/inventory", inv.Create)
	mgr.PUT("/inventory/:id", inv.Update)
	mgr.DELETE("/inventory/:id", inv.Delete)

	mgr.GET("/users", adm.ListUsers)
	mgr.GET("/users/:id", adm.GetUser)
	mgr.PUT("/users/:id", adm.UpdateUser)
	mgr.PUT("/users/:id/role", adm.UpdateRole)
	mgr.DELETE("/users/:id", adm.DeleteUser)
	mgr.GET("/masters", adm.ListMasters)

	mgr.PUT("/payments/:id", pay.Update)
	mgr.GET("/payments/stats", pay.Stats)

	mgr.PUT("/support/requests/:id", sup.UpdateStatus)
}
