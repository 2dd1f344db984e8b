package router

import (
	"github.com/labstack/echo/v4"

	"github.com/dernsupport/service-desk/internal/handler"
	"github.com/dernsupport/service-desk/internal/middleware"
)

// RegisterCustomer registers the endpoints every authenticated account
// can reach: its own profile, requests, payments, tickets and
// dashboard.  Role-specific visibility is enforced inside the handlers
// where a resource can belong to someone else.
func RegisterCustomer(e *echo.Echo, jwtSecret string,
	a *handler.AuthHandler, req *handler.RequestHandler, pay *handler.PaymentHandler,
	sup *handler.SupportHandler, dash *handler.DashboardHandler) {

	g := e.Group("", middleware.JWTAuth(jwtSecret))

	g.GET("/profile", a.GetProfile)
	g.PUT("/profile/update", a.UpdateProfile)

	g.GET("/services/my-requests", req.ListMine)
	g.GET("/services/requests/:id", req.Get)

	g.GET("/payments/my", pay.ListMine)

	g.GET("/support/requests", sup.List)
	g.GET("/support/requests/:id", sup.Get)

	g.GET("/dashboard", dash.Stats)
}
