package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dernsupport/service-desk/internal/model"
	"github.com/dernsupport/service-desk/internal/repository"
)

// DashboardHandler computes the role-specific landing page counters.
type DashboardHandler struct {
	Users    *repository.UserRepo
	Requests *repository.ServiceRequestRepo
	Tickets  *repository.SupportRepo
}

func NewDashboardHandler(u *repository.UserRepo, r *repository.ServiceRequestRepo,
	t *repository.SupportRepo) *DashboardHandler {
	return &DashboardHandler{Users: u, Requests: r, Tickets: t}
}

// Stats dispatches on the caller's role.  Each role sees only its own
// slice of the system.
func (h *DashboardHandler) Stats(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch getRole(c) {
	case model.RoleManager:
		totalUsers, err := h.Users.Count(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
		}
		totalRequests, err := h.Requests.Count(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
		}
		pending, err := h.Requests.CountByStatus(ctx, model.StatusPending, model.StatusApproved)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
		}
		active, err := h.Requests.CountByStatus(ctx, model.StatusAssigned, model.StatusInProgress, model.StatusOnHold)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
		}
		completed, err := h.Requests.CountByStatus(ctx, model.StatusCompleted)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
		}
		openTickets, err := h.Tickets.CountOpen(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"totalUsers":          totalUsers,
			"totalRequests":       totalRequests,
			"pendingRequests":     pending,
			"activeRequests":      active,
			"completedRequests":   completed,
			"openSupportRequests": openTickets,
		})

	case model.RoleMaster:
		active, err := h.Requests.CountAssignedTo(ctx, uid,
			model.StatusAssigned, model.StatusInProgress, model.StatusOnHold)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
		}
		completed, err := h.Requests.CountAssignedTo(ctx, uid, model.StatusCompleted)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"activeAssignments":    active,
			"completedAssignments": completed,
		})

	default:
		total, err := h.Requests.CountByUser(ctx, uid)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
		}
		active, err := h.Requests.CountByUser(ctx, uid,
			model.StatusPending, model.StatusApproved, model.StatusAssigned,
			model.StatusInProgress, model.StatusOnHold)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
		}
		completed, err := h.Requests.CountByUser(ctx, uid, model.StatusCompleted)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"totalRequests":     total,
			"activeRequests":    active,
			"completedRequests": completed,
		})
	}
}
