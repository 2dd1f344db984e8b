package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dernsupport/service-desk/internal/model"
	"github.com/dernsupport/service-desk/internal/repository"
)

// PaymentHandler records payment state on service requests.  Payments
// are bookkeeping only; no charging happens here.
type PaymentHandler struct {
	Requests *repository.ServiceRequestRepo
	Notifier *Notifier
}

func NewPaymentHandler(r *repository.ServiceRequestRepo, n *Notifier) *PaymentHandler {
	return &PaymentHandler{Requests: r, Notifier: n}
}

// Update sets a request's payment status and, optionally, its final
// price.
func (h *PaymentHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req struct {
		PaymentStatus string `json:"paymentStatus"`
		FinalPrice    *int64 `json:"finalPrice"`
	}
	if err := c.Bind(&req); err != nil || !model.ValidPaymentStatus(req.PaymentStatus) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid paymentStatus"})
	}
	if req.FinalPrice != nil && *req.FinalPrice < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "finalPrice must not be negative"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Requests.UpdatePayment(ctx, id, req.PaymentStatus, req.FinalPrice); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}

	d, err := h.Requests.GetDetails(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	if req.PaymentStatus == model.PaymentPaid {
		h.Notifier.Emit(ctx, model.Notification{
			Type:         model.NotifyPaymentReceived,
			Title:        "Payment received",
			Message:      "Payment for service request #" + c.Param("id") + " was recorded",
			RelatedID:    id,
			RelatedModel: model.RelatedServiceRequest,
			TargetRoles:  []string{model.RoleUser},
			TargetUsers:  []uint64{d.UserID},
		})
	}
	return c.JSON(http.StatusOK, d)
}

// ListMine returns the caller's settled payment history.
func (h *PaymentHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	payments, err := h.Requests.ListPaymentsByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": payments})
}

// Stats returns revenue figures for the manager dashboard.
func (h *PaymentHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	stats, err := h.Requests.Payments(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, stats)
}
