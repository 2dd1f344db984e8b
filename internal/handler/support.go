package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dernsupport/service-desk/internal/model"
	"github.com/dernsupport/service-desk/internal/repository"
)

// SupportHandler bundles dependencies for support tickets.
type SupportHandler struct {
	Tickets  *repository.SupportRepo
	Users    *repository.UserRepo
	Notifier *Notifier
}

func NewSupportHandler(t *repository.SupportRepo, u *repository.UserRepo, n *Notifier) *SupportHandler {
	return &SupportHandler{Tickets: t, Users: u, Notifier: n}
}

type supportReq struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
	Subject  string  `json:"subject"`
	Message  string  `json:"message"`
	Category string  `json:"category"`
	Priority string  `json:"priority"`
}

// Create files a ticket.  Anonymous visitors must supply a contact name
// and email; authenticated callers get theirs filled in from the
// account and the ticket attached to it.
func (h *SupportHandler) Create(c echo.Context) error {
	var req supportReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if req.Subject == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "subject and message are required"})
	}
	if req.Priority != "" && !model.ValidPriority(req.Priority) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid priority"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ticket := model.SupportRequest{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:    req.Phone,
		Subject:  req.Subject,
		Message:  req.Message,
		Category: req.Category,
		Priority: req.Priority,
	}
	if uid, err := getUserID(c); err == nil {
		u, err := h.Users.GetByID(ctx, uid)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
		}
		ticket.UserID = &uid
		ticket.Name = u.DisplayName()
		ticket.Email = u.Email
	} else if ticket.Name == "" || ticket.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "name and email are required"})
	}

	id, err := h.Tickets.Create(ctx, ticket)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create failed"})
	}

	h.Notifier.Emit(ctx, model.Notification{
		Type:         model.NotifySupportRequest,
		Title:        "New support request",
		Message:      ticket.Name + ": " + ticket.Subject,
		RelatedID:    id,
		RelatedModel: model.RelatedSupportRequest,
		TargetRoles:  []string{model.RoleManager},
		Priority:     ticket.Priority,
	})

	created, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusCreated, created)
}

// List returns tickets: managers see everyone's, customers their own.
func (h *SupportHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	f := repository.SupportFilter{
		Status: c.QueryParam("status"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
	}
	if f.Status != "" && !model.ValidSupportStatus(f.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid status"})
	}
	if getRole(c) != model.RoleManager {
		f.UserID = uid
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tickets, total, err := h.Tickets.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"supportRequests": tickets,
		"pagination":      newPageMeta(total, f.Page, f.Limit),
	})
}

// Get returns one ticket, visible to its owner and managers.
func (h *SupportHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ticket, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "support request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	owner := ticket.UserID != nil && *ticket.UserID == uid
	if getRole(c) != model.RoleManager && !owner {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	return c.JSON(http.StatusOK, ticket)
}

// UpdateStatus applies a staff update: status, response, assignment and
// escalation.  The response and resolution stamps are write-once.
func (h *SupportHandler) UpdateStatus(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req struct {
		Status          string  `json:"status"`
		Priority        *string `json:"priority"`
		AdminResponse   *string `json:"adminResponse"`
		ResolutionNotes *string `json:"resolutionNotes"`
		AssignedToID    *uint64 `json:"assignedToId"`
		Escalate        *bool   `json:"escalate"`
		Reason          *string `json:"escalationReason"`
	}
	if err := c.Bind(&req); err != nil || !model.ValidSupportStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid status"})
	}
	if req.Priority != nil && !model.ValidPriority(*req.Priority) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid priority"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	upd := repository.SupportUpdate{
		Status:          req.Status,
		Priority:        req.Priority,
		AdminResponse:   req.AdminResponse,
		ResolutionNotes: req.ResolutionNotes,
		AssignedToID:    req.AssignedToID,
		Escalate:        req.Escalate,
		Reason:          req.Reason,
		StaffID:         uid,
	}
	if err := h.Tickets.UpdateStatus(ctx, id, upd); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "support request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}

	ticket, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	if ticket.UserID != nil {
		h.Notifier.Emit(ctx, model.Notification{
			Type:         model.NotifySupportRequest,
			Title:        "Support request updated",
			Message:      "Your support request \"" + ticket.Subject + "\" is now " + ticket.Status,
			RelatedID:    ticket.ID,
			RelatedModel: model.RelatedSupportRequest,
			TargetRoles:  []string{model.RoleUser},
			TargetUsers:  []uint64{*ticket.UserID},
		})
	}
	return c.JSON(http.StatusOK, ticket)
}
