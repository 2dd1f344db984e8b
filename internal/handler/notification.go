package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dernsupport/service-desk/internal/repository"
)

// NotificationHandler bundles dependencies for the notification feed.
type NotificationHandler struct {
	Notifications *repository.NotificationRepo
}

func NewNotificationHandler(n *repository.NotificationRepo) *NotificationHandler {
	return &NotificationHandler{Notifications: n}
}

// List returns the caller's role feed, newest first, plus the unread
// count.  unread=true narrows to globally-unread entries.
func (h *NotificationHandler) List(c echo.Context) error {
	role := getRole(c)
	if role == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	unreadOnly := c.QueryParam("unread") == "true"
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	ctx, cancel := reqCtx(c)
	defer cancel()

	notifications, unread, err := h.Notifications.ListForRole(ctx, role, unreadOnly, page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"notifications": notifications,
		"unreadCount":   unread,
	})
}

// UnreadCount returns just the number of unread notifications for the
// caller's role, for badge polling.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	role := getRole(c)
	if role == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Notifications.UnreadCountForRole(ctx, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"unreadCount": n})
}

// MarkRead records the caller's read.  Reading an already-read
// notification is a no-op and still returns 200 with the current state.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
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

	n, err := h.Notifications.MarkRead(ctx, id, uid)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "notification not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}
	return c.JSON(http.StatusOK, n)
}

// MarkAllRead bulk-reads the caller's entire role feed.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	role := getRole(c)
	if role == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notifications.MarkAllReadForRole(ctx, role, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "all notifications marked as read"})
}
