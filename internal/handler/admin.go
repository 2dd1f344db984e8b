package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dernsupport/service-desk/internal/config"
	"github.com/dernsupport/service-desk/internal/model"
	"github.com/dernsupport/service-desk/internal/repository"
	"github.com/dernsupport/service-desk/internal/utils"
)

// AdminHandler bundles dependencies for manager-only user management.
type AdminHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAdminHandler(cfg config.Config, u *repository.UserRepo) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Users: u}
}

// ListUsers returns a paginated user listing with optional search and
// role filters.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	f := repository.UserFilter{
		Search: c.QueryParam("search"),
		Role:   c.QueryParam("role"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 10),
	}
	if f.Role != "" && !model.ValidRole(f.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid role"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	users, total, err := h.Users.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"users":      users,
		"pagination": newPageMeta(total, f.Page, f.Limit),
	})
}

// GetUser returns a single account by id.
func (h *AdminHandler) GetUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateUser lets a manager edit any account's profile fields.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req profileUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	upd := repository.UserUpdate{
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		CompanyName:   req.CompanyName,
		INN:           req.INN,
		ContactPerson: req.ContactPerson,
		Website:       req.Website,
	}
	if req.Password != nil {
		hash, err := utils.HashPassword(*req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "hash password failed"})
		}
		upd.PasswordHash = &hash
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.Update(ctx, id, upd); err != nil {
		switch err {
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"message": "email already registered"})
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateRole changes an account's role.  A manager cannot demote
// themselves; that would lock the last manager out.
func (h *AdminHandler) UpdateRole(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil || !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid role"})
	}
	if callerID, err := getUserID(c); err == nil && callerID == id && req.Role != model.RoleManager {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "cannot change own role"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateRole(ctx, id, req.Role); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role updated"})
}

// DeleteUser removes an account entirely.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if callerID, err := getUserID(c); err == nil && callerID == id {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "cannot delete own account"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMasters returns every technician account, for the assignment
// dialog.
func (h *AdminHandler) ListMasters(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	masters, err := h.Users.ListMasters(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"masters": masters})
}
