package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dernsupport/service-desk/internal/model"
	"github.com/dernsupport/service-desk/internal/repository"
)

// ServiceTypeHandler bundles dependencies for the service catalog.
type ServiceTypeHandler struct {
	Types    *repository.ServiceTypeRepo
	Requests *repository.ServiceRequestRepo
}

func NewServiceTypeHandler(t *repository.ServiceTypeRepo, r *repository.ServiceRequestRepo) *ServiceTypeHandler {
	return &ServiceTypeHandler{Types: t, Requests: r}
}

// ListActive returns the public catalog: active entries only.  This
// endpoint sits behind the Redis response cache.
func (h *ServiceTypeHandler) ListActive(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	types, err := h.Types.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"serviceTypes": types})
}

// ListAll returns the full catalog including deactivated entries, for
// managers.
func (h *ServiceTypeHandler) ListAll(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	types, err := h.Types.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"serviceTypes": types})
}

type serviceTypeReq struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	BasePrice         int64  `json:"basePrice"`
	EstimatedDuration string `json:"estimatedDuration"`
	Category          string `json:"category"`
}

func (r *serviceTypeReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "name is required"
	}
	if r.BasePrice < 0 {
		return "basePrice must not be negative"
	}
	if !model.ValidServiceCategory(r.Category) {
		return "invalid category"
	}
	return ""
}

// Create adds a catalog entry.
func (h *ServiceTypeHandler) Create(c echo.Context) error {
	var req serviceTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	t := model.ServiceType{
		Name:              req.Name,
		Description:       req.Description,
		BasePrice:         req.BasePrice,
		EstimatedDuration: req.EstimatedDuration,
		Category:          req.Category,
		IsActive:          true,
	}
	id, err := h.Types.Create(ctx, t)
	if err != nil {
		if err == repository.ErrNameExists {
			return c.JSON(http.StatusConflict, echo.Map{"message": "service type name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create failed"})
	}
	t.ID = id
	return c.JSON(http.StatusCreated, t)
}

// Update edits a catalog entry.  Existing requests keep the price they
// snapshotted at creation; only new requests see the change.
func (h *ServiceTypeHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req serviceTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	t := model.ServiceType{
		ID:                id,
		Name:              req.Name,
		Description:       req.Description,
		BasePrice:         req.BasePrice,
		EstimatedDuration: req.EstimatedDuration,
		Category:          req.Category,
	}
	if err := h.Types.Update(ctx, t); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "service type not found"})
		case repository.ErrNameExists:
			return c.JSON(http.StatusConflict, echo.Map{"message": "service type name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}
	updated, err := h.Types.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete removes a catalog entry.  An entry referenced by existing
// requests is deactivated instead of deleted so their history keeps
// resolving.
func (h *ServiceTypeHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	refs, err := h.Requests.CountByServiceType(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	if refs > 0 {
		if err := h.Types.Deactivate(ctx, id); err != nil {
			if err == repository.ErrNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"message": "service type not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "deactivate failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "service type deactivated; existing requests reference it"})
	}
	if err := h.Types.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "service type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
