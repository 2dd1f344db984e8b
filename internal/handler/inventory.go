package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dernsupport/service-desk/internal/model"
	"github.com/dernsupport/service-desk/internal/repository"
)

// InventoryHandler bundles dependencies for the parts inventory.
type InventoryHandler struct {
	Items    *repository.InventoryRepo
	Notifier *Notifier
}

func NewInventoryHandler(i *repository.InventoryRepo, n *Notifier) *InventoryHandler {
	return &InventoryHandler{Items: i, Notifier: n}
}

// List returns a page of active items with optional category, search
// and low-stock filters.
func (h *InventoryHandler) List(c echo.Context) error {
	f := repository.ItemFilter{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
		LowStock: c.QueryParam("lowStock") == "true",
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", 20),
	}
	if f.Category != "" && !model.ValidInventoryCategory(f.Category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid category"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, total, err := h.Items.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":      items,
		"pagination": newPageMeta(total, f.Page, f.Limit),
	})
}

// Get returns a single item.
func (h *InventoryHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	item, err := h.Items.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, item)
}

type itemReq struct {
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Brand          string     `json:"brand"`
	Model          string     `json:"model"`
	Specifications *string    `json:"specifications"`
	Quantity       int64      `json:"quantity"`
	MinQuantity    int64      `json:"minQuantity"`
	UnitPrice      int64      `json:"unitPrice"`
	Location       string     `json:"location"`
	Condition      string     `json:"condition"`
	Supplier       *string    `json:"supplier"`
	PurchaseDate   *time.Time `json:"purchaseDate"`
	WarrantyExpiry *time.Time `json:"warrantyExpiry"`
	Notes          *string    `json:"notes"`
}

func (r *itemReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "name is required"
	}
	if !model.ValidInventoryCategory(r.Category) {
		return "invalid category"
	}
	if r.Quantity < 0 || r.MinQuantity < 0 {
		return "quantities must not be negative"
	}
	if r.UnitPrice < 0 {
		return "unitPrice must not be negative"
	}
	return ""
}

func (r *itemReq) toModel() model.InventoryItem {
	return model.InventoryItem{
		Name:           r.Name,
		Description:    r.Description,
		Category:       r.Category,
		Brand:          r.Brand,
		Model:          r.Model,
		Specifications: r.Specifications,
		Quantity:       r.Quantity,
		MinQuantity:    r.MinQuantity,
		UnitPrice:      r.UnitPrice,
		Location:       r.Location,
		Condition:      r.Condition,
		Supplier:       r.Supplier,
		PurchaseDate:   r.PurchaseDate,
		WarrantyExpiry: r.WarrantyExpiry,
		Notes:          r.Notes,
		IsActive:       true,
	}
}

// Create adds an item to the inventory.
func (h *InventoryHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var req itemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	item := req.toModel()
	item.CreatedByID = uid
	id, err := h.Items.Create(ctx, item)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create failed"})
	}
	created, err := h.Items.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusCreated, created)
}

// Update edits an item.  TotalValue is recomputed from quantity and
// unit price inside the repository; it cannot be set directly.
func (h *InventoryHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req itemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	item := req.toModel()
	item.ID = id
	if err := h.Items.Update(ctx, item, uid); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}
	updated, err := h.Items.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete deactivates an item.  The row stays because usage history
// references it.
func (h *InventoryHandler) Delete(c echo.Context) error {
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

	if err := h.Items.SoftDelete(ctx, id, uid); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Use consumes stock for a job.  The decrement is atomic: concurrent
// consumptions can never drive quantity negative, and the loser of a
// race gets the same insufficient-stock answer as a plain shortage.
func (h *InventoryHandler) Use(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req struct {
		Quantity         int64   `json:"quantity"`
		UsageType        string  `json:"usageType"`
		ServiceRequestID *uint64 `json:"serviceRequestId"`
		Notes            *string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if req.Quantity < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "quantity must be at least 1"})
	}
	if !model.ValidUsageType(req.UsageType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid usageType"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	item, usage, err := h.Items.Consume(ctx, model.InventoryUsage{
		InventoryItemID:  id,
		ServiceRequestID: req.ServiceRequestID,
		UsedByID:         uid,
		QuantityUsed:     req.Quantity,
		UsageType:        req.UsageType,
		Notes:            req.Notes,
	})
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "item not found"})
		case repository.ErrInsufficientStock:
			return c.JSON(http.StatusBadRequest, echo.Map{
				"message": fmt.Sprintf("insufficient stock: %d available, %d requested", item.Quantity, req.Quantity),
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "consume failed"})
	}

	if item.IsLowStock() {
		h.Notifier.EmitLowStock(ctx, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": item, "usage": usage})
}

// Usage returns an item's paginated consumption history.
func (h *InventoryHandler) Usage(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	ctx, cancel := reqCtx(c)
	defer cancel()

	usage, total, err := h.Items.UsageHistory(ctx, id, page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"usage":      usage,
		"pagination": newPageMeta(total, page, limit),
	})
}

// Categories returns the closed set of part categories.
func (h *InventoryHandler) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"categories": model.InventoryCategories})
}

// Stats returns the manager's inventory rollup.
func (h *InventoryHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	stats, err := h.Items.Stats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, stats)
}
