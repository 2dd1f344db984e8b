package model

import "time"

// Part categories stored in inventory_items.category.  The set is
// closed; anything else is rejected at the handler boundary.
var InventoryCategories = []string{
	"ram", "storage", "cpu", "gpu", "motherboard",
	"power_supply", "cooling", "case", "cable", "other",
}

// ValidInventoryCategory reports whether c is a known part category.
func ValidInventoryCategory(c string) bool {
	for _, v := range InventoryCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Usage types stored in inventory_usage.usage_type.
var UsageTypes = []string{"service", "repair", "replacement", "testing", "other"}

// ValidUsageType reports whether t is a known usage type.
func ValidUsageType(t string) bool {
	for _, v := range UsageTypes {
		if v == t {
			return true
		}
	}
	return false
}

// InventoryItem is a part record in the `inventory_items` table.
// TotalValue is derived, quantity times unit price, recomputed inside
// every UPDATE; it is never settable on its own.  Deletion is a soft
// deactivate because usage history keeps referencing the row.
type InventoryItem struct {
	ID              uint64     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Brand           string     `json:"brand"`
	Model           string     `json:"model"`
	Specifications  *string    `json:"specifications,omitempty"`
	Quantity        int64      `json:"quantity"`
	MinQuantity     int64      `json:"minQuantity"`
	UnitPrice       int64      `json:"unitPrice"`
	TotalValue      int64      `json:"totalValue"`
	Location        string     `json:"location"`
	Condition       string     `json:"condition"`
	Supplier        *string    `json:"supplier,omitempty"`
	PurchaseDate    *time.Time `json:"purchaseDate,omitempty"`
	WarrantyExpiry  *time.Time `json:"warrantyExpiry,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	IsActive        bool       `json:"isActive"`
	CreatedByID     uint64     `json:"createdById"`
	LastUpdatedByID *uint64    `json:"lastUpdatedById,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// IsLowStock reports whether the item sits at or under its minimum
// threshold.
func (i InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.MinQuantity
}

// InventoryUsage is an immutable append-only entry in the
// `inventory_usage` table, written as a side effect of a successful
// consumption and never edited afterwards.
type InventoryUsage struct {
	ID               uint64    `json:"id"`
	InventoryItemID  uint64    `json:"inventoryItemId"`
	ServiceRequestID *uint64   `json:"serviceRequestId,omitempty"`
	UsedByID         uint64    `json:"usedById"`
	QuantityUsed     int64     `json:"quantityUsed"`
	UsageType        string    `json:"usageType"`
	Notes            *string   `json:"notes,omitempty"`
	UsedAt           time.Time `json:"usedAt"`
}

// InventoryStats is the manager-facing rollup over active items.
type InventoryStats struct {
	TotalItems    int64          `json:"totalItems"`
	TotalValue    int64          `json:"totalValue"`
	LowStockCount int64          `json:"lowStockCount"`
	CategoryStats []CategoryStat `json:"categoryStats"`
}

// CategoryStat is one per-category row inside InventoryStats.
type CategoryStat struct {
	Category   string `json:"category"`
	Count      int64  `json:"count"`
	TotalValue int64  `json:"totalValue"`
}
