package repository

import (
	"context"
	"database/sql"

	"github.com/dernsupport/service-desk/internal/model"
)

// InventoryRepo provides access to inventory_items and the append-only
// inventory_usage log.  Stock consumption runs inside a transaction
// with a conditional decrement, so two concurrent consumptions of the
// same item can never drive the quantity negative.
type InventoryRepo struct{ DB *sql.DB }

func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{DB: db} }

const itemColumns = `id,name,description,category,brand,model,specifications,
quantity,min_quantity,unit_price,total_value,location,item_condition,
supplier,purchase_date,warranty_expiry,notes,is_active,
created_by,last_updated_by,created_at,updated_at`

func scanItem(row interface{ Scan(...any) error }) (model.InventoryItem, error) {
	var it model.InventoryItem
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Category, &it.Brand, &it.Model,
		&it.Specifications, &it.Quantity, &it.MinQuantity, &it.UnitPrice, &it.TotalValue,
		&it.Location, &it.Condition, &it.Supplier, &it.PurchaseDate, &it.WarrantyExpiry,
		&it.Notes, &it.IsActive, &it.CreatedByID, &it.LastUpdatedByID,
		&it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// ItemFilter narrows the inventory listing.
type ItemFilter struct {
	Category string
	Search   string // matches name, brand, model or description
	LowStock bool   // only items at or under their minimum
	Page     int
	Limit    int
}

// List returns a page of active items plus the total matching the
// filter.  The low-stock variant scans all matching active rows, the
// quantity <= min_quantity comparison is per row.
func (r *InventoryRepo) List(ctx context.Context, f ItemFilter) ([]model.InventoryItem, int, error) {
	where := "is_active=1"
	args := []any{}
	if f.Category != "" {
		where += " AND category=?"
		args = append(args, f.Category)
	}
	if f.Search != "" {
		where += " AND (name LIKE ? OR brand LIKE ? OR model LIKE ? OR description LIKE ?)"
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat, pat, pat)
	}
	if f.LowStock {
		where += " AND quantity <= min_quantity"
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM inventory_items WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit, 20)
	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM inventory_items WHERE "+where+
			" ORDER BY updated_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

// GetByID fetches an item by id regardless of its active flag.
func (r *InventoryRepo) GetByID(ctx context.Context, id uint64) (model.InventoryItem, error) {
	it, err := scanItem(r.DB.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM inventory_items WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return it, ErrNotFound
	}
	return it, err
}

// Create inserts an item and returns its id.  total_value is computed
// in the statement, never taken from the caller.
func (r *InventoryRepo) Create(ctx context.Context, it model.InventoryItem) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO inventory_items
		 (name, description, category, brand, model, specifications,
		  quantity, min_quantity, unit_price, total_value, location, item_condition,
		  supplier, purchase_date, warranty_expiry, notes, created_by, last_updated_by)
		 VALUES (?,?,?,?,?,?,?,?,?,?*?,?,?,?,?,?,?,?,?)`,
		it.Name, it.Description, it.Category, it.Brand, it.Model, it.Specifications,
		it.Quantity, it.MinQuantity, it.UnitPrice, it.Quantity, it.UnitPrice,
		it.Location, it.Condition, it.Supplier, it.PurchaseDate, it.WarrantyExpiry,
		it.Notes, it.CreatedByID, it.CreatedByID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites an item's editable fields.  total_value is recomputed
// from the new quantity and unit price inside the same statement.
func (r *InventoryRepo) Update(ctx context.Context, it model.InventoryItem, updatedBy uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE inventory_items SET
		 name=?, description=?, category=?, brand=?, model=?, specifications=?,
		 quantity=?, min_quantity=?, unit_price=?,
		 total_value = quantity * unit_price,
		 location=?, item_condition=?, supplier=?, purchase_date=?, warranty_expiry=?, notes=?,
		 last_updated_by=?, updated_at=UTC_TIMESTAMP()
		 WHERE id=?`,
		it.Name, it.Description, it.Category, it.Brand, it.Model, it.Specifications,
		it.Quantity, it.MinQuantity, it.UnitPrice,
		it.Location, it.Condition, it.Supplier, it.PurchaseDate, it.WarrantyExpiry, it.Notes,
		updatedBy, it.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SoftDelete deactivates an item; usage history keeps referencing it.
func (r *InventoryRepo) SoftDelete(ctx context.Context, id, updatedBy uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE inventory_items SET is_active=0, last_updated_by=?, updated_at=UTC_TIMESTAMP() WHERE id=?`,
		updatedBy, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Consume atomically takes quantity units from an item on behalf of a
// master and appends the usage record.  The decrement carries the
// quantity guard in its WHERE clause: if another consumption won the
// race, zero rows match and the item is re-read to tell ErrNotFound
// from ErrInsufficientStock.  MySQL applies SET clauses left to right,
// so total_value sees the decremented quantity.
func (r *InventoryRepo) Consume(ctx context.Context, usage model.InventoryUsage) (model.InventoryItem, model.InventoryUsage, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.InventoryItem{}, usage, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE inventory_items SET
		 quantity = quantity - ?,
		 total_value = quantity * unit_price,
		 last_updated_by=?, updated_at=UTC_TIMESTAMP()
		 WHERE id=? AND is_active=1 AND quantity >= ?`,
		usage.QuantityUsed, usage.UsedByID, usage.InventoryItemID, usage.QuantityUsed)
	if err != nil {
		return model.InventoryItem{}, usage, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.InventoryItem{}, usage, err
	}
	if n == 0 {
		// Either the item is gone or the stock is short.
		it, getErr := scanItem(tx.QueryRowContext(ctx,
			"SELECT "+itemColumns+" FROM inventory_items WHERE id=? AND is_active=1 LIMIT 1",
			usage.InventoryItemID))
		if getErr == sql.ErrNoRows {
			return model.InventoryItem{}, usage, ErrNotFound
		}
		if getErr != nil {
			return model.InventoryItem{}, usage, getErr
		}
		return it, usage, ErrInsufficientStock
	}

	ures, err := tx.ExecContext(ctx,
		`INSERT INTO inventory_usage
		 (inventory_item_id, service_request_id, used_by, quantity_used, usage_type, notes)
		 VALUES (?,?,?,?,?,?)`,
		usage.InventoryItemID, usage.ServiceRequestID, usage.UsedByID,
		usage.QuantityUsed, usage.UsageType, usage.Notes)
	if err != nil {
		return model.InventoryItem{}, usage, err
	}
	uid, err := ures.LastInsertId()
	if err != nil {
		return model.InventoryItem{}, usage, err
	}
	usage.ID = uint64(uid)

	it, err := scanItem(tx.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM inventory_items WHERE id=? LIMIT 1", usage.InventoryItemID))
	if err != nil {
		return model.InventoryItem{}, usage, err
	}
	if err := tx.Commit(); err != nil {
		return model.InventoryItem{}, usage, err
	}
	committed = true
	return it, usage, nil
}

// UsageHistory returns a page of an item's usage log, newest first,
// plus the total number of entries.
func (r *InventoryRepo) UsageHistory(ctx context.Context, itemID uint64, page, limit int) ([]model.InventoryUsage, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM inventory_usage WHERE inventory_item_id=?", itemID).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit = normalizePage(page, limit, 10)
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,inventory_item_id,service_request_id,used_by,quantity_used,usage_type,notes,used_at
		 FROM inventory_usage WHERE inventory_item_id=?
		 ORDER BY used_at DESC LIMIT ? OFFSET ?`,
		itemID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var usages []model.InventoryUsage
	for rows.Next() {
		var u model.InventoryUsage
		if err := rows.Scan(&u.ID, &u.InventoryItemID, &u.ServiceRequestID, &u.UsedByID,
			&u.QuantityUsed, &u.UsageType, &u.Notes, &u.UsedAt); err != nil {
			return nil, 0, err
		}
		usages = append(usages, u)
	}
	return usages, total, rows.Err()
}

// Stats aggregates the active inventory: totals, the low-stock count
// (computed by scanning the active rows) and a per-category rollup.
func (r *InventoryRepo) Stats(ctx context.Context) (model.InventoryStats, error) {
	var stats model.InventoryStats

	rows, err := r.DB.QueryContext(ctx,
		"SELECT quantity, min_quantity, total_value FROM inventory_items WHERE is_active=1")
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var qty, minQty, value int64
		if err := rows.Scan(&qty, &minQty, &value); err != nil {
			return stats, err
		}
		stats.TotalItems++
		stats.TotalValue += value
		if qty <= minQty {
			stats.LowStockCount++
		}
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	crows, err := r.DB.QueryContext(ctx,
		`SELECT category, COUNT(*), COALESCE(SUM(total_value),0)
		 FROM inventory_items WHERE is_active=1
		 GROUP BY category ORDER BY COUNT(*) DESC`)
	if err != nil {
		return stats, err
	}
	defer crows.Close()
	for crows.Next() {
		var c model.CategoryStat
		if err := crows.Scan(&c.Category, &c.Count, &c.TotalValue); err != nil {
			return stats, err
		}
		stats.CategoryStats = append(stats.CategoryStats, c)
	}
	return stats, crows.Err()
}
