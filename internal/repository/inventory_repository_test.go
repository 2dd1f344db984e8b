package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dernsupport/service-desk/internal/model"
)

var itemTestColumns = []string{
	"id", "name", "description", "category", "brand", "model", "specifications",
	"quantity", "min_quantity", "unit_price", "total_value", "location", "item_condition",
	"supplier", "purchase_date", "warranty_expiry", "notes", "is_active",
	"created_by", "last_updated_by", "created_at", "updated_at",
}

func itemRow(id uint64, qty, minQty, unitPrice int64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(itemTestColumns).AddRow(
		id, "DDR4 8GB", "", "ram", "Kingston", "KVR26N19S8", nil,
		qty, minQty, unitPrice, qty*unitPrice, "A1", "new",
		nil, nil, nil, nil, true,
		1, 2, now, now)
}

func TestConsumeDecrementsAtomically(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewInventoryRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("quantity = quantity - ?")).
		WithArgs(int64(3), uint64(7), uint64(42), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory_usage")).
		WithArgs(uint64(42), nil, uint64(7), int64(3), "repair", nil).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT .+ FROM inventory_items WHERE id=\\?").
		WithArgs(uint64(42)).
		WillReturnRows(itemRow(42, 2, 5, 1000))
	mock.ExpectCommit()

	item, usage, err := repo.Consume(context.Background(), model.InventoryUsage{
		InventoryItemID: 42,
		UsedByID:        7,
		QuantityUsed:    3,
		UsageType:       "repair",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(11), usage.ID)
	assert.Equal(t, int64(2), item.Quantity)
	assert.True(t, item.IsLowStock())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeInsufficientStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewInventoryRepo(db)

	// The guarded decrement matches nothing, so the item is re-read to
	// report what is actually available and the tx rolls back.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("quantity = quantity - ?")).
		WithArgs(int64(10), uint64(7), uint64(42), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .+ FROM inventory_items WHERE id=\\? AND is_active=1").
		WithArgs(uint64(42)).
		WillReturnRows(itemRow(42, 4, 2, 1000))
	mock.ExpectRollback()

	item, _, err := repo.Consume(context.Background(), model.InventoryUsage{
		InventoryItemID: 42,
		UsedByID:        7,
		QuantityUsed:    10,
		UsageType:       "repair",
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, int64(4), item.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeUnknownItem(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewInventoryRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("quantity = quantity - ?")).
		WithArgs(int64(1), uint64(7), uint64(99), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .+ FROM inventory_items WHERE id=\\? AND is_active=1").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(itemTestColumns))
	mock.ExpectRollback()

	_, _, err = repo.Consume(context.Background(), model.InventoryUsage{
		InventoryItemID: 99,
		UsedByID:        7,
		QuantityUsed:    1,
		UsageType:       "service",
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSoftDeleteKeepsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewInventoryRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE inventory_items SET is_active=0")).
		WithArgs(uint64(2), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.SoftDelete(context.Background(), 42, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}
