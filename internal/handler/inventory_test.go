package handler

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dernsupport/service-desk/internal/model"
	"github.com/dernsupport/service-desk/internal/repository"
)

var itemTestColumns = []string{
	"id", "name", "description", "category", "brand", "model", "specifications",
	"quantity", "min_quantity", "unit_price", "total_value", "location", "item_condition",
	"supplier", "purchase_date", "warranty_expiry", "notes", "is_active",
	"created_by", "last_updated_by", "created_at", "updated_at",
}

func itemRow(id uint64, qty, minQty int64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(itemTestColumns).AddRow(
		id, "DDR4 8GB", "", "ram", "Kingston", "KVR26N19S8", nil,
		qty, minQty, 1000, qty*1000, "A1", "new",
		nil, nil, nil, nil, true,
		1, 2, now, now)
}

func newInventoryHandler(t *testing.T) (*InventoryHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewInventoryHandler(
		repository.NewInventoryRepo(db),
		NewNotifier(repository.NewNotificationRepo(db))), mock
}

func useContext(body string, uid uint64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/inventory/42/use", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/inventory/:id/use")
	c.SetParamNames("id")
	c.SetParamValues("42")
	c.Set("user_id", uid)
	c.Set("role", model.RoleMaster)
	return c, rec
}

func TestUseReportsAvailableVersusRequested(t *testing.T) {
	h, mock := newInventoryHandler(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("quantity = quantity - ?")).
		WithArgs(int64(10), uint64(7), uint64(42), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .+ FROM inventory_items").
		WithArgs(uint64(42)).
		WillReturnRows(itemRow(42, 4, 2))
	mock.ExpectRollback()

	c, rec := useContext(`{"quantity":10,"usageType":"repair"}`, 7)
	require.NoError(t, h.Use(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "4 available, 10 requested")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUseValidatesQuantity(t *testing.T) {
	h, _ := newInventoryHandler(t)

	c, rec := useContext(`{"quantity":0,"usageType":"repair"}`, 7)
	require.NoError(t, h.Use(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = useContext(`{"quantity":2,"usageType":"eating"}`, 7)
	require.NoError(t, h.Use(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUseEmitsLowStockAlert(t *testing.T) {
	h, mock := newInventoryHandler(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("quantity = quantity - ?")).
		WithArgs(int64(3), uint64(7), uint64(42), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory_usage")).
		WithArgs(uint64(42), nil, uint64(7), int64(3), "repair", nil).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT .+ FROM inventory_items").
		WithArgs(uint64(42)).
		WillReturnRows(itemRow(42, 2, 5)) // at/below minimum after the take
	mock.ExpectCommit()

	// The low-stock notification is stored through its own transaction.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	c, rec := useContext(`{"quantity":3,"usageType":"repair"}`, 7)
	require.NoError(t, h.Use(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
