package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dernsupport/service-desk/internal/config"
	"github.com/dernsupport/service-desk/internal/model"
	"github.com/dernsupport/service-desk/internal/repository"
)

var requestTestColumns = []string{
	"id", "user_id", "service_type_id", "device_type", "device_brand", "device_model",
	"problem_description", "urgency_level", "city", "address", "preferred_date", "preferred_time",
	"contact_method", "additional_info", "status", "assigned_master_id", "assigned_date",
	"fixed_price", "final_price", "payment_status", "manager_notes", "master_notes",
	"is_auto_created_user", "actual_start_date", "completed_at", "created_at", "updated_at",
}

func requestRow(id, userID uint64, status string, masterID *uint64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(requestTestColumns).AddRow(
		id, userID, 2, "laptop", nil, nil,
		"does not boot", "high", "Springfield", "12 Elm St", now, "10:00",
		"email", nil, status, masterID, nil,
		150000, nil, "pending", nil, nil,
		false, nil, nil, now, now)
}

func newRequestHandler(t *testing.T) (*RequestHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{JWTSecret: "test", AccessTTLHours: 1, BcryptCost: 4}
	return NewRequestHandler(cfg,
		repository.NewServiceRequestRepo(db),
		repository.NewServiceTypeRepo(db),
		repository.NewUserRepo(db),
		NewNotifier(repository.NewNotificationRepo(db))), mock
}

func statusUpdateContext(body string, uid uint64, role string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/services/requests/10/status", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/services/requests/:id/status")
	c.SetParamNames("id")
	c.SetParamValues("10")
	c.Set("user_id", uid)
	c.Set("role", role)
	return c, rec
}

func TestUpdateStatusRejectsUnassignedMaster(t *testing.T) {
	h, mock := newRequestHandler(t)

	other := uint64(99)
	mock.ExpectQuery("SELECT .+ FROM service_requests r WHERE r.id=\\?").
		WithArgs(uint64(10)).
		WillReturnRows(requestRow(10, 3, model.StatusAssigned, &other))

	c, rec := statusUpdateContext(`{"status":"in_progress"}`, 5, model.RoleMaster)
	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "not assigned to you")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	h, mock := newRequestHandler(t)

	mock.ExpectQuery("SELECT .+ FROM service_requests r WHERE r.id=\\?").
		WithArgs(uint64(10)).
		WillReturnRows(requestRow(10, 3, model.StatusPending, nil))

	// pending cannot jump straight to completed, even for a manager.
	c, rec := statusUpdateContext(`{"status":"completed"}`, 1, model.RoleManager)
	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	h, _ := newRequestHandler(t)

	c, rec := statusUpdateContext(`{"status":"done"}`, 1, model.RoleManager)
	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatusUnknownRequest(t *testing.T) {
	h, mock := newRequestHandler(t)

	mock.ExpectQuery("SELECT .+ FROM service_requests r WHERE r.id=\\?").
		WithArgs(uint64(10)).
		WillReturnError(sql.ErrNoRows)

	c, rec := statusUpdateContext(`{"status":"in_progress"}`, 1, model.RoleManager)
	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignRejectsTerminalRequest(t *testing.T) {
	h, mock := newRequestHandler(t)

	mock.ExpectQuery("SELECT .+ FROM service_requests r WHERE r.id=\\?").
		WithArgs(uint64(10)).
		WillReturnRows(requestRow(10, 3, model.StatusCancelled, nil))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/services/requests/10/assign",
		strings.NewReader(`{"masterId":5}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/services/requests/:id/assign")
	c.SetParamNames("id")
	c.SetParamValues("10")
	c.Set("user_id", uint64(1))
	c.Set("role", model.RoleManager)

	require.NoError(t, h.Assign(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHidesForeignRequestFromCustomer(t *testing.T) {
	h, mock := newRequestHandler(t)

	// Details row: request columns plus the joined names.
	now := time.Now().UTC()
	cols := append(append([]string{}, requestTestColumns...),
		"name", "customer_name", "email", "master_name")
	rows := sqlmock.NewRows(cols).AddRow(
		10, 3, 2, "laptop", nil, nil,
		"does not boot", "high", "Springfield", "12 Elm St", now, "10:00",
		"email", nil, model.StatusPending, nil, nil,
		150000, nil, "pending", nil, nil,
		false, nil, nil, now, now,
		"Diagnostics", "Alice Smith", "alice@example.com", nil)
	mock.ExpectQuery("SELECT .+ FROM service_requests r").
		WithArgs(uint64(10)).
		WillReturnRows(rows)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/services/requests/10", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/services/requests/:id")
	c.SetParamNames("id")
	c.SetParamValues("10")
	c.Set("user_id", uint64(777)) // not the owner
	c.Set("role", model.RoleUser)

	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var serviceTypeTestColumns = []string{
	"id", "name", "description", "base_price", "estimated_duration",
	"category", "is_active", "created_at", "updated_at",
}

func createContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/services/request", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/services/request")
	return c, rec
}

const anonymousBody = `{
	"serviceTypeId": 2, "deviceType": "laptop",
	"problemDescription": "does not boot", "urgencyLevel": "high",
	"city": "Springfield", "address": "12 Elm St",
	"preferredDate": "2026-09-01", "preferredTime": "10:00",
	"contactMethod": "email",
	"email": "newcomer@example.com", "phone": "+15550100",
	"userType": "individual", "firstName": "Pat", "lastName": "Newcomer"
}`

func TestAnonymousCreateReturnsPasswordOnce(t *testing.T) {
	h, mock := newRequestHandler(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM service_types").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(serviceTypeTestColumns).
			AddRow(2, "Diagnostics", "", 150000, 60, "repair", true, now, now))
	mock.ExpectQuery("SELECT .+ FROM users WHERE email").
		WithArgs("newcomer@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(55, 1))
	mock.ExpectExec("INSERT INTO service_requests").
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	cols := append(append([]string{}, requestTestColumns...),
		"name", "customer_name", "email", "master_name")
	mock.ExpectQuery("SELECT .+ FROM service_requests r").
		WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			77, 55, 2, "laptop", nil, nil,
			"does not boot", "high", "Springfield", "12 Elm St", now, "10:00",
			"email", nil, model.StatusPending, nil, nil,
			150000, nil, "pending", nil, nil,
			true, nil, nil, now, now,
			"Diagnostics", "Pat Newcomer", "newcomer@example.com", nil))

	c, rec := createContext(anonymousBody)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		GeneratedPassword string `json:"generatedPassword"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.GeneratedPassword, 8)
	assert.Equal(t, 1, strings.Count(rec.Body.String(), "generatedPassword"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

var userTestColumns = []string{
	"id", "user_type", "role", "email", "password_hash", "phone", "address", "city",
	"first_name", "last_name", "company_name", "inn", "contact_person", "website",
	"is_active", "last_login", "created_at", "updated_at",
}

// A second anonymous submission with a known email attaches to that
// account: no user insert, no password in the response.
func TestAnonymousCreateKnownEmailAttaches(t *testing.T) {
	h, mock := newRequestHandler(t)
	now := time.Now().UTC()
	first, last := "Pat", "Newcomer"

	mock.ExpectQuery("SELECT .+ FROM service_types").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(serviceTypeTestColumns).
			AddRow(2, "Diagnostics", "", 150000, 60, "repair", true, now, now))
	mock.ExpectQuery("SELECT .+ FROM users WHERE email").
		WithArgs("newcomer@example.com").
		WillReturnRows(sqlmock.NewRows(userTestColumns).AddRow(
			55, model.UserTypeIndividual, model.RoleUser, "newcomer@example.com", "$2a$04$hash",
			"+15550100", "12 Elm St", "Springfield",
			&first, &last, nil, nil, nil, nil,
			true, nil, now, now))
	mock.ExpectExec("INSERT INTO service_requests").
		WillReturnResult(sqlmock.NewResult(78, 1))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	cols := append(append([]string{}, requestTestColumns...),
		"name", "customer_name", "email", "master_name")
	mock.ExpectQuery("SELECT .+ FROM service_requests r").
		WithArgs(uint64(78)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			78, 55, 2, "laptop", nil, nil,
			"does not boot", "high", "Springfield", "12 Elm St", now, "10:00",
			"email", nil, model.StatusPending, nil, nil,
			150000, nil, "pending", nil, nil,
			false, nil, nil, now, now,
			"Diagnostics", "Pat Newcomer", "newcomer@example.com", nil))

	c, rec := createContext(anonymousBody)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "generatedPassword")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnonymousCreateIncompleteContactRejected(t *testing.T) {
	h, mock := newRequestHandler(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM service_types").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(serviceTypeTestColumns).
			AddRow(2, "Diagnostics", "", 150000, 60, "repair", true, now, now))
	mock.ExpectQuery("SELECT .+ FROM users WHERE email").
		WithArgs("newcomer@example.com").
		WillReturnError(sql.ErrNoRows)

	body := strings.Replace(anonymousBody, `"lastName": "Newcomer"`, `"lastName": ""`, 1)
	c, rec := createContext(body)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
