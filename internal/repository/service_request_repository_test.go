package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dernsupport/service-desk/internal/model"
)

func TestAssignStampsDateOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewServiceRequestRepo(db)

	// assigned_date only falls back to UTC_TIMESTAMP() when still NULL,
	// so a re-assignment keeps the original stamp.
	mock.ExpectExec(regexp.QuoteMeta("assigned_date=COALESCE(assigned_date, UTC_TIMESTAMP())")).
		WithArgs(model.StatusAssigned, uint64(5), nil, uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Assign(context.Background(), 10, 5, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignUnknownRequest(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewServiceRequestRepo(db)

	mock.ExpectExec("UPDATE service_requests").
		WithArgs(model.StatusAssigned, uint64(5), nil, uint64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Assign(context.Background(), 999, 5, nil), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusStampsTimestamps(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewServiceRequestRepo(db)

	notes := "replaced PSU"
	mock.ExpectExec(regexp.QuoteMeta("completed_at=CASE WHEN ?=?")).
		WithArgs(model.StatusCompleted, &notes,
			model.StatusCompleted, model.StatusInProgress,
			model.StatusCompleted, model.StatusCompleted,
			uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), 10, model.StatusCompleted, &notes))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewServiceRequestRepo(db)

	price := int64(250000)
	mock.ExpectExec(regexp.QuoteMeta("payment_status=?")).
		WithArgs(model.PaymentPaid, &price, uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePayment(context.Background(), 10, model.PaymentPaid, &price))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCarriesPriceSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewServiceRequestRepo(db)

	req := model.ServiceRequest{
		UserID:             3,
		ServiceTypeID:      2,
		DeviceType:         "laptop",
		ProblemDescription: "does not boot",
		UrgencyLevel:       "high",
		City:               "Springfield",
		Address:            "12 Elm St",
		PreferredTime:      "10:00",
		ContactMethod:      "email",
		FixedPrice:         150000, // snapshot taken by the handler
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO service_requests")).
		WithArgs(req.UserID, req.ServiceTypeID, req.DeviceType, nil, nil,
			req.ProblemDescription, req.UrgencyLevel, req.City, req.Address,
			req.PreferredDate, req.PreferredTime, req.ContactMethod, nil,
			req.FixedPrice, false).
		WillReturnResult(sqlmock.NewResult(77, 1))

	id, err := repo.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(77), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
