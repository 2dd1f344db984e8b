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

func TestSupportUpdateResolvedStampsOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSupportRepo(db)

	response := "fixed remotely"
	mock.ExpectExec(regexp.QuoteMeta("resolved_date=CASE WHEN ? THEN COALESCE(resolved_date, UTC_TIMESTAMP())")).
		WithArgs(model.SupportResolved,
			nil,
			&response, true, uint64(9), true,
			nil, false,
			nil, true, uint64(9), true,
			false, nil, false,
			uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), 3, SupportUpdate{
		Status:        model.SupportResolved,
		AdminResponse: &response,
		StaffID:       9,
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupportUpdateSetsPriority(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSupportRepo(db)

	priority := "urgent"
	mock.ExpectExec(regexp.QuoteMeta("priority=COALESCE(?, priority)")).
		WithArgs(model.SupportInProgress,
			&priority,
			nil, false, uint64(9), false,
			nil, false,
			nil, false, uint64(9), false,
			false, nil, false,
			uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), 3, SupportUpdate{
		Status:   model.SupportInProgress,
		Priority: &priority,
		StaffID:  9,
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupportUpdateUnknownTicket(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSupportRepo(db)

	mock.ExpectExec("UPDATE support_requests").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatus(context.Background(), 404, SupportUpdate{
		Status:  model.SupportInProgress,
		StaffID: 9,
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupportCreateDefaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSupportRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO support_requests")).
		WithArgs(nil, "Alice", "alice@example.com", nil, "printer jam", "paper stuck", "general", "medium").
		WillReturnResult(sqlmock.NewResult(21, 1))

	id, err := repo.Create(context.Background(), model.SupportRequest{
		Name:    "Alice",
		Email:   "alice@example.com",
		Subject: "printer jam",
		Message: "paper stuck",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(21), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
