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

// A catalog edit must never touch the activation flag; only Deactivate
// owns that column.
func TestServiceTypeUpdateLeavesActivationAlone(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewServiceTypeRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE service_types SET name=?, description=?, base_price=?, estimated_duration=?,
		 category=?, updated_at=UTC_TIMESTAMP() WHERE id=?`)).
		WithArgs("Diagnostics", "full checkup", int64(175000), "1 hour", "repair", uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), model.ServiceType{
		ID:                2,
		Name:              "Diagnostics",
		Description:       "full checkup",
		BasePrice:         175000,
		EstimatedDuration: "1 hour",
		Category:          "repair",
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceTypeUpdateUnknownEntry(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewServiceTypeRepo(db)

	mock.ExpectExec("UPDATE service_types").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Update(context.Background(), model.ServiceType{ID: 404, Name: "x", Category: "repair"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
