package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var notificationTestColumns = []string{
	"id", "type", "title", "message", "related_id", "related_model",
	"target_roles", "is_read", "priority", "created_at", "updated_at",
}

func notificationRow(id uint64, roles string, read bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(notificationTestColumns).AddRow(
		id, "service_request", "New service request", "details", 10, "ServiceRequest",
		roles, read, "medium", now, now)
}

func TestMarkReadRoleTargetedFlipsOnFirstReader(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewNotificationRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM notifications WHERE id=\\?").
		WithArgs(uint64(5)).
		WillReturnRows(notificationRow(5, "manager", false))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO notification_reads")).
		WithArgs(uint64(5), uint64(2)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM notification_targets")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET is_read=1")).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := repo.MarkRead(context.Background(), 5, 2)
	require.NoError(t, err)
	assert.True(t, n.IsRead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReadUserTargetedWaitsForAllReaders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewNotificationRepo(db)

	// Two targeted users, one still unread: the global flag must stay
	// down and no UPDATE fires.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM notifications WHERE id=\\?").
		WithArgs(uint64(5)).
		WillReturnRows(notificationRow(5, "user", false))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO notification_reads")).
		WithArgs(uint64(5), uint64(2)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM notification_targets")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("rd.user_id IS NULL")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectCommit()

	n, err := repo.MarkRead(context.Background(), 5, 2)
	require.NoError(t, err)
	assert.False(t, n.IsRead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReadLastUserReaderFlips(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewNotificationRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM notifications WHERE id=\\?").
		WithArgs(uint64(5)).
		WillReturnRows(notificationRow(5, "user", false))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO notification_reads")).
		WithArgs(uint64(5), uint64(3)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM notification_targets")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("rd.user_id IS NULL")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET is_read=1")).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := repo.MarkRead(context.Background(), 5, 3)
	require.NoError(t, err)
	assert.True(t, n.IsRead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReadIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewNotificationRepo(db)

	// Already globally read: the read row insert is an IGNORE no-op and
	// the flag is left alone.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM notifications WHERE id=\\?").
		WithArgs(uint64(5)).
		WillReturnRows(notificationRow(5, "manager", true))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO notification_reads")).
		WithArgs(uint64(5), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM notification_targets")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectCommit()

	n, err := repo.MarkRead(context.Background(), 5, 2)
	require.NoError(t, err)
	assert.True(t, n.IsRead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReadUnknownNotification(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewNotificationRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM notifications WHERE id=\\?").
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows(notificationTestColumns))
	mock.ExpectRollback()

	_, err = repo.MarkRead(context.Background(), 404, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
