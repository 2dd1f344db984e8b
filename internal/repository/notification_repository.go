package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dernsupport/service-desk/internal/model"
)

// NotificationRepo provides access to notifications and their
// per-user read records.  Role targets live comma-joined on the row
// and are matched with FIND_IN_SET; user targets live in
// notification_targets, reads in notification_reads.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

const notificationColumns = `id,type,title,message,related_id,related_model,target_roles,is_read,priority,created_at,updated_at`

func scanNotification(row interface{ Scan(...any) error }) (model.Notification, error) {
	var n model.Notification
	var roles string
	err := row.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.RelatedID, &n.RelatedModel,
		&roles, &n.IsRead, &n.Priority, &n.CreatedAt, &n.UpdatedAt)
	if roles != "" {
		n.TargetRoles = strings.Split(roles, ",")
	}
	return n, err
}

// Create inserts a notification with its role and user targets and
// returns its id.
func (r *NotificationRepo) Create(ctx context.Context, n model.Notification) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	priority := n.Priority
	if priority == "" {
		priority = "medium"
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO notifications (type, title, message, related_id, related_model, target_roles, priority)
		 VALUES (?,?,?,?,?,?,?)`,
		n.Type, n.Title, n.Message, n.RelatedID, n.RelatedModel,
		strings.Join(n.TargetRoles, ","), priority)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, uid := range n.TargetUsers {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO notification_targets (notification_id, user_id) VALUES (?,?)",
			id, uid); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return uint64(id), nil
}

// ListForRole returns a page of notifications targeted at a role,
// newest first, along with the role's unread count.
func (r *NotificationRepo) ListForRole(ctx context.Context, role string, unreadOnly bool, page, limit int) ([]model.Notification, int, error) {
	where := "FIND_IN_SET(?, target_roles) > 0"
	args := []any{role}
	if unreadOnly {
		where += " AND is_read=0"
	}

	page, limit = normalizePage(page, limit, 20)
	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE "+where+
			" ORDER BY created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	unread, err := r.UnreadCountForRole(ctx, role)
	if err != nil {
		return nil, 0, err
	}
	return notifications, unread, nil
}

// UnreadCountForRole counts globally-unread notifications for a role.
func (r *NotificationRepo) UnreadCountForRole(ctx context.Context, role string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE FIND_IN_SET(?, target_roles) > 0 AND is_read=0",
		role).Scan(&n)
	return n, err
}

// MarkRead records that a user read a notification and recomputes the
// global read flag.  Reading twice is a no-op: the read row is keyed on
// (notification, user) and inserted with INSERT IGNORE.
//
// Read-state rule: a notification with specific user targets is
// globally read only once every targeted user has read it; one
// targeted at roles alone is read as soon as anyone reads it.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uint64) (model.Notification, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Notification{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	n, err := scanNotification(tx.QueryRowContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.Notification{}, ErrNotFound
	}
	if err != nil {
		return model.Notification{}, err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT IGNORE INTO notification_reads (notification_id, user_id) VALUES (?,?)",
		id, userID); err != nil {
		return model.Notification{}, err
	}

	var targets int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notification_targets WHERE notification_id=?", id).Scan(&targets); err != nil {
		return model.Notification{}, err
	}

	read := true
	if targets > 0 {
		var pending int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM notification_targets t
			 LEFT JOIN notification_reads rd
			   ON rd.notification_id = t.notification_id AND rd.user_id = t.user_id
			 WHERE t.notification_id=? AND rd.user_id IS NULL`, id).Scan(&pending)
		if err != nil {
			return model.Notification{}, err
		}
		read = pending == 0
	}

	if read && !n.IsRead {
		if _, err := tx.ExecContext(ctx,
			"UPDATE notifications SET is_read=1, updated_at=UTC_TIMESTAMP() WHERE id=?", id); err != nil {
			return model.Notification{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Notification{}, err
	}
	committed = true
	n.IsRead = n.IsRead || read
	return n, nil
}

// MarkAllReadForRole bulk-reads every unread role-targeted notification
// for the caller's role, recording the caller as the reader of each.
func (r *NotificationRepo) MarkAllReadForRole(ctx context.Context, role string, userID uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT IGNORE INTO notification_reads (notification_id, user_id)
		 SELECT id, ? FROM notifications
		 WHERE FIND_IN_SET(?, target_roles) > 0 AND is_read=0`,
		userID, role); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE notifications SET is_read=1, updated_at=UTC_TIMESTAMP()
		 WHERE FIND_IN_SET(?, target_roles) > 0 AND is_read=0`, role); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
