package repository

import (
	"context"
	"database/sql"

	"github.com/dernsupport/service-desk/internal/model"
)

// SupportRepo persists support tickets.  Tickets can be filed
// anonymously, so the contact name and email live on the row itself
// rather than behind a user join.
type SupportRepo struct{ DB *sql.DB }

func NewSupportRepo(db *sql.DB) *SupportRepo { return &SupportRepo{DB: db} }

const supportColumns = `id,user_id,name,email,phone,subject,message,category,status,priority,
assigned_to_id,assigned_date,admin_response,response_date,responded_by_id,
resolution_notes,resolved_date,resolved_by_id,
is_escalated,escalation_reason,escalated_date,created_at,updated_at`

func scanSupport(row interface{ Scan(...any) error }) (model.SupportRequest, error) {
	var s model.SupportRequest
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Email, &s.Phone, &s.Subject, &s.Message,
		&s.Category, &s.Status, &s.Priority,
		&s.AssignedToID, &s.AssignedDate, &s.AdminResponse, &s.ResponseDate, &s.RespondedByID,
		&s.ResolutionNotes, &s.ResolvedDate, &s.ResolvedByID,
		&s.IsEscalated, &s.EscalationReason, &s.EscalatedDate, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *SupportRepo) Create(ctx context.Context, s model.SupportRequest) (uint64, error) {
	priority := s.Priority
	if priority == "" {
		priority = "medium"
	}
	category := s.Category
	if category == "" {
		category = "general"
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO support_requests (user_id, name, email, phone, subject, message, category, priority)
		 VALUES (?,?,?,?,?,?,?,?)`,
		s.UserID, s.Name, s.Email, s.Phone, s.Subject, s.Message, category, priority)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

func (r *SupportRepo) GetByID(ctx context.Context, id uint64) (model.SupportRequest, error) {
	s, err := scanSupport(r.DB.QueryRowContext(ctx,
		"SELECT "+supportColumns+" FROM support_requests WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.SupportRequest{}, ErrNotFound
	}
	return s, err
}

// SupportFilter narrows List.
type SupportFilter struct {
	Status string
	UserID uint64 // 0 means all users
	Page   int
	Limit  int
}

// List returns a page of tickets, newest first.
func (r *SupportRepo) List(ctx context.Context, f SupportFilter) ([]model.SupportRequest, int, error) {
	where := "1=1"
	args := []any{}
	if f.Status != "" {
		where += " AND status=?"
		args = append(args, f.Status)
	}
	if f.UserID != 0 {
		where += " AND user_id=?"
		args = append(args, f.UserID)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM support_requests WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit, 20)
	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+supportColumns+" FROM support_requests WHERE "+where+
			" ORDER BY created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tickets []model.SupportRequest
	for rows.Next() {
		s, err := scanSupport(rows)
		if err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, s)
	}
	return tickets, total, rows.Err()
}

// SupportUpdate carries a staff update.  Status is required; every
// other field is applied only when present.
type SupportUpdate struct {
	Status          string
	Priority        *string
	AdminResponse   *string
	ResolutionNotes *string
	AssignedToID    *uint64
	Escalate        *bool
	Reason          *string // escalation reason
	StaffID         uint64  // the updating staff member
}

// UpdateStatus applies a staff update.  The response, assignment,
// resolution and escalation stamps are all write-once: each date and
// actor column is set the first time its trigger fires and never
// overwritten.
func (r *SupportRepo) UpdateStatus(ctx context.Context, id uint64, u SupportUpdate) error {
	resolving := u.Status == model.SupportResolved || u.Status == model.SupportClosed
	responding := u.AdminResponse != nil
	assigning := u.AssignedToID != nil
	escalating := u.Escalate != nil && *u.Escalate
	res, err := r.DB.ExecContext(ctx,
		`UPDATE support_requests SET
		   status=?,
		   priority=COALESCE(?, priority),
		   admin_response=COALESCE(?, admin_response),
		   responded_by_id=CASE WHEN ? THEN COALESCE(responded_by_id, ?) ELSE responded_by_id END,
		   response_date=CASE WHEN ? THEN COALESCE(response_date, UTC_TIMESTAMP()) ELSE response_date END,
		   assigned_to_id=COALESCE(?, assigned_to_id),
		   assigned_date=CASE WHEN ? THEN COALESCE(assigned_date, UTC_TIMESTAMP()) ELSE assigned_date END,
		   resolution_notes=COALESCE(?, resolution_notes),
		   resolved_by_id=CASE WHEN ? THEN COALESCE(resolved_by_id, ?) ELSE resolved_by_id END,
		   resolved_date=CASE WHEN ? THEN COALESCE(resolved_date, UTC_TIMESTAMP()) ELSE resolved_date END,
		   is_escalated=CASE WHEN ? THEN 1 ELSE is_escalated END,
		   escalation_reason=COALESCE(?, escalation_reason),
		   escalated_date=CASE WHEN ? THEN COALESCE(escalated_date, UTC_TIMESTAMP()) ELSE escalated_date END,
		   updated_at=UTC_TIMESTAMP()
		 WHERE id=?`,
		u.Status,
		u.Priority,
		u.AdminResponse, responding, u.StaffID, responding,
		u.AssignedToID, assigning,
		u.ResolutionNotes, resolving, u.StaffID, resolving,
		escalating, u.Reason, escalating,
		id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// CountOpen counts tickets that still need staff attention.
func (r *SupportRepo) CountOpen(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM support_requests WHERE status IN ('open','in_progress')").Scan(&n)
	return n, err
}
