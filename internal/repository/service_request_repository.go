package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dernsupport/service-desk/internal/model"
)

// ServiceRequestRepo provides access to service_requests, the central
// workflow table.  All three derived timestamps (assigned_date,
// actual_start_date, completed_at) are stamped inside the UPDATE
// statements with COALESCE so they are write-once no matter how often
// the triggering transition repeats.
type ServiceRequestRepo struct{ DB *sql.DB }

func NewServiceRequestRepo(db *sql.DB) *ServiceRequestRepo { return &ServiceRequestRepo{DB: db} }

const requestColumns = `r.id,r.user_id,r.service_type_id,r.device_type,r.device_brand,r.device_model,
r.problem_description,r.urgency_level,r.city,r.address,r.preferred_date,r.preferred_time,
r.contact_method,r.additional_info,r.status,r.assigned_master_id,r.assigned_date,
r.fixed_price,r.final_price,r.payment_status,r.manager_notes,r.master_notes,
r.is_auto_created_user,r.actual_start_date,r.completed_at,r.created_at,r.updated_at`

// detailColumns appends the joined names clients render: service type
// name, the customer's display name and email, and the assigned
// master's display name when there is one.
const detailColumns = requestColumns + `,
st.name,
COALESCE(CONCAT(u.first_name,' ',u.last_name), u.company_name, '') AS customer_name,
u.email,
CASE WHEN m.id IS NULL THEN NULL
     ELSE COALESCE(CONCAT(m.first_name,' ',m.last_name), m.company_name) END AS master_name`

const detailJoins = ` FROM service_requests r
JOIN service_types st ON st.id = r.service_type_id
JOIN users u ON u.id = r.user_id
LEFT JOIN users m ON m.id = r.assigned_master_id`

func scanRequest(row interface{ Scan(...any) error }, dest *model.ServiceRequest) error {
	return row.Scan(&dest.ID, &dest.UserID, &dest.ServiceTypeID, &dest.DeviceType,
		&dest.DeviceBrand, &dest.DeviceModel, &dest.ProblemDescription, &dest.UrgencyLevel,
		&dest.City, &dest.Address, &dest.PreferredDate, &dest.PreferredTime,
		&dest.ContactMethod, &dest.AdditionalInfo, &dest.Status,
		&dest.AssignedMasterID, &dest.AssignedDate,
		&dest.FixedPrice, &dest.FinalPrice, &dest.PaymentStatus,
		&dest.ManagerNotes, &dest.MasterNotes, &dest.IsAutoCreatedUser,
		&dest.ActualStartDate, &dest.CompletedAt, &dest.CreatedAt, &dest.UpdatedAt)
}

func scanDetails(row interface{ Scan(...any) error }) (model.RequestDetails, error) {
	var d model.RequestDetails
	err := row.Scan(&d.ID, &d.UserID, &d.ServiceTypeID, &d.DeviceType,
		&d.DeviceBrand, &d.DeviceModel, &d.ProblemDescription, &d.UrgencyLevel,
		&d.City, &d.Address, &d.PreferredDate, &d.PreferredTime,
		&d.ContactMethod, &d.AdditionalInfo, &d.Status,
		&d.AssignedMasterID, &d.AssignedDate,
		&d.FixedPrice, &d.FinalPrice, &d.PaymentStatus,
		&d.ManagerNotes, &d.MasterNotes, &d.IsAutoCreatedUser,
		&d.ActualStartDate, &d.CompletedAt, &d.CreatedAt, &d.UpdatedAt,
		&d.ServiceTypeName, &d.CustomerName, &d.CustomerEmail, &d.MasterName)
	return d, err
}

// Create inserts a request and returns its id.  FixedPrice must already
// hold the catalog snapshot taken by the caller.
func (r *ServiceRequestRepo) Create(ctx context.Context, req model.ServiceRequest) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO service_requests
		 (user_id, service_type_id, device_type, device_brand, device_model,
		  problem_description, urgency_level, city, address, preferred_date, preferred_time,
		  contact_method, additional_info, fixed_price, is_auto_created_user)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		req.UserID, req.ServiceTypeID, req.DeviceType, req.DeviceBrand, req.DeviceModel,
		req.ProblemDescription, req.UrgencyLevel, req.City, req.Address,
		req.PreferredDate, req.PreferredTime, req.ContactMethod, req.AdditionalInfo,
		req.FixedPrice, req.IsAutoCreatedUser)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a bare request row.
func (r *ServiceRequestRepo) GetByID(ctx context.Context, id uint64) (model.ServiceRequest, error) {
	var req model.ServiceRequest
	err := scanRequest(r.DB.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM service_requests r WHERE r.id=? LIMIT 1", id), &req)
	if err == sql.ErrNoRows {
		return req, ErrNotFound
	}
	return req, err
}

// GetDetails fetches a request joined with its display names.
func (r *ServiceRequestRepo) GetDetails(ctx context.Context, id uint64) (model.RequestDetails, error) {
	d, err := scanDetails(r.DB.QueryRowContext(ctx,
		"SELECT "+detailColumns+detailJoins+" WHERE r.id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	return d, err
}

// ListByUser returns all requests owned by a user, newest first.
func (r *ServiceRequestRepo) ListByUser(ctx context.Context, userID uint64) ([]model.RequestDetails, error) {
	return r.queryDetails(ctx,
		"SELECT "+detailColumns+detailJoins+" WHERE r.user_id=? ORDER BY r.created_at DESC", userID)
}

// RequestFilter narrows the manager's paginated listing.
type RequestFilter struct {
	Status string
	Page   int
	Limit  int
}

// List returns a page of requests plus the total matching the filter,
// newest first.
func (r *ServiceRequestRepo) List(ctx context.Context, f RequestFilter) ([]model.RequestDetails, int, error) {
	where := "1=1"
	args := []any{}
	if f.Status != "" {
		where += " AND r.status=?"
		args = append(args, f.Status)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM service_requests r WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit, 10)
	args = append(args, limit, (page-1)*limit)
	details, err := r.queryDetails(ctx,
		"SELECT "+detailColumns+detailJoins+" WHERE "+where+
			" ORDER BY r.created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// ListAssignedTo returns the requests assigned to a master in any of
// the given statuses.  Active work sorts by preferred date, finished
// work by most recent update.
func (r *ServiceRequestRepo) ListAssignedTo(ctx context.Context, masterID uint64, statuses ...string) ([]model.RequestDetails, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat(",?", len(statuses))[1:]
	args := []any{masterID}
	for _, s := range statuses {
		args = append(args, s)
	}
	order := " ORDER BY r.preferred_date"
	if len(statuses) == 1 && statuses[0] == model.StatusCompleted {
		order = " ORDER BY r.updated_at DESC"
	}
	return r.queryDetails(ctx,
		"SELECT "+detailColumns+detailJoins+
			" WHERE r.assigned_master_id=? AND r.status IN ("+placeholders+")"+order, args...)
}

func (r *ServiceRequestRepo) queryDetails(ctx context.Context, query string, args ...any) ([]model.RequestDetails, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []model.RequestDetails
	for rows.Next() {
		d, err := scanDetails(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// Assign attaches a master, moves the request to assigned and stores
// the manager's notes.  assigned_date is stamped only when still NULL:
// a re-assignment keeps the original date.
func (r *ServiceRequestRepo) Assign(ctx context.Context, id, masterID uint64, managerNotes *string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE service_requests SET
		 status=?,
		 assigned_master_id=?,
		 manager_notes=COALESCE(?, manager_notes),
		 assigned_date=COALESCE(assigned_date, UTC_TIMESTAMP()),
		 updated_at=UTC_TIMESTAMP()
		 WHERE id=?`,
		model.StatusAssigned, masterID, managerNotes, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateStatus moves a request to the given status.  Entering
// in_progress stamps actual_start_date once, entering completed stamps
// completed_at once; master notes are merged only when provided.
func (r *ServiceRequestRepo) UpdateStatus(ctx context.Context, id uint64, status string, masterNotes *string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE service_requests SET
		 status=?,
		 master_notes=COALESCE(?, master_notes),
		 actual_start_date=CASE WHEN ?=?
		     THEN COALESCE(actual_start_date, UTC_TIMESTAMP()) ELSE actual_start_date END,
		 completed_at=CASE WHEN ?=?
		     THEN COALESCE(completed_at, UTC_TIMESTAMP()) ELSE completed_at END,
		 updated_at=UTC_TIMESTAMP()
		 WHERE id=?`,
		status, masterNotes,
		status, model.StatusInProgress,
		status, model.StatusCompleted,
		id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdatePayment records the payment status and final price.  It lives
// on the same row as the workflow status but is not coupled to it.
func (r *ServiceRequestRepo) UpdatePayment(ctx context.Context, id uint64, paymentStatus string, finalPrice *int64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE service_requests SET payment_status=?, final_price=COALESCE(?, final_price),
		 updated_at=UTC_TIMESTAMP() WHERE id=?`,
		paymentStatus, finalPrice, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListPaymentsByUser returns the owner's settled payment history.
func (r *ServiceRequestRepo) ListPaymentsByUser(ctx context.Context, userID uint64) ([]model.RequestDetails, error) {
	return r.queryDetails(ctx,
		"SELECT "+detailColumns+detailJoins+
			" WHERE r.user_id=? AND r.payment_status IN (?,?) ORDER BY r.created_at DESC",
		userID, model.PaymentPaid, model.PaymentRefunded)
}

// CountByServiceType reports how many requests reference a catalog
// entry, deciding between hard delete and deactivation.
func (r *ServiceRequestRepo) CountByServiceType(ctx context.Context, serviceTypeID uint64) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM service_requests WHERE service_type_id=?", serviceTypeID).Scan(&n)
	return n, err
}

// Count returns the total number of requests.
func (r *ServiceRequestRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM service_requests").Scan(&n)
	return n, err
}

// CountByStatus counts requests in any of the given statuses.
func (r *ServiceRequestRepo) CountByStatus(ctx context.Context, statuses ...string) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat(",?", len(statuses))[1:]
	args := make([]any, len(statuses))
	for i, s := range statuses {
		args[i] = s
	}
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM service_requests WHERE status IN ("+placeholders+")", args...).Scan(&n)
	return n, err
}

// CountByUser counts a user's requests, optionally limited to statuses.
func (r *ServiceRequestRepo) CountByUser(ctx context.Context, userID uint64, statuses ...string) (int64, error) {
	query := "SELECT COUNT(*) FROM service_requests WHERE user_id=?"
	args := []any{userID}
	if len(statuses) > 0 {
		query += " AND status IN (" + strings.Repeat(",?", len(statuses))[1:] + ")"
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	var n int64
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// CountAssignedTo counts a master's requests in the given statuses.
func (r *ServiceRequestRepo) CountAssignedTo(ctx context.Context, masterID uint64, statuses ...string) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat(",?", len(statuses))[1:]
	args := []any{masterID}
	for _, s := range statuses {
		args = append(args, s)
	}
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM service_requests WHERE assigned_master_id=? AND status IN ("+placeholders+")",
		args...).Scan(&n)
	return n, err
}

// MonthlyRevenue is one month of settled payments.
type MonthlyRevenue struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Total int64 `json:"total"`
	Count int64 `json:"count"`
}

// PaymentStats aggregates payment figures for the manager.
type PaymentStats struct {
	TotalRevenue    int64            `json:"totalRevenue"`
	PendingPayments int64            `json:"pendingPayments"`
	MonthlyRevenue  []MonthlyRevenue `json:"monthlyRevenue"`
}

// Payments computes total paid revenue, the outstanding amount on
// completed-but-unpaid requests, and a twelve-month revenue rollup.
func (r *ServiceRequestRepo) Payments(ctx context.Context) (PaymentStats, error) {
	var stats PaymentStats
	err := r.DB.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(final_price),0) FROM service_requests WHERE payment_status=?",
		model.PaymentPaid).Scan(&stats.TotalRevenue)
	if err != nil {
		return stats, err
	}
	err = r.DB.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(final_price),0) FROM service_requests WHERE payment_status=? AND status=?",
		model.PaymentPending, model.StatusCompleted).Scan(&stats.PendingPayments)
	if err != nil {
		return stats, err
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT YEAR(created_at), MONTH(created_at), COALESCE(SUM(final_price),0), COUNT(*)
		 FROM service_requests WHERE payment_status=?
		 GROUP BY YEAR(created_at), MONTH(created_at)
		 ORDER BY YEAR(created_at) DESC, MONTH(created_at) DESC
		 LIMIT 12`, model.PaymentPaid)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var m MonthlyRevenue
		if err := rows.Scan(&m.Year, &m.Month, &m.Total, &m.Count); err != nil {
			return stats, err
		}
		stats.MonthlyRevenue = append(stats.MonthlyRevenue, m)
	}
	return stats, rows.Err()
}
