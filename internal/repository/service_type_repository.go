package repository

import (
	"context"
	"database/sql"

	"github.com/dernsupport/service-desk/internal/model"
)

// ServiceTypeRepo provides access to the service_types catalog.
type ServiceTypeRepo struct{ DB *sql.DB }

func NewServiceTypeRepo(db *sql.DB) *ServiceTypeRepo { return &ServiceTypeRepo{DB: db} }

const serviceTypeColumns = `id,name,description,base_price,estimated_duration,category,is_active,created_at,updated_at`

func scanServiceType(row interface{ Scan(...any) error }) (model.ServiceType, error) {
	var t model.ServiceType
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.BasePrice,
		&t.EstimatedDuration, &t.Category, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// ListActive returns the public catalog, active entries sorted by name.
func (r *ServiceTypeRepo) ListActive(ctx context.Context) ([]model.ServiceType, error) {
	return r.list(ctx, "SELECT "+serviceTypeColumns+" FROM service_types WHERE is_active=1 ORDER BY name")
}

// ListAll returns every catalog entry including deactivated ones, for
// the manager's admin view, newest first.
func (r *ServiceTypeRepo) ListAll(ctx context.Context) ([]model.ServiceType, error) {
	return r.list(ctx, "SELECT "+serviceTypeColumns+" FROM service_types ORDER BY created_at DESC")
}

func (r *ServiceTypeRepo) list(ctx context.Context, query string) ([]model.ServiceType, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []model.ServiceType
	for rows.Next() {
		t, err := scanServiceType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// GetByID fetches a catalog entry by id.
func (r *ServiceTypeRepo) GetByID(ctx context.Context, id uint64) (model.ServiceType, error) {
	t, err := scanServiceType(r.DB.QueryRowContext(ctx,
		"SELECT "+serviceTypeColumns+" FROM service_types WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

// Create inserts a catalog entry and returns its id.  A duplicate name
// surfaces as ErrNameExists.
func (r *ServiceTypeRepo) Create(ctx context.Context, t model.ServiceType) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO service_types (name, description, base_price, estimated_duration, category)
		 VALUES (?,?,?,?,?)`,
		t.Name, t.Description, t.BasePrice, t.EstimatedDuration, t.Category)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrNameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites a catalog entry.  Existing requests are unaffected:
// they carry their own price snapshot.  The activation flag is owned by
// Deactivate and stays untouched here, so an edit never hides an entry
// from the public catalog.
func (r *ServiceTypeRepo) Update(ctx context.Context, t model.ServiceType) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE service_types SET name=?, description=?, base_price=?, estimated_duration=?,
		 category=?, updated_at=UTC_TIMESTAMP() WHERE id=?`,
		t.Name, t.Description, t.BasePrice, t.EstimatedDuration, t.Category, t.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrNameExists
		}
		return err
	}
	return requireRow(res)
}

// Deactivate soft-deletes a catalog entry still referenced by requests.
func (r *ServiceTypeRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE service_types SET is_active=0, updated_at=UTC_TIMESTAMP() WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes an unreferenced catalog entry outright.
func (r *ServiceTypeRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM service_types WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
