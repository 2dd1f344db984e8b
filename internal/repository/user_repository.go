package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dernsupport/service-desk/internal/model"
)

// UserRepo provides access to the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id,user_type,role,email,password_hash,phone,address,city,
first_name,last_name,company_name,inn,contact_person,website,
is_active,last_login,created_at,updated_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.UserType, &u.Role, &u.Email, &u.PasswordHash,
		&u.Phone, &u.Address, &u.City,
		&u.FirstName, &u.LastName, &u.CompanyName, &u.INN, &u.ContactPerson, &u.Website,
		&u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a user and returns its id.  The caller supplies the
// already-hashed password; a duplicate email surfaces as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (user_type, role, email, password_hash, phone, address, city,
		 first_name, last_name, company_name, inn, contact_person, website)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		u.UserType, u.Role, u.Email, u.PasswordHash, u.Phone, u.Address, u.City,
		u.FirstName, u.LastName, u.CompanyName, u.INN, u.ContactPerson, u.Website)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Search string // matches name, company or email
	Role   string
	Page   int
	Limit  int
}

// List returns a page of users plus the total count matching the filter.
func (r *UserRepo) List(ctx context.Context, f UserFilter) ([]model.User, int, error) {
	where := "1=1"
	args := []any{}
	if f.Search != "" {
		where += ` AND (first_name LIKE ? OR last_name LIKE ? OR company_name LIKE ? OR email LIKE ?)`
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat, pat, pat)
	}
	if f.Role != "" {
		where += " AND role=?"
		args = append(args, f.Role)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit, 10)
	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+" ORDER BY created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// ListMasters returns every account with the master role, for the
// manager's assignment dialog.
func (r *UserRepo) ListMasters(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE role=? ORDER BY first_name, company_name", model.RoleMaster)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var masters []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		masters = append(masters, u)
	}
	return masters, rows.Err()
}

// UserUpdate carries the mutable profile fields.  Nil means "leave the
// column as it is"; PasswordHash is set only when the caller rehashed a
// new password.
type UserUpdate struct {
	Email         *string
	PasswordHash  *string
	Phone         *string
	Address       *string
	City          *string
	FirstName     *string
	LastName      *string
	CompanyName   *string
	INN           *string
	ContactPerson *string
	Website       *string
}

// Update applies a partial profile edit.  COALESCE keeps omitted
// columns untouched; a duplicate email surfaces as ErrEmailExists.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd UserUpdate) error {
	var email *string
	if upd.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*upd.Email))
		email = &e
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET
		 email          = COALESCE(?, email),
		 password_hash  = COALESCE(?, password_hash),
		 phone          = COALESCE(?, phone),
		 address        = COALESCE(?, address),
		 city           = COALESCE(?, city),
		 first_name     = COALESCE(?, first_name),
		 last_name      = COALESCE(?, last_name),
		 company_name   = COALESCE(?, company_name),
		 inn            = COALESCE(?, inn),
		 contact_person = COALESCE(?, contact_person),
		 website        = COALESCE(?, website),
		 updated_at     = UTC_TIMESTAMP()
		 WHERE id=?`,
		email, upd.PasswordHash, upd.Phone, upd.Address, upd.City,
		upd.FirstName, upd.LastName, upd.CompanyName, upd.INN, upd.ContactPerson, upd.Website,
		id)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return requireRow(res)
}

// UpdateRole changes a user's role (manager only at the handler level).
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=?, updated_at=UTC_TIMESTAMP() WHERE id=?", role, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// TouchLastLogin stamps users.last_login after a successful login.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_login=UTC_TIMESTAMP() WHERE id=?", id)
	return err
}

// Delete removes a user row entirely.  This is the explicit admin
// delete; every other removal in the system is a soft deactivate.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Count returns the total number of users, for the manager dashboard.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// isDuplicate detects a MySQL duplicate-key violation (error 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// requireRow converts a zero-rows-affected update into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// normalizePage clamps pagination inputs to sane values.
func normalizePage(page, limit, defLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defLimit
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
