package model

import "time"

// User types stored in users.user_type.  Individual accounts carry a
// first/last name, legal entities carry company details.  Required
// fields depend on the type; see ValidateProfile.
const (
	UserTypeIndividual = "individual"
	UserTypeLegal      = "legal"
)

// Application roles stored in users.role.
const (
	RoleUser    = "user"    // customer submitting service requests
	RoleMaster  = "master"  // technician executing assigned requests
	RoleManager = "manager" // administrative role with full access
)

// User represents a row in the `users` table.  Nullable columns are
// pointers so that an absent value survives a round trip through the
// database untouched.  PasswordHash is never serialized.
type User struct {
	ID            uint64     `json:"id"`
	UserType      string     `json:"userType"`
	Role          string     `json:"role"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Phone         string     `json:"phone"`
	Address       string     `json:"address"`
	City          string     `json:"city"`
	FirstName     *string    `json:"firstName,omitempty"`
	LastName      *string    `json:"lastName,omitempty"`
	CompanyName   *string    `json:"companyName,omitempty"`
	INN           *string    `json:"inn,omitempty"`
	ContactPerson *string    `json:"contactPerson,omitempty"`
	Website       *string    `json:"website,omitempty"`
	IsActive      bool       `json:"isActive"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// DisplayName returns the human-readable name for the account: first
// and last name for individuals, company name for legal entities.
func (u User) DisplayName() string {
	if u.UserType == UserTypeLegal {
		if u.CompanyName != nil {
			return *u.CompanyName
		}
		return ""
	}
	first, last := "", ""
	if u.FirstName != nil {
		first = *u.FirstName
	}
	if u.LastName != nil {
		last = *u.LastName
	}
	if first == "" {
		return last
	}
	if last == "" {
		return first
	}
	return first + " " + last
}

// ValidRole reports whether role is one of the known application roles.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleMaster, RoleManager:
		return true
	}
	return false
}

// ValidateProfile enforces the per-type required field sets: individual
// accounts must carry a first and last name, legal entities must carry
// company name, tax id, contact person and website.  It returns the
// name of the first missing field, or "" when the profile is complete.
func (u User) ValidateProfile() string {
	switch u.UserType {
	case UserTypeIndividual:
		if u.FirstName == nil || *u.FirstName == "" {
			return "firstName"
		}
		if u.LastName == nil || *u.LastName == "" {
			return "lastName"
		}
	case UserTypeLegal:
		if u.CompanyName == nil || *u.CompanyName == "" {
			return "companyName"
		}
		if u.INN == nil || *u.INN == "" {
			return "inn"
		}
		if u.ContactPerson == nil || *u.ContactPerson == "" {
			return "contactPerson"
		}
		if u.Website == nil || *u.Website == "" {
			return "website"
		}
	default:
		return "userType"
	}
	return ""
}
