package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strptr(s string) *string { return &s }

func TestValidateProfileIndividual(t *testing.T) {
	u := User{UserType: UserTypeIndividual}
	assert.Equal(t, "firstName", u.ValidateProfile())

	u.FirstName = strptr("Alice")
	assert.Equal(t, "lastName", u.ValidateProfile())

	u.LastName = strptr("Smith")
	assert.Equal(t, "", u.ValidateProfile())

	// Company fields are irrelevant for individuals.
	u.CompanyName = nil
	assert.Equal(t, "", u.ValidateProfile())
}

func TestValidateProfileLegal(t *testing.T) {
	u := User{UserType: UserTypeLegal}
	assert.Equal(t, "companyName", u.ValidateProfile())

	u.CompanyName = strptr("Acme LLC")
	assert.Equal(t, "inn", u.ValidateProfile())

	u.INN = strptr("1234567890")
	assert.Equal(t, "contactPerson", u.ValidateProfile())

	u.ContactPerson = strptr("Bob")
	assert.Equal(t, "website", u.ValidateProfile())

	u.Website = strptr("https://acme.example")
	assert.Equal(t, "", u.ValidateProfile())
}

func TestValidateProfileUnknownType(t *testing.T) {
	u := User{UserType: "robot"}
	assert.Equal(t, "userType", u.ValidateProfile())
}

func TestDisplayName(t *testing.T) {
	ind := User{UserType: UserTypeIndividual, FirstName: strptr("Alice"), LastName: strptr("Smith")}
	assert.Equal(t, "Alice Smith", ind.DisplayName())

	legal := User{UserType: UserTypeLegal, CompanyName: strptr("Acme LLC")}
	assert.Equal(t, "Acme LLC", legal.DisplayName())

	partial := User{UserType: UserTypeIndividual, FirstName: strptr("Alice")}
	assert.Equal(t, "Alice", partial.DisplayName())
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleUser))
	assert.True(t, ValidRole(RoleMaster))
	assert.True(t, ValidRole(RoleManager))
	assert.False(t, ValidRole("admin"))
	assert.False(t, ValidRole(""))
}
