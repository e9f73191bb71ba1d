package models

import "github.com/google/uuid"

// Field limits mirror the users table.
const (
	MaxUserNameLength    = 32
	MaxFullNameLength    = 100
	MaxEMailLength       = 50
	MaxMobilePhoneLength = 50
	MaxLanguageLength    = 32
	MaxCultureLength     = 10
)

// User is a row of the users table. PasswordHash is an opaque digest
// produced by cryptox.PasswordHasher; nothing outside the user service
// interprets it.
type User struct {
	ID                uuid.UUID `db:"id"`
	ClientID          uuid.UUID `db:"client_id"`
	UserName          string    `db:"username"`
	FullName          *string   `db:"full_name"`
	EMail             *string   `db:"email"`
	MobilePhoneNumber *string   `db:"mobile_phone_number"`
	Language          string    `db:"language"`
	Culture           string    `db:"culture"`
	PasswordHash      string    `db:"password_hash"`
}
