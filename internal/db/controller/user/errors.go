package user

import "errors"

var (
	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when attempting to create or update a user
	// with an email that belongs to a different account.
	ErrEmailTaken = errors.New("email already taken")

	// ErrInvalidCredentials is returned on failed authentication. It is
	// deliberately identical for unknown email and wrong password so callers
	// cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidCurrentPassword is returned when the provided current password
	// does not match the stored password during a password change.
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")

	// ErrUnknownBulkAction is returned for a bulk action name that is not supported.
	ErrUnknownBulkAction = errors.New("unknown bulk action")

	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)
