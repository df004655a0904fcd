package user

import "storefront-be/internal/apperr"

var (
	ErrUserNotFound       = apperr.New(apperr.KindNotFound, "User not found")
	ErrUserExists         = apperr.New(apperr.KindValidation, "User already exists")
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthenticated, "Invalid email or password")
	ErrCannotDeleteSelf   = apperr.New(apperr.KindValidation, "Admins cannot delete their own account")

	// PgUniqueViolation is the postgres SQLSTATE for a unique index conflict.
	PgUniqueViolation = "23505"
)
