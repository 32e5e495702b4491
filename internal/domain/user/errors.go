package user

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserEmailExists     = errors.New("email already registered")
	ErrAdminAccessRequired = errors.New("admin access required")
	ErrCannotDeleteSelf    = errors.New("administrators cannot delete their own account")
)
