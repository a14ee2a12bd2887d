package account

import "errors"

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrEmailTaken            = errors.New("email already registered")
	ErrEmailInvalid          = errors.New("email is invalid")
	ErrPasswordInvalid       = errors.New("password does not meet requirements")
	ErrEmailDomainNotAllowed = errors.New("email domain is not allowed")
	ErrBadCredentials        = errors.New("email or password is incorrect")
	ErrSessionInvalid        = errors.New("session is invalid or expired")
	ErrVerificationInvalid   = errors.New("verification token is invalid or expired")
	ErrUnknownRole           = errors.New("unknown role")
)
