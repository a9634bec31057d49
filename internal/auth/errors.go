package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown user or wrong password.
	// The two cases are deliberately indistinguishable to callers.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrTokenInvalid is returned for malformed, expired or wrongly signed tokens.
	ErrTokenInvalid = errors.New("auth: invalid token")

	ErrInvalidHash  = errors.New("auth: invalid password hash")
	ErrWeakPassword = errors.New("auth: password too short")
)
