package auth

import "errors"

var (
	ErrInvalidInput       = errors.New("auth: invalid input")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrDuplicateIdentity  = errors.New("auth: identity already exists")
	ErrIdentityNotFound   = errors.New("auth: identity not found")
	ErrNotAuthenticated   = errors.New("auth: not authenticated")
	ErrPermissionDenied   = errors.New("auth: permission denied")
)

// Token decode failures. Each one also matches ErrInvalidToken under errors.Is.
var (
	ErrMalformedToken   error = &tokenError{msg: "auth: malformed token"}
	ErrUnsupportedToken error = &tokenError{msg: "auth: unsupported token"}
	ErrInvalidSignature error = &tokenError{msg: "auth: invalid token signature"}
	ErrExpiredToken     error = &tokenError{msg: "auth: token expired"}
)

type tokenError struct{ msg string }

func (e *tokenError) Error() string { return e.msg }

func (e *tokenError) Is(target error) bool { return target == ErrInvalidToken }
