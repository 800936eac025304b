package domain

import "errors"

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrBadCredential          = errors.New("invalid email or password")
	ErrEmailTaken             = errors.New("email already registered")
	ErrFederatedEmailConflict = errors.New("email already registered under another provider")

	ErrInvalidFederatedCredential = errors.New("invalid oauth2 credential")

	ErrInvalidAccessToken  = errors.New("invalid access token")
	ErrExpiredAccessToken  = errors.New("expired access token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrExpiredRefreshToken = errors.New("expired refresh token")

	// ErrStorageUnavailable wraps transient persistence failures. It is the
	// only error kind callers may retry; everything above is terminal for the
	// request.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Token codec failures. The request authenticator translates these into the
// client-facing classifications above.
var (
	ErrTokenMalformed        = errors.New("malformed token")
	ErrTokenSignatureInvalid = errors.New("invalid token signature")
	ErrTokenExpired          = errors.New("token expired")
)
