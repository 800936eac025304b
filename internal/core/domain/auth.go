package domain

import "github.com/google/uuid"

type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

type AuthState int

const (
	// AuthStateAnonymous means no bearer token was supplied. Whether that is
	// acceptable is decided by the route, not here.
	AuthStateAnonymous AuthState = iota
	AuthStateAuthenticated
	AuthStateRejected
)

// AuthOutcome is the per-request result of bearer-token authentication. It is
// threaded explicitly through the request context rather than held in any
// ambient state.
type AuthOutcome struct {
	State  AuthState
	UserID uuid.UUID

	// Classification is set only when State is AuthStateRejected and is one of
	// ErrInvalidAccessToken, ErrExpiredAccessToken or ErrExpiredRefreshToken.
	Classification error
}

func Authenticated(userID uuid.UUID) AuthOutcome {
	return AuthOutcome{State: AuthStateAuthenticated, UserID: userID}
}

func Anonymous() AuthOutcome {
	return AuthOutcome{State: AuthStateAnonymous}
}

func Rejected(classification error) AuthOutcome {
	return AuthOutcome{State: AuthStateRejected, Classification: classification}
}
