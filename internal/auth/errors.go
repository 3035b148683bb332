package auth

import (
	"net/http"

	apperrors "github.com/spec-kit/site-cms/pkg/util/errorutil"
)

// Outcome names the result of one authentication pass.
type Outcome string

const (
	OutcomeAuthorized           Outcome = "authorized"
	OutcomeUnauthenticated      Outcome = "unauthenticated"
	OutcomeInvalidToken         Outcome = "invalid_token"
	OutcomeTokenExpired         Outcome = "token_expired"
	OutcomeUserGone             Outcome = "user_gone"
	OutcomeCredentialRotated    Outcome = "credential_rotated"
	OutcomeDirectoryUnavailable Outcome = "directory_unavailable"
	OutcomeForbidden            Outcome = "forbidden"
)

// Rejection errors rendered to the client. They carry no request state and are shared.
var (
	ErrUnauthenticated = apperrors.NewDomainError("UNAUTHENTICATED",
		"Please authenticate to access this resource.", http.StatusUnauthorized, nil)
	ErrRejectedToken = apperrors.NewDomainError("INVALID_TOKEN",
		"Invalid token. Please log in again!", http.StatusUnauthorized, nil)
	ErrExpiredToken = apperrors.NewDomainError("TOKEN_EXPIRED",
		"Your token has expired! Please log in again.", http.StatusUnauthorized, nil)
	ErrUserGone = apperrors.NewDomainError("USER_GONE",
		"The user behind this token no longer exists.", http.StatusUnauthorized, nil)
	ErrCredentialRotated = apperrors.NewDomainError("CREDENTIAL_ROTATED",
		"Password was changed recently. Please log in again.", http.StatusUnauthorized, nil)
	ErrForbidden = apperrors.NewDomainError("FORBIDDEN",
		"You do not have permission to perform this action.", http.StatusForbidden, nil)
)

func directoryUnavailable(err error) error {
	return apperrors.NewServiceUnavailable("DIRECTORY_UNAVAILABLE",
		"Unable to verify your session right now. Please try again later.", err)
}
