package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every concrete error below wraps exactly one of them so callers
// can branch with errors.Is on either the kind or the specific error.
var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrSessionInactive = errors.New("voting session is not active")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInternal        = errors.New("internal server error")
)

var (
	ErrInvalidKeyFormat   = fmt.Errorf("%w: key must be exactly %d characters", ErrValidation, KeyLength)
	ErrInvalidCandidates  = fmt.Errorf("%w: provide between 1 and %d candidates", ErrValidation, MaxCandidates)
	ErrInvalidSessionStep = fmt.Errorf("%w: action must be \"start\" or \"stop\"", ErrValidation)

	ErrKeyNotFound       = fmt.Errorf("%w: invalid voting key", ErrNotFound)
	ErrCandidateNotFound = fmt.Errorf("%w: candidate not found", ErrNotFound)
	ErrNoActiveSession   = fmt.Errorf("%w: no active voting session", ErrNotFound)

	ErrKeyAlreadyUsed = fmt.Errorf("%w: this key has already been used", ErrConflict)
	ErrDuplicateVote  = fmt.Errorf("%w: this key has already been used to vote", ErrConflict)

	ErrInvalidToken       = fmt.Errorf("%w: token is not valid", ErrUnauthorized)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
)

// Validationf builds a validation error with a caller specific message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
