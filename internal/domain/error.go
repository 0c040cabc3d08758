package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Interview engine errors
	ErrInvalidSessionState   = errors.New("invalid session state for requested operation")
	ErrGroupNotFound         = errors.New("answer group has no audio chunks")
	ErrLanguageMismatch      = errors.New("generated questions do not match the target language")
	ErrInvalidScheduleWindow = errors.New("requested date is outside the schedule window")
	ErrPostponeNotEligible   = errors.New("session is not eligible for postponement")
	ErrUpstreamTimeout       = errors.New("upstream service timed out")
	ErrCredentialInvalid     = errors.New("access credential is invalid, revoked or expired")
	ErrLockBusy              = errors.New("lock is held by another caller")
	ErrRateLimited           = errors.New("too many attempts")
)
