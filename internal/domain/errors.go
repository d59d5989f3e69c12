package domain

import "errors"

var (
	// ErrQuizNotFound indicates the requested quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrGameNotFound indicates the game is not part of the catalog.
	ErrGameNotFound = errors.New("game not found")
	// ErrValidation is wrapped by every input validation failure.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated is returned when an operation needs a signed-in user.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the signed-in user lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrUserExists indicates a username or email is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned by login on unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrBackendUnavailable indicates no persistence backend could be acquired.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrOptionOutOfRange indicates a selected answer index is not a valid option.
	ErrOptionOutOfRange = errors.New("option out of range")
	// ErrSessionNotStarted indicates the quiz session has no quiz loaded yet.
	ErrSessionNotStarted = errors.New("quiz session not started")
	// ErrSessionCompleted indicates the quiz session no longer accepts answers.
	ErrSessionCompleted = errors.New("quiz session completed")
)
