package apperrors

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrNoSession         = errors.New("no focus session")
	ErrSessionInProgress = errors.New("focus session already in progress")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrDuplicateEntry    = errors.New("entry already exists")
	ErrDaemonNotRunning  = errors.New("lockin daemon is not running")
	ErrDaemonStartFailed = errors.New("lockin daemon start failed")
)
