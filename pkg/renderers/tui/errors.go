package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C) or declined to
	// submit.
	ErrAborted = errors.New("tui: aborted")
	// ErrTooManyAttempts is returned when a field keeps failing validation.
	ErrTooManyAttempts = errors.New("tui: too many invalid attempts")
	// ErrNoOptions is returned for select fields that declare no options.
	ErrNoOptions = errors.New("tui: select field has no options")
)
