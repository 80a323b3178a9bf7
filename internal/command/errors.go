package command

import (
	"errors"
	"fmt"
)

var (
	ErrGuarded       = errors.New("command: guarded commands and groups cannot be disabled")
	ErrUnknownGroup  = errors.New("command: unknown group")
	ErrNameTaken     = errors.New("command: name or alias already registered")
	ErrNotRegistered = errors.New("command: not registered")
	ErrInvalidInfo   = errors.New("command: invalid definition")
)

// FriendlyError is shown to the user verbatim instead of the generic error report.
type FriendlyError struct {
	Msg string
}

func (e *FriendlyError) Error() string { return e.Msg }

// Friendly returns a FriendlyError with a formatted message.
func Friendly(format string, a ...any) error {
	return &FriendlyError{Msg: fmt.Sprintf(format, a...)}
}

// FormatError tells the user how a command is meant to be invoked.
type FormatError struct {
	Command string
	Usage   string
	Help    string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("Invalid command usage. The `%s` command's accepted format is: %s. Use %s for more information.",
		e.Command, e.Usage, e.Help)
}

// UserMessage returns the text to show for err when it is meant for the user.
func UserMessage(err error) (string, bool) {
	var friendly *FriendlyError
	if errors.As(err, &friendly) {
		return friendly.Msg, true
	}
	var format *FormatError
	if errors.As(err, &format) {
		return format.Error(), true
	}
	return "", false
}
