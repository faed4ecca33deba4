package command

import "errors"

// Domain errors for the command package.
var (
	// ErrUnsupportedProtocol is returned when no builder is registered for a protocol.
	ErrUnsupportedProtocol = errors.New("command: unsupported protocol")

	// ErrInvalidDefinition is returned when a command definition cannot be built.
	ErrInvalidDefinition = errors.New("command: invalid definition")

	// ErrCommandNotFound is returned when a command id is not in the registry.
	ErrCommandNotFound = errors.New("command: not found")

	// ErrDuplicateCommand is returned when two definitions share a command id.
	ErrDuplicateCommand = errors.New("command: duplicate id")

	// ErrNotExecutable is returned when executing a command that cannot write.
	ErrNotExecutable = errors.New("command: not executable")
)
