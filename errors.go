package goShell

import "errors"

var (
	// ErrStoreRequired is returned by Build when no session store was provided.
	ErrStoreRequired = errors.New("session store required")
	// ErrBuilderUsed is returned when Build is called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrShellClosed is returned by operations on a closed Shell.
	ErrShellClosed = errors.New("shell closed")
)
