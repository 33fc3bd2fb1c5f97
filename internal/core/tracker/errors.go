package tracker

import "errors"

var (
	// ErrReentrancy: the stack was touched from a goroutine that does not
	// own it, outside the scheduled-task bridge.
	ErrReentrancy = errors.New("phase stack accessed from non-owner goroutine")

	// ErrStackCorruption: a frame was released out of LIFO order.
	ErrStackCorruption = errors.New("phase stack corruption")

	// ErrNoActiveContext should be unreachable while the idle root exists.
	ErrNoActiveContext = errors.New("no active phase context")

	// ErrStackUntrusted: recovery could not find the frame on the stack. The
	// process must halt.
	ErrStackUntrusted = errors.New("phase stack can no longer be trusted")
)
