package braidsched

import "errors"

// Error taxonomy. Only setup and teardown can fail to the caller — the
// scheduling hot path is infallible by design: a pipe-full push is
// recovered locally by running the subrange inline, never surfaced as
// an error.
var (
	// ErrConfiguration is returned by Init when the supplied Config is
	// invalid: negative thread count, PipeSizeLog2 >= 32, and similar.
	ErrConfiguration = errors.New("braidsched: invalid configuration")

	// ErrArenaTooSmall is returned by Start when the caller-provided
	// arena is smaller than the value Init reported as needed.
	ErrArenaTooSmall = errors.New("braidsched: arena smaller than Init's reported need")

	// ErrAlreadyStarted is returned by Start on a scheduler that is
	// already running.
	ErrAlreadyStarted = errors.New("braidsched: scheduler already started")

	// ErrNotStarted is returned by operations that require a started
	// scheduler.
	ErrNotStarted = errors.New("braidsched: scheduler not started")

	// ErrPlatform wraps an unrecoverable OS primitive failure. The only
	// such failure point is a parked worker's semaphore wait, whose error
	// is logged through Config.Logger wrapped in ErrPlatform; no function
	// of this package returns it.
	ErrPlatform = errors.New("braidsched: platform primitive failure")
)
