package stamper

import "errors"

// Namespace prefixes every error message of the package.
const Namespace = "stamper"

var (
	// ErrInvalidConfig reports a rejected option, strategy name or batch count.
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")

	// ErrListingFailed is returned by a Lister that cannot enumerate its directory.
	ErrListingFailed = errors.New(Namespace + ": cannot list files to process")

	// ErrSpawnFailed is fatal for the whole run: the pool or the batch dispatcher
	// aborts every sibling task when a task reports it.
	ErrSpawnFailed = errors.New(Namespace + ": cannot launch annotation process")

	// ErrTaskPanicked wraps the value recovered from a panicking task.
	ErrTaskPanicked = errors.New(Namespace + ": task execution panicked")
)
