package media

import "errors"

var (
	// ErrLookupFailure marks a single failed catalog call. It is logged and
	// treated as zero results, never fatal to the run.
	ErrLookupFailure = errors.New("catalog lookup failed")

	// ErrInsufficientIdentity marks a file whose resolution was empty or
	// ambiguous with no way to ask the user.
	ErrInsufficientIdentity = errors.New("insufficient information to identify media")

	// ErrPlanningFailure marks a file whose destination could not be built
	// from the chosen identity.
	ErrPlanningFailure = errors.New("insufficient information to construct destination filepath")

	// ErrTransferFailure marks a failed file transfer.
	ErrTransferFailure = errors.New("file transfer failed")

	// ErrAborted short-circuits the remaining queue on user request.
	// Cleanup still runs for every file.
	ErrAborted = errors.New("aborted by user")

	// ErrNoMediaFiles is returned when the scanned input paths contain
	// nothing processable.
	ErrNoMediaFiles = errors.New("no media files to process")
)
