package pipeline

import "errors"

var (
	// ErrNoEligibleAccount means the pool has no account satisfying the
	// eligibility predicate right now. Callers defer, they do not retry.
	ErrNoEligibleAccount = errors.New("lease: no eligible account")
	// ErrLeaseLost means the caller no longer owns the lease it tried to
	// extend and must abandon its in-flight work.
	ErrLeaseLost = errors.New("lease: lost")

	ErrTaskNotFound  = errors.New("task: not found")
	ErrVideoNotFound = errors.New("video: not found")
	// ErrDuplicateOpenTask refuses a second concurrent pipeline traversal
	// for the same video.
	ErrDuplicateOpenTask = errors.New("task: video already has an open task")
	// ErrAlreadyTerminal refuses writes against complete or failed tasks.
	ErrAlreadyTerminal = errors.New("task: already terminal")
	// ErrStateConflict means a compare-and-set transition lost because the
	// row no longer matches the observed state.
	ErrStateConflict = errors.New("task: state changed concurrently")
	// ErrInvalidTransition rejects a write that skips the pipeline order.
	ErrInvalidTransition = errors.New("task: invalid state transition")
)
