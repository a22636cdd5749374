package shared

import "errors"

var (
	// ErrSnapshotUnavailable indicates the snapshot store could not be
	// reached. Distinct from denial: denial is a value, not an error.
	ErrSnapshotUnavailable = errors.New("identity snapshot unavailable")
	// ErrBatchTooLarge indicates a batch decision request above the limit.
	ErrBatchTooLarge = errors.New("too many checks in batch")
)
