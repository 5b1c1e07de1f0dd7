package walkforward

import "errors"

var (
	// ErrInvalidConfig indicates window sizing that can never produce a valid
	// partition (non-positive train/test durations or a negative gap).
	ErrInvalidConfig = errors.New("invalid window config")

	// ErrUnknownWindow indicates a window ID that was not produced by the
	// generator for this run.
	ErrUnknownWindow = errors.New("unknown window")

	// ErrOutOfOrderSnapshot indicates a snapshot append whose window ID is not
	// strictly greater than the last appended one.
	ErrOutOfOrderSnapshot = errors.New("out-of-order snapshot")
)
