package epicycle

import (
	"errors"
	"fmt"
)

// Domain errors for submission, synchronization and playback.
var (
	// ErrInvalidInput indicates a stroke that cannot be submitted.
	ErrInvalidInput = errors.New("epicycle: invalid input")

	// ErrIOFailure indicates a transport or decode failure talking to the service.
	ErrIOFailure = errors.New("epicycle: service i/o failure")

	// ErrComputationIncomplete indicates polling stopped before any vectors arrived.
	ErrComputationIncomplete = errors.New("epicycle: drawing saved but vector calculation appears incomplete")

	// ErrNoDataAvailable indicates an animation request with no vectors loaded.
	ErrNoDataAvailable = errors.New("epicycle: no drawing data to animate")
)

// OpError wraps an error with the operation and drawing it concerned.
type OpError struct {
	Op        string
	DrawingID int
	Err       error
}

func (e *OpError) Error() string {
	if e.DrawingID > 0 {
		return fmt.Sprintf("%s drawing %d: %v", e.Op, e.DrawingID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Invalid returns an ErrInvalidInput carrying a reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IOFailure wraps err so that it matches ErrIOFailure.
func IOFailure(op string, id int, err error) error {
	return &OpError{Op: op, DrawingID: id, Err: fmt.Errorf("%w: %v", ErrIOFailure, err)}
}
