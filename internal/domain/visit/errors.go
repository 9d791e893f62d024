package visit

import "errors"

// Sentinel errors surfaced by the visit service. Handlers map these to
// distinct HTTP statuses so UIs can tell "patient missing" apart from
// "pick another patient".
var (
	// ErrNotFound: the visit or doctor id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTierMismatch: the doctor's tier does not match the visit's assigned
	// tier. No state is mutated.
	ErrTierMismatch = errors.New("doctor tier does not match visit tier")

	// ErrInvalidTransition: the requested status change is not a legal
	// forward transition.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConflict: the visit was claimed or advanced by someone else first.
	// Callers should re-poll the queue.
	ErrConflict = errors.New("visit is no longer available")
)
