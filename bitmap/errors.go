package bitmap

import "errors"

var (
	// ErrPrecondition matches every [*PreconditionError].
	ErrPrecondition = errors.New("bitmap: precondition violated")

	// ErrPurged is returned when locking storage whose memory was
	// reclaimed by its discardable pool.
	ErrPurged = errors.New("bitmap: storage purged")

	// ErrFreed is returned when locking storage whose last reference was
	// already dropped.
	ErrFreed = errors.New("bitmap: storage freed")
)

// PreconditionError reports a programmer error: the caller broke a
// documented precondition. The operation is aborted; nothing is modified.
type PreconditionError struct {
	// Op is the operation that rejected its input (e.g. "Create").
	Op string
	// Reason describes the violated precondition.
	Reason string
}

func (e *PreconditionError) Error() string {
	return "bitmap: " + e.Op + ": " + e.Reason
}

// Is reports whether target is ErrPrecondition.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// precondition builds a PreconditionError and logs it loudly.
func precondition(op, reason string) error {
	slogger().Error("bitmap: precondition violated", "op", op, "reason", reason)
	return &PreconditionError{Op: op, Reason: reason}
}
