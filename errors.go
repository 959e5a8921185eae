package mailbox

import (
	"errors"

	"github.com/gogpu/mailbox/bitmap"
)

// Caller errors. Operations that return one of these did nothing; they are
// also logged at Error.
var (
	// ErrZeroMailbox is returned when the zero mailbox is used as a name.
	ErrZeroMailbox = errors.New("mailbox: zero mailbox")

	// ErrInvalidMailbox is returned by ParseMailbox for malformed input.
	ErrInvalidMailbox = errors.New("mailbox: invalid mailbox")

	// ErrInvalidTarget is returned for an unknown binding target.
	ErrInvalidTarget = errors.New("mailbox: invalid target")

	// ErrTargetMismatch is returned when a texture is produced under a
	// target other than the one it was created for.
	ErrTargetMismatch = errors.New("mailbox: texture target mismatch")

	// ErrNilTexture is returned when a nil texture is passed.
	ErrNilTexture = errors.New("mailbox: nil texture")

	// ErrUnknownTexture is returned when a context uses a texture it does
	// not hold a reference to.
	ErrUnknownTexture = errors.New("mailbox: texture not held by context")

	// ErrFormatMismatch is returned when a bitmap does not match the
	// texture format it is uploaded to.
	ErrFormatMismatch = errors.New("mailbox: bitmap format does not match texture")

	// ErrSizeMismatch is returned when a bitmap does not match the texture
	// size it is uploaded to.
	ErrSizeMismatch = errors.New("mailbox: bitmap size does not match texture")

	// ErrNotUpdatable is returned when the upload destination cannot
	// accept pixel data.
	ErrNotUpdatable = errors.New("mailbox: texture does not accept updates")
)

// Lifecycle errors.
var (
	// ErrContextClosed is returned by a closed Context.
	ErrContextClosed = errors.New("mailbox: context closed")

	// ErrGroupReleased is returned when creating a context in a released
	// group.
	ErrGroupReleased = errors.New("mailbox: group released")
)

var programmerErrors = []error{
	ErrZeroMailbox,
	ErrInvalidTarget,
	ErrTargetMismatch,
	ErrNilTexture,
	ErrUnknownTexture,
	ErrFormatMismatch,
	ErrSizeMismatch,
	ErrNotUpdatable,
	bitmap.ErrPrecondition,
}

// IsProgrammerError reports whether err is a caller mistake rather than a
// runtime condition. A lookup miss is never an error.
func IsProgrammerError(err error) bool {
	for _, target := range programmerErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
