package openwire

import "github.com/chris-alexander-pop/openwire-client/pkg/errors"

// Error codes for wire-level failures. All of these are fatal to the
// transport that encounters them.
const (
	CodeBadMagic      = "OPENWIRE_BAD_MAGIC"
	CodeUnknownType   = "OPENWIRE_UNKNOWN_TYPE"
	CodeTruncated     = "OPENWIRE_TRUNCATED"
	CodeFrameTooLarge = "OPENWIRE_FRAME_TOO_LARGE"
	CodeCacheMiss     = "OPENWIRE_CACHE_MISS"
)

// ErrBadMagic creates an error for a WireFormatInfo magic mismatch.
func ErrBadMagic(got []byte) *errors.AppError {
	return errors.Newf(CodeBadMagic, "remote wire format magic is invalid: %q", got)
}

// ErrUnknownType creates an error for an unregistered data structure tag.
func ErrUnknownType(tag byte) *errors.AppError {
	return errors.Newf(CodeUnknownType, "unknown data structure type %d", tag)
}

// ErrTruncated creates an error for a frame that ended mid-field.
func ErrTruncated(what string) *errors.AppError {
	return errors.Newf(CodeTruncated, "truncated frame: %s", what)
}

// ErrFrameTooLarge creates an error for a frame exceeding the negotiated
// maximum.
func ErrFrameTooLarge(size, max int64) *errors.AppError {
	return errors.Newf(CodeFrameTooLarge, "frame size %d exceeds maximum %d", size, max)
}

// ErrCacheMiss creates an error for a reference to an unassigned cache slot.
func ErrCacheMiss(index int16) *errors.AppError {
	return errors.Newf(CodeCacheMiss, "cache reference to unassigned slot %d", index)
}

// IsFramingError reports whether err is one of the fatal wire-level error
// kinds.
func IsFramingError(err error) bool {
	switch errors.Code(err) {
	case CodeBadMagic, CodeUnknownType, CodeTruncated, CodeFrameTooLarge, CodeCacheMiss:
		return true
	}
	return false
}
