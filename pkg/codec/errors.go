package codec

import (
	"github.com/pkg/errors"
)

// Error is the sentinel error type shared by the codec, transcoder and
// document layers.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Errors
var (
	// ErrInvalidFormat reports an identifier or magic mismatch, or a malformed
	// container header. It is never retried.
	ErrInvalidFormat = &Error{"invalid format"}

	// ErrMalformedRecord reports a declared byte length that cannot hold the
	// fixed layout being decoded.
	ErrMalformedRecord = &Error{"malformed record"}

	// ErrUnsupported reports a contract violation such as seeking a synthetic
	// stream.
	ErrUnsupported = &Error{"unsupported operation"}
)

func malformed(layout string, want, have int) error {
	return errors.Wrapf(ErrMalformedRecord, "%s needs %d bytes, have %d", layout, want, have)
}

// InvalidIdentifier returns an ErrInvalidFormat naming the offending
// identifier bytes.
func InvalidIdentifier(id []byte) error {
	return errors.Wrapf(ErrInvalidFormat, "unrecognized identifier %q", trimIdentifier(id))
}
