package iolog

import "errors"

// Failure kinds surfaced by this package. Call sites wrap these with
// fmt.Errorf("...: %w", ...) so callers can test with errors.Is while
// still seeing the originating path and errno.
var (
	// ErrFormatInvalid is a malformed client record or timing line.
	ErrFormatInvalid = errors.New("invalid format")

	// ErrFormatOverflow is a timing record whose encoding exceeds the
	// line limit.
	ErrFormatOverflow = errors.New("timing record too long")

	// ErrStorageUnavailable is a failure to create or open the session
	// directory; the session never becomes ready.
	ErrStorageUnavailable = errors.New("log storage unavailable")

	// ErrStorageWriteFailed is any write, seek or truncate failure on
	// an established session. The session is aborted; partial files are
	// left in place.
	ErrStorageWriteFailed = errors.New("log write failed")

	// ErrInvalidStream is a stream id outside the valid range.
	ErrInvalidStream = errors.New("invalid stream")

	// ErrRestartMismatch means the timing file cannot be aligned
	// exactly to the requested resume instant.
	ErrRestartMismatch = errors.New("resume point mismatch")

	// ErrRestartUnusable means the existing log cannot be reconciled:
	// a referenced stream is missing or the timing file is corrupt or
	// ends before the resume instant.
	ErrRestartUnusable = errors.New("log unusable for restart")
)

// Kind maps err to the short failure-kind string reported to clients,
// or "" if err carries none of the package's sentinel kinds.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrFormatInvalid):
		return "format_invalid"
	case errors.Is(err, ErrFormatOverflow):
		return "format_overflow"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, ErrStorageWriteFailed):
		return "storage_write_failed"
	case errors.Is(err, ErrInvalidStream):
		return "invalid_stream"
	case errors.Is(err, ErrRestartMismatch):
		return "restart_mismatch"
	case errors.Is(err, ErrRestartUnusable):
		return "restart_unusable"
	}
	return ""
}
