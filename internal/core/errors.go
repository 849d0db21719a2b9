package core

import "errors"

// Whole-source conditions. Anything else reaching the run boundary is an
// unexpected failure.
var (
	ErrSourceNotFound   = errors.New("source not found")
	ErrUnparsableSource = errors.New("unparsable source")
	ErrHeaderNotFound   = errors.New("header not found")
	ErrUnknownLayout    = errors.New("unknown layout")
	ErrMissingColumn    = errors.New("missing column")
)

// ErrUnknownSource is returned when a run names a source that is not
// configured. It is a lookup failure, not a run outcome.
var ErrUnknownSource = errors.New("unknown source")

// StatusFor maps a run error to its terminal status.
func StatusFor(err error) RunStatus {
	switch {
	case err == nil:
		return StatusSucceeded
	case errors.Is(err, ErrSourceNotFound):
		return StatusSourceNotFound
	case errors.Is(err, ErrUnparsableSource):
		return StatusUnparsableSource
	case errors.Is(err, ErrHeaderNotFound):
		return StatusHeaderNotFound
	default:
		return StatusFailed
	}
}
