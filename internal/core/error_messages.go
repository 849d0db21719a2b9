package core

// error_messages.go maps run errors to user-facing messages with codes for
// support reference.
//
// Source errors (SRC001-SRC099) come from the sentinel errors of a run:
//
//	SRC001 - Source not found: the export file does not exist
//	SRC002 - Unparsable source: no configured encoding decodes the file, or
//	         its tabular structure is broken beyond line skipping
//	SRC003 - Header not found: the file has no non-blank row
//	SRC004 - Unknown layout: the source names a layout that is not registered
//	SRC005 - Missing column: a configured column is absent from the header
//
// RUN001 is returned when a run could not get a run slot in time and
// RUN002 when a run names a source that is not configured.
//
// Destination errors (DB001-DB099) are matched on the driver's message:
//
//	DB001 - Connection refused
//	DB002 - Connection reset
//	DB003 - Timeout
//	DB004 - Database locked (SQLite writer contention)
//	DB005 - Permission denied on the destination
//	DB006 - Schema conflict (column or table mismatch on append)
//
// Everything else maps to ERR000.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage contains a user-friendly error message with an action and code.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{
		err: ErrSourceNotFound,
		msg: UserMessage{
			Message: "The export file was not found",
			Action:  "Check the source path in the sources file",
			Code:    "SRC001",
		},
	},
	{
		err: ErrUnparsableSource,
		msg: UserMessage{
			Message: "The export file could not be parsed",
			Action:  "Check the delimiter and encodings configured for this source",
			Code:    "SRC002",
		},
	},
	{
		err: ErrHeaderNotFound,
		msg: UserMessage{
			Message: "No header row was found in the export",
			Action:  "Make sure the export is not empty",
			Code:    "SRC003",
		},
	},
	{
		err: ErrUnknownLayout,
		msg: UserMessage{
			Message: "The source uses an unknown layout",
			Action:  "Use one of the registered layouts: flat, grouped, keyvalue",
			Code:    "SRC004",
		},
	},
	{
		err: ErrMissingColumn,
		msg: UserMessage{
			Message: "A configured column is missing from the export header",
			Action:  "Compare the key, quantity and discard columns with the export",
			Code:    "SRC005",
		},
	},
	{
		err: ErrTooManyRuns,
		msg: UserMessage{
			Message: "Too many conversions are running",
			Action:  "Please try again when the current runs finish",
			Code:    "RUN001",
		},
	},
	{
		err: ErrUnknownSource,
		msg: UserMessage{
			Message: "No source has that name",
			Action:  "List the configured sources and check the name",
			Code:    "RUN002",
		},
	},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the destination database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB003",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "The destination database is busy",
			Action:  "Wait for other writers to finish and try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "The destination cannot be written",
			Action:  "Check file or database permissions for the destination",
			Code:    "DB005",
		},
	},
	{
		pattern: "has no column",
		msg: UserMessage{
			Message: "The destination table does not match the export columns",
			Action:  "Use the replace policy or migrate the destination table",
			Code:    "DB006",
		},
	},
	{
		pattern: "does not exist",
		msg: UserMessage{
			Message: "The destination table does not match the export columns",
			Action:  "Use the replace policy or migrate the destination table",
			Code:    "DB006",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs for the underlying cause",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
// Sentinel errors are matched with errors.Is; other errors by
// case-insensitive substring of their message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError returns a formatted user-friendly error string.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic default.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with its user-facing message.
type UserError struct {
	UserMessage
	Err error
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Err }

// NewUserError wraps err with its mapped message. Returns nil for nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{UserMessage: MapError(err), Err: err}
}
