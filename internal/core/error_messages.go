package core

// error_messages.go maps technical errors to user-facing messages.
//
// Each message carries a code users can quote to support:
//
//	DB001-DB007   database constraint and connection errors
//	VAL001-VAL004 row validation and notice-type errors
//	FILE001-FILE005 file size, format and content errors
//	UPL001-UPL009 batch and upload lifecycle errors
//	STO001-STO002 record store errors
//	RATE001       request throttling
//	ERR000        fallback; check the application log for the technical error
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns must come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Database Errors (DB001-DB007)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "This notice has already been recorded",
			Action:  "Remove the duplicate row and upload the failed rows again",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate reference numbers in your file",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Check for duplicate reference numbers in your file",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Check the referenced record and try again",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the notice store",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Connection to the notice store was interrupted",
			Action:  "Upload the failed rows again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Upload the failed rows again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "The database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001-VAL004)
	// =========================================================================
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date detected",
			Action:  "Use the YYYY-MM-DD format, for example 2024-01-31",
			Code:    "VAL001",
		},
	},
	{
		pattern: "required field",
		msg: UserMessage{
			Message: "Required field is empty",
			Action:  "Fill in every field required for the row's notice type",
			Code:    "VAL002",
		},
	},
	{
		pattern: "notice type is required",
		msg: UserMessage{
			Message: "Notice type is missing",
			Action:  "Fill in the Notice Type column using a label from the template",
			Code:    "VAL003",
		},
	},
	{
		pattern: "unknown notice type",
		msg: UserMessage{
			Message: "Notice type is not recognised",
			Action:  "Use one of the notice type labels from the template",
			Code:    "VAL004",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit (10MB)",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "File type is not supported",
			Action:  "Upload a .csv, .xlsx or .xls file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid workbook",
		msg: UserMessage{
			Message: "The workbook could not be read",
			Action:  "Check that the file opens in Excel, or save it as .xlsx or .csv and try again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a file to import",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file has no data rows",
			Action:  "Add at least one notice below the header row",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Upload Errors (UPL001-UPL009)
	// =========================================================================
	{
		pattern: "upload cancelled",
		msg: UserMessage{
			Message: "Upload was cancelled",
			Action:  "Start the upload again when ready",
			Code:    "UPL001",
		},
	},
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "batch not found",
		msg: UserMessage{
			Message: "Import batch not found",
			Action:  "The batch may have expired. Please select the file again",
			Code:    "UPL003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "no valid entries",
		msg: UserMessage{
			Message: "There are no valid entries to upload",
			Action:  "Fix the rows with errors and select the file again",
			Code:    "UPL006",
		},
	},
	{
		pattern: "batch is uploading",
		msg: UserMessage{
			Message: "This batch is already uploading",
			Action:  "Wait for the upload to finish or cancel it",
			Code:    "UPL007",
		},
	},
	{
		pattern: "batch is not uploading",
		msg: UserMessage{
			Message: "No upload is running for this batch",
			Action:  "Start the upload first",
			Code:    "UPL008",
		},
	},
	{
		pattern: "batch has no records",
		msg: UserMessage{
			Message: "No file has been loaded for this batch",
			Action:  "Select a file to import",
			Code:    "UPL009",
		},
	},

	// =========================================================================
	// Record Store Errors (STO001-STO002)
	// =========================================================================
	{
		pattern: "store rejected",
		msg: UserMessage{
			Message: "The notice store rejected the record",
			Action:  "Review the reason on the row and upload the failed rows again",
			Code:    "STO001",
		},
	},
	{
		pattern: "store unavailable",
		msg: UserMessage{
			Message: "The notice store is unavailable",
			Action:  "Please try again in a few moments",
			Code:    "STO002",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. It returns
// the first matching pattern, or the ERR000 fallback.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
