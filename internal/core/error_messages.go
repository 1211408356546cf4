package core

// error_messages.go defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # File Errors (FILE001-FILE099)
//
// Errors related to the uploaded file and its contents:
//
//	FILE001 - File too large: File exceeds the upload size limit
//	          Action: Split the file into smaller chunks
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Invalid file: File could not be read as a table
//	          Action: Check quoting and that the file matches its extension
//	          Match: *table.ParseError, "invalid table"
//
//	FILE003 - Encoding error: File contains invalid characters
//	          Action: Save file as UTF-8 encoding
//	          Patterns: "encoding error"
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a file to upload
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The uploaded file has no columns
//	          Action: Upload a file with a header row
//	          Match: *table.EmptyInputError, "empty file"
//
//	FILE006 - Unsupported type: The file extension is not supported
//	          Action: Upload a .csv, .tsv, .txt or .xlsx file
//	          Match: table.ErrUnsupportedFormat
//
//	FILE007 - Not found: The requested cleaned file does not exist
//	          Action: Upload the file again to regenerate it
//	          Match: storage.ErrNotFound
//
//	FILE008 - Invalid name: The file name cannot be used
//	          Action: Rename the file and upload it again
//	          Match: storage.ErrInvalidName
//
// # Upload Errors (UPL001-UPL099)
//
// Errors related to the request carrying the upload:
//
//	UPL003 - Run expired: The cleaning run is no longer available
//	         Action: Results are kept for a limited time. Upload the file again
//	         Match: ErrRunNotFound
//
//	UPL004 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Match: context.Canceled
//
//	UPL005 - Request timeout: Request timed out
//	         Action: Try uploading a smaller file or check your connection
//	         Match: context.DeadlineExceeded
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Matching
//
// Typed errors are matched first with errors.Is and errors.As, so wrapping
// never hides them. Remaining errors fall through to case-insensitive
// strings.Contains patterns; the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/tidycsv/internal/storage"
	"github.com/JonMunkholm/tidycsv/internal/table"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

var (
	msgTooLarge = UserMessage{
		Message: "File exceeds the upload size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}
	msgInvalidFile = UserMessage{
		Message: "File could not be read as a table",
		Action:  "Check quoting and that the file matches its extension",
		Code:    "FILE002",
	}
	msgEncoding = UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save file as UTF-8 encoding",
		Code:    "FILE003",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Please select a file to upload",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file has no columns",
		Action:  "Upload a file with a header row",
		Code:    "FILE005",
	}
	msgUnsupported = UserMessage{
		Message: "This file type is not supported",
		Action:  "Upload a .csv, .tsv, .txt or .xlsx file",
		Code:    "FILE006",
	}
	msgNotFound = UserMessage{
		Message: "The requested file does not exist",
		Action:  "Upload the file again to regenerate it",
		Code:    "FILE007",
	}
	msgInvalidName = UserMessage{
		Message: "The file name cannot be used",
		Action:  "Rename the file and upload it again",
		Code:    "FILE008",
	}
	msgRunExpired = UserMessage{
		Message: "This cleaning run is no longer available",
		Action:  "Results are kept for a limited time. Upload the file again",
		Code:    "UPL003",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try uploading a smaller file or check your connection",
		Code:    "UPL005",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catches errors that arrive without a type, mostly from
// net/http and the multipart reader. Order matters: first match wins.
var errorPatterns = []errorPattern{
	{pattern: "file too large", msg: msgTooLarge},
	{pattern: "request body too large", msg: msgTooLarge},
	{pattern: "invalid table", msg: msgInvalidFile},
	{pattern: "encoding error", msg: msgEncoding},
	{pattern: "no file provided", msg: msgNoFile},
	{pattern: "no such file", msg: msgNoFile},
	{pattern: "empty file", msg: msgEmptyFile},
	{pattern: "context canceled", msg: msgCancelled},
	{pattern: "context deadline exceeded", msg: msgTimeout},
	{pattern: "rate limit", msg: msgRateLimited},
}

// defaultMessage is returned when nothing matches (ERR000). Support staff
// should check application logs for the technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	_, err := svc.Clean(ctx, req)
//	msg := MapError(err) // msg.Code == "FILE002" for a malformed CSV
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var parseErr *table.ParseError
	var emptyErr *table.EmptyInputError
	switch {
	case errors.As(err, &parseErr):
		return msgInvalidFile
	case errors.As(err, &emptyErr):
		return msgEmptyFile
	case errors.Is(err, table.ErrUnsupportedFormat):
		return msgUnsupported
	case errors.Is(err, storage.ErrNotFound):
		return msgNotFound
	case errors.Is(err, storage.ErrInvalidName):
		return msgInvalidName
	case errors.Is(err, ErrRunNotFound):
		return msgRunExpired
	case errors.Is(err, context.Canceled):
		return msgCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
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

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message. The
// original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

// Error renders the user message with its code and action, the form the
// CLI prints.
func (e *UserError) Error() string {
	if s := FormatUserError(e.Technical); s != "" && MapError(e.Technical) == e.User {
		return s
	}
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
