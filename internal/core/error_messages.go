package core

// error_messages.go turns pipeline errors into operator guidance.
//
// Stage-tagged errors map by code. Untagged errors fall back to
// case-insensitive pattern matching, first match wins:
//
//	RUN001 - Run cancelled             Patterns: "context canceled"
//	RUN002 - Run timed out             Patterns: "context deadline exceeded", "timeout"
//	SNK002 - Destination unreachable   Patterns: "connection refused"
//
// ERR000 is the fallback; check the logs for the underlying error.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for log search
}

var codeMessages = map[string]UserMessage{
	CodeSourceUnreadable: {
		Message: "A source spreadsheet could not be read",
		Action:  "Check REGION_A_SOURCE and REGION_B_SOURCE point at existing files",
	},
	CodeUnsupportedSheet: {
		Message: "A source file is not a readable spreadsheet",
		Action:  "Provide a .csv, .xlsx or .xlsm file with a header row",
	},
	CodeMissingColumn: {
		Message: "A required column is missing from a source header",
		Action:  "Ensure OrderId, QuantityOrdered, ItemPrice and PromotionDiscount are present",
	},
	CodeEmptyOrderID: {
		Message: "A row has no OrderId",
		Action:  "Fill in or remove the row at the reported line",
	},
	CodeMalformedDiscount: {
		Message: "PromotionDiscount is not a valid discount object",
		Action:  `Use JSON like {"CurrencyCode": "USD", "Amount": "1.50"}`,
	},
	CodeNonNumericAmount: {
		Message: "A discount Amount is not a number",
		Action:  "Use a plain decimal amount in PromotionDiscount",
	},
	CodeInvalidRegion: {
		Message: "Unknown region tag",
		Action:  "Regions must be A or B",
	},
	CodeColumnMismatch: {
		Message: "The two regions have different columns",
		Action:  "Align the headers of both spreadsheets",
	},
	CodeNonNumericMetric: {
		Message: "QuantityOrdered or ItemPrice is not a number",
		Action:  "Remove text from the numeric columns at the reported line",
	},
	CodeMissingRegion: {
		Message: "A region table was not loaded",
		Action:  "Both REGION_A_SOURCE and REGION_B_SOURCE must be loaded before transforming",
	},
	CodeInvalidTable: {
		Message: "Destination table name is invalid",
		Action:  "Set DEST_TABLE to letters, digits and underscores",
	},
	CodeSinkOpen: {
		Message: "Destination could not be opened",
		Action:  "Check DEST_DRIVER and DEST_URL and that the database is reachable",
	},
	CodeSinkWrite: {
		Message: "Writing the destination table failed",
		Action:  "The previous table contents were kept; check database logs and rerun",
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Run was cancelled",
			Action:  "Nothing was written; rerun when ready",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Run timed out",
			Action:  "Raise RUN_TIMEOUT or check the destination is responsive",
			Code:    "RUN002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Run timed out",
			Action:  "Raise RUN_TIMEOUT or check the destination is responsive",
			Code:    "RUN002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Destination could not be opened",
			Action:  "Check DEST_DRIVER and DEST_URL and that the database is reachable",
			Code:    CodeSinkOpen,
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs for the underlying error",
	Code:    "ERR000",
}

// MapError converts an error to operator guidance. Stage-tagged errors map by
// code; anything else is matched against known patterns.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	code := CodeOf(err)
	if msg, ok := codeMessages[code]; ok {
		msg.Code = code
		return msg
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
