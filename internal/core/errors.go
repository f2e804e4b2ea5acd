package core

// errors.go defines the pipeline's error taxonomy.
//
// Every failure is fatal for the run. Errors are tagged with the stage that
// raised them and a code operators can grep for in logs:
//
// # Input Errors (IN001-IN099), stage "load"
//
//	IN001 - Source file missing or unreadable
//	IN002 - Unsupported or corrupt spreadsheet
//	IN003 - Required column missing from the header
//	IN004 - Empty OrderId
//	IN005 - PromotionDiscount is not a valid discount object
//	IN006 - Discount Amount is not numeric
//	IN007 - Region tag is not A or B
//
// # Transform Errors (TR001-TR099), stage "transform"
//
//	TR001 - Region tables expose different column sets
//	TR002 - QuantityOrdered or ItemPrice is not numeric
//	TR003 - A region table is missing
//
// # Sink Errors (SNK001-SNK099), stage "sink"
//
//	SNK001 - Destination table name is not a plain identifier
//	SNK002 - Destination cannot be opened
//	SNK003 - Write or commit failed

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step that produced an error.
type Stage string

const (
	StageLoad      Stage = "load"
	StageTransform Stage = "transform"
	StageSink      Stage = "sink"
)

// Error codes, see the reference above.
const (
	CodeSourceUnreadable  = "IN001"
	CodeUnsupportedSheet  = "IN002"
	CodeMissingColumn     = "IN003"
	CodeEmptyOrderID      = "IN004"
	CodeMalformedDiscount = "IN005"
	CodeNonNumericAmount  = "IN006"
	CodeInvalidRegion     = "IN007"
	CodeColumnMismatch    = "TR001"
	CodeNonNumericMetric  = "TR002"
	CodeMissingRegion     = "TR003"
	CodeInvalidTable      = "SNK001"
	CodeSinkOpen          = "SNK002"
	CodeSinkWrite         = "SNK003"
)

var (
	ErrMissingColumn     = errors.New("missing required column")
	ErrEmptyOrderID      = errors.New("empty OrderId")
	ErrMalformedDiscount = errors.New("malformed discount")
	ErrNonNumeric        = errors.New("not a number")
	ErrColumnMismatch    = errors.New("region column sets differ")
	ErrInvalidRegion     = errors.New("invalid region tag")
	ErrMissingRegion     = errors.New("region table missing")
	ErrInvalidTable      = errors.New("invalid table name")
)

// StageError is a fatal pipeline error with its origin.
type StageError struct {
	Stage  Stage
	Code   string
	Source string // file or destination, if known
	Line   int    // 1-based source line, 0 if not row-specific
	Err    error
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("%s [%s]", e.Stage, e.Code)
	if e.Source != "" {
		msg += " " + e.Source
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" line %d", e.Line)
	}
	return msg + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps err with stage and code.
func NewStageError(stage Stage, code, source string, line int, err error) *StageError {
	return &StageError{Stage: stage, Code: code, Source: source, Line: line, Err: err}
}

// StageOf returns the stage recorded in err's chain, or "" if none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// CodeOf returns the error code recorded in err's chain, or "ERR000".
func CodeOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Code
	}
	return "ERR000"
}
