package pipeline

import (
	"errors"
	"fmt"

	"github.com/drummonds/goPDFTools/pipeline/pdfops"
	"github.com/drummonds/goPDFTools/pipeline/toolrun"
)

// Kind classifies a transformation failure. The string values are part of
// the API: the boundary layer serializes them verbatim in error responses.
type Kind string

const (
	KindValidation            Kind = "ValidationError"
	KindUnsupportedConversion Kind = "UnsupportedConversion"
	KindToolUnavailable       Kind = "ToolUnavailable"
	KindToolTimeout           Kind = "ToolTimeout"
	KindToolExecutionFailed   Kind = "ToolExecutionFailed"
	KindToolOutputMissing     Kind = "ToolOutputMissing"
	KindToolChainExhausted    Kind = "ToolChainExhausted"
	KindNoPagesProcessed      Kind = "NoPagesProcessed"
	KindIncorrectPassword     Kind = "IncorrectPasswordOrUnsupported"
	KindInternal              Kind = "InternalError"
)

// Error is the single error type the orchestrator returns. Everything raised
// below it is mapped onto one Kind before leaving the pipeline.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, eg "merge", "convert"
	Message string
	Err     error // wrapped cause, nil for pure validation failures
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality so callers can match with errors.Is against a
// bare &Error{Kind: ...} probe.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func wrapError(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// validationErrorf builds a KindValidation error; these carry no cause and
// must be raised before any file beyond the tracked upload is touched.
func validationErrorf(op, format string, args ...any) *Error {
	return newError(KindValidation, op, fmt.Sprintf(format, args...))
}

// KindOf extracts the taxonomy kind from any error returned by the
// pipeline. Unknown errors report KindInternal.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// classify maps errors raised by the lower layers (tool adapter, page
// model) onto the taxonomy. It is the single funnel at the orchestrator
// boundary: nothing below it needs to know the public kinds.
func classify(op string, err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}

	var chain *toolrun.ChainError
	if errors.As(err, &chain) {
		return wrapError(KindToolChainExhausted, op, chain.Summary(), err)
	}
	var run *toolrun.RunError
	if errors.As(err, &run) {
		switch run.Reason {
		case toolrun.ReasonUnavailable:
			return wrapError(KindToolUnavailable, op, fmt.Sprintf("%s is not installed", run.Tool), err)
		case toolrun.ReasonTimeout:
			return wrapError(KindToolTimeout, op, fmt.Sprintf("%s timed out", run.Tool), err)
		case toolrun.ReasonOutputMissing:
			return wrapError(KindToolOutputMissing, op, fmt.Sprintf("%s produced no output", run.Tool), err)
		default:
			return wrapError(KindToolExecutionFailed, op, fmt.Sprintf("%s failed", run.Tool), err)
		}
	}

	switch {
	case errors.Is(err, pdfops.ErrNoPagesProcessed):
		return wrapError(KindNoPagesProcessed, op, "no pages could be processed", err)
	case errors.Is(err, pdfops.ErrInvalidPageNumber):
		return wrapError(KindValidation, op, err.Error(), err)
	case errors.Is(err, pdfops.ErrInvalidOption):
		return wrapError(KindValidation, op, err.Error(), err)
	case errors.Is(err, pdfops.ErrUnreadableDocument):
		return wrapError(KindValidation, op, err.Error(), err)
	}

	return wrapError(KindInternal, op, "transformation failed", err)
}
