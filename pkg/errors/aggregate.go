package errors

import (
	"github.com/hashicorp/go-multierror"

	stringpool "github.com/ajitpratap0/apimtpl/pkg/strings"
)

// ViolationSeparator joins the violations of a failed stage into one message
const ViolationSeparator = "; "

// JoinFormat renders aggregated violations as a single "; "-joined line
func JoinFormat(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return stringpool.JoinPooled(msgs, ViolationSeparator)
}

// Collector accumulates every violation found by one pipeline stage so the
// stage can report them together instead of failing on the first one.
type Collector struct {
	stage string
	merr  *multierror.Error
}

// NewCollector creates a collector for the named stage
func NewCollector(stage string) *Collector {
	return &Collector{stage: stage}
}

// Add records a violation. Nil errors are ignored and nested stage errors are
// flattened into this collector.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}
	var stageErr *StageError
	if As(err, &stageErr) {
		c.merr = multierror.Append(c.merr, stageErr.Violations()...)
	} else {
		c.merr = multierror.Append(c.merr, err)
	}
	c.merr.ErrorFormat = JoinFormat
}

// Addf records a new structured violation
func (c *Collector) Addf(errType ErrorType, format string, args ...interface{}) *Error {
	err := Newf(errType, format, args...)
	err.Stack = captureStack(2)
	c.Add(err)
	return err
}

// Len returns the number of collected violations
func (c *Collector) Len() int {
	if c.merr == nil {
		return 0
	}
	return c.merr.Len()
}

// Err returns nil when nothing was collected, otherwise a *StageError
func (c *Collector) Err() error {
	if c.Len() == 0 {
		return nil
	}
	return &StageError{Stage: c.stage, merr: c.merr}
}

// StageError is the single error surfaced by a failed stage. Its message is
// the "; "-joined concatenation of every violation.
type StageError struct {
	Stage string
	merr  *multierror.Error
}

// Error implements the error interface
func (e *StageError) Error() string {
	return e.merr.Error()
}

// Violations returns the individual violations in the order they were found
func (e *StageError) Violations() []error {
	return e.merr.WrappedErrors()
}

// Unwrap exposes every violation to errors.Is and errors.As
func (e *StageError) Unwrap() []error {
	return e.Violations()
}
