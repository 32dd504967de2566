package publish

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"medicamentos-etl/core/dataset"
)

// Kind classifies a publish failure.
type Kind string

const (
	// KindSchema means the input does not have the required shape. Nothing was mutated.
	KindSchema Kind = "schema"
	// KindAmbiguousJoin means the merge found several pricing rows for one registration under the reject policy.
	KindAmbiguousJoin Kind = "ambiguous_join"
	// KindStagingLoad means loading the staging artifact failed. Production is untouched.
	KindStagingLoad Kind = "staging_load"
	// KindSwap means the atomic replacement failed and was rolled back.
	KindSwap Kind = "swap"
	// KindCleanup means a staging or retired artifact could not be removed. Never fatal.
	KindCleanup Kind = "cleanup"
)

// Error is a classified publish failure for one target and step.
type Error struct {
	Kind   Kind
	Target string
	Step   string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Target != "" {
		b.WriteString(" [")
		b.WriteString(e.Target)
		b.WriteString("]")
	}
	if e.Step != "" {
		b.WriteString(" during ")
		b.WriteString(e.Step)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether rerunning the publish with the same input may succeed.
// A primary-key violation is a property of the data and is never retryable.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindStagingLoad, KindSwap:
		return !IsUniqueViolation(e.Err)
	default:
		return false
	}
}

func newError(kind Kind, target, step string, err error) *Error {
	return &Error{Kind: kind, Target: target, Step: step, Err: err}
}

// KindOf returns the kind of the first classified error in the chain, or "".
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	var se *dataset.SchemaError
	if errors.As(err, &se) {
		return KindSchema
	}
	return ""
}

// IsUniqueViolation reports whether err carries a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// PublishError is returned when at least one target failed.
type PublishError struct {
	Report *Report
	Errs   []error
}

func (e *PublishError) Error() string {
	failed := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		failed = append(failed, err.Error())
	}
	return fmt.Sprintf("publish %s %s: %s", e.Report.Dataset, e.Report.Outcome, strings.Join(failed, "; "))
}

func (e *PublishError) Unwrap() []error {
	return e.Errs
}

// Retryable reports whether every failed target failed in a retryable way.
func (e *PublishError) Retryable() bool {
	if len(e.Errs) == 0 {
		return false
	}
	for _, err := range e.Errs {
		var pe *Error
		if !errors.As(err, &pe) || !pe.Retryable() {
			return false
		}
	}
	return true
}
