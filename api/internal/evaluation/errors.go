package evaluation

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("evaluation not found")
	ErrOracleTimeout = errors.New("oracle call timed out")
)

// InvalidInputError rejects a request before any oracle quota is spent.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// OracleError covers attachment upload, readiness, generation and reply
// decoding. Timeout is set when the per-call deadline ran out.
type OracleError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *OracleError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("oracle %s: timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("oracle %s: %v", e.Op, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

func (e *OracleError) Is(target error) bool {
	return target == ErrOracleTimeout && e.Timeout
}

// PersistenceError is a datastore failure. Oracle work done before it is
// not undone.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NoValidEvaluationsError means a batch finished without a single
// persisted record.
type NoValidEvaluationsError struct {
	Total   int
	Skipped int
	Failed  int
}

func (e *NoValidEvaluationsError) Error() string {
	return fmt.Sprintf("no valid evaluations: %d submissions, %d skipped, %d failed", e.Total, e.Skipped, e.Failed)
}
