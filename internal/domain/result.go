package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a probe, cycle or alert delivery failed.
type ErrorKind string

const (
	ProbeTimeout         ErrorKind = "ProbeTimeout"
	ProbeTransportError  ErrorKind = "ProbeTransportError"
	ProbeServerError     ErrorKind = "ProbeServerError"
	CycleInternalError   ErrorKind = "CycleInternalError"
	TransportNotifyError ErrorKind = "TransportNotifyError"
)

// TimeoutMessage is the error text recorded for probes that hit their deadline.
const TimeoutMessage = "Timeout"

var (
	ErrUnknownTarget   = errors.New("unknown target")
	ErrDuplicateTarget = errors.New("duplicate target id")
	ErrStaleSnapshot   = errors.New("snapshot is older than the current one")
)

// CycleError reports a cycle that failed outside individual probe handling.
// The previous snapshot stays current when one is returned.
type CycleError struct {
	CycleID string
	Reason  string
	Err     error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle %s (%s) failed: %v", e.CycleID, e.Reason, e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }

// Kind implements the same classification used by outcomes.
func (e *CycleError) Kind() ErrorKind { return CycleInternalError }
