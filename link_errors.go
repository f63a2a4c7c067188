package main

import (
	"errors"
	"fmt"
)

// Link failure kinds. Match with errors.Is.
var (
	ErrPermissionDenied    = errors.New("permission denied")
	ErrScanTimeout         = errors.New("scan timeout")
	ErrConnectFailure      = errors.New("connect failure")
	ErrLinkDropped         = errors.New("link dropped")
	ErrTransmitFailure     = errors.New("transmit failure")
	ErrNotConnected        = errors.New("not connected")
	ErrOperationInProgress = errors.New("operation in progress")
	ErrAdapterFailure      = errors.New("adapter failure")
)

// LinkError describes a failed LinkSession operation
type LinkError struct {
	Kind error  // one of the Err* kinds above
	Op   string // connect, send, disconnect

	// Chunk progress, set for send failures
	Delivered int
	Total     int

	Err error // underlying cause, may be nil
}

func (e *LinkError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.Op == "send" && e.Total > 0 {
		msg += fmt.Sprintf(" (%d/%d chunks delivered)", e.Delivered, e.Total)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches the error kind
func (e *LinkError) Is(target error) bool {
	return e.Kind == target
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

func newLinkError(op string, kind, cause error) *LinkError {
	return &LinkError{Op: op, Kind: kind, Err: cause}
}
