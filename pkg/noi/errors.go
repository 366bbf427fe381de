package noi

import (
	"fmt"
	"strings"
)

// FieldError is one violated validation rule, tied to the offending field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string { return e.Message }

// ValidationErrors aggregates all rule violations of one submission so the
// caller can show every problem at once.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Messages returns the human-readable error texts in rule order.
func (v ValidationErrors) Messages() []string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Message
	}
	return msgs
}

// StoreError wraps a row-persistence failure. The submission it belongs to
// was rejected as a whole; no attachment was published.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// AttachmentWriteError reports a failed attachment publish after the row was
// already committed. The record now references a missing file; the reconcile
// pipeline exists to find and repair exactly this state.
type AttachmentWriteError struct {
	SerialNo string
	Filename string
	Err      error
}

func (e *AttachmentWriteError) Error() string {
	return fmt.Sprintf("attachment write for %s (%s): %v", e.SerialNo, e.Filename, e.Err)
}

func (e *AttachmentWriteError) Unwrap() error { return e.Err }
