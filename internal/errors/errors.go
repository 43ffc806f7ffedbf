// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrQueueFull is returned when pending + running jobs reached the queue capacity.
var ErrQueueFull = errors.New("queue is full, retry later")

// ErrQueueClosed is returned by Enqueue once shutdown started.
var ErrQueueClosed = errors.New("queue is shutting down")

// ErrJobTimeout marks a job forcibly failed by the pool.
var ErrJobTimeout = errors.New("job timed out")

// ErrJobNotFound is returned by status lookups for unknown or swept jobs
type ErrJobNotFound struct {
	JobID string
}

func (e *ErrJobNotFound) Error() string {
	return fmt.Sprintf("job with ID %s not found", e.JobID)
}

func NewJobNotFound(id string) error {
	return &ErrJobNotFound{JobID: id}
}

type ErrTemplateNotFound struct {
	TemplateCode string
}

func (e *ErrTemplateNotFound) Error() string {
	return fmt.Sprintf("template with code %s not found", e.TemplateCode)
}

func NewTemplateNotFound(code string) error {
	return &ErrTemplateNotFound{TemplateCode: code}
}

// ValidationError is raised before anything is queued.
type ValidationError struct {
	Code   string
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Fields, ", "))
}

func NewMissingFields(fields ...string) error {
	return &ValidationError{Code: "INVALID_PARAMS", Fields: fields, Reason: "missing required parameters"}
}

func NewValidation(code, reason string) error {
	return &ValidationError{Code: code, Reason: reason}
}

// PersistenceError wraps a failed audit log write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func NewPersistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
