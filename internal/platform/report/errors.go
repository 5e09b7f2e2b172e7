package report

import (
	"errors"
	"fmt"
)

var (
	ErrMissingPatientName = errors.New("report: patient first and last name are required")
	ErrForeignRecord      = errors.New("report: record belongs to another patient")
	ErrUnknownStyle       = errors.New("report: unknown style")
)

// RenderError wraps a failure raised by the canvas while drawing or encoding.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("report: %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ErrPatientNotFound is returned by a DataFetcher for an unknown patient.
var ErrPatientNotFound = errors.New("report: patient not found")
