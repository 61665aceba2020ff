package upload

import (
	"context"
	"errors"
	"fmt"

	"github.com/cerebroscan/backend/internal/inference"
)

var (
	// ErrBusy is returned when a submission is already in flight.
	ErrBusy = errors.New("an upload is already in progress")
	// ErrEmptyBatch is returned when no readable, non-empty file was supplied.
	ErrEmptyBatch = errors.New("no readable files to upload")
)

// TransportError means the request could not be sent or no response arrived.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("inference service unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the request exceeded its deadline.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// ServiceError means the service answered with a non-2xx status.
type ServiceError struct {
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("inference service failed (status %d): %v", e.StatusCode, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// DecodeError means the response body could not be matched to the batch.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unusable inference response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// classify wraps a predictor error into the pipeline taxonomy.
func classify(err error) error {
	var statusErr *inference.StatusError
	if errors.As(err, &statusErr) {
		return &ServiceError{StatusCode: statusErr.StatusCode, Err: err}
	}
	return &TransportError{Err: err}
}

// UserMessage is the user-facing notice for a failed cycle.
func UserMessage(err error) string {
	var (
		transportErr *TransportError
		serviceErr   *ServiceError
		decodeErr    *DecodeError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return "Upload cancelled."
	case errors.As(err, &transportErr):
		return "Upload failed. Backend not responding."
	case errors.As(err, &serviceErr):
		return fmt.Sprintf("Backend error (status %d).", serviceErr.StatusCode)
	case errors.As(err, &decodeErr):
		return "Backend returned an unexpected response."
	case errors.Is(err, ErrEmptyBatch):
		return "No readable files to upload."
	}
	return err.Error()
}
