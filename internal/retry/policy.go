package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cmsimport/internal/services"
)

// Class groups failures that share a retry budget.
type Class int

const (
	ClassFatal Class = iota
	ClassTimeout
	ClassAuthorization
	ClassCommunication
)

func (c Class) String() string {
	switch c {
	case ClassFatal:
		return "fatal"
	case ClassTimeout:
		return "timeout"
	case ClassAuthorization:
		return "authorization"
	case ClassCommunication:
		return "communication"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

const (
	DefaultMaxTimeoutAttempts = 10
	DefaultTimeoutDelay       = 2 * time.Second
	DefaultCommunicationDelay = 15 * time.Second
)

// Policy describes how each failure class is retried.
type Policy struct {
	// MaxTimeoutAttempts caps the total number of attempts when every
	// failure is a timeout.
	MaxTimeoutAttempts int
	TimeoutDelay       time.Duration
	CommunicationDelay time.Duration
	// Classify maps an operation error to its class. Nil uses Classify.
	Classify func(error) Class
}

// DefaultPolicy returns the stock budgets.
func DefaultPolicy() Policy {
	return Policy{
		MaxTimeoutAttempts: DefaultMaxTimeoutAttempts,
		TimeoutDelay:       DefaultTimeoutDelay,
		CommunicationDelay: DefaultCommunicationDelay,
		Classify:           Classify,
	}
}

// Classify maps the services error markers to retry classes. Context
// cancellation and unmarked errors are fatal.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassFatal
	case errors.Is(err, context.Canceled):
		return ClassFatal
	case errors.Is(err, services.ErrTimeout):
		return ClassTimeout
	case errors.Is(err, services.ErrAuthorization):
		return ClassAuthorization
	case errors.Is(err, services.ErrCommunication):
		return ClassCommunication
	default:
		return ClassFatal
	}
}

// Error reports an operation that ran out of retries.
type Error struct {
	Op       string
	Class    Class
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	noun := "attempts"
	if e.Attempts == 1 {
		noun = "attempt"
	}
	return fmt.Sprintf("%s: %s failure after %d %s: %v", e.Op, e.Class, e.Attempts, noun, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ClassOf extracts the retry class from err, or ClassFatal when err did not
// come from an Executor.
func ClassOf(err error) Class {
	var retryErr *Error
	if errors.As(err, &retryErr) {
		return retryErr.Class
	}
	return ClassFatal
}
