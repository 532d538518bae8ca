package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCounterUnavailable signals that the interface byte counters could not be read.
	ErrCounterUnavailable = errors.New("counter unavailable")
	// ErrStoreUnavailable signals that the period store backend could not be reached.
	ErrStoreUnavailable = errors.New("period store unavailable")
	// ErrNotifierUnavailable signals a notification delivery failure.
	ErrNotifierUnavailable = errors.New("notifier unavailable")
	// ErrStoreLocked signals that another process holds the data file lock.
	ErrStoreLocked = errors.New("period store locked by another process")
)

// CounterError wraps ErrCounterUnavailable with the interface and counter name.
type CounterError struct {
	Interface string
	Counter   string
	Err       error
}

func (e *CounterError) Error() string {
	return fmt.Sprintf("%s: %s/%s: %v", ErrCounterUnavailable.Error(), e.Interface, e.Counter, e.Err)
}

func (e *CounterError) Unwrap() []error { return []error{ErrCounterUnavailable, e.Err} }

// NewCounterError creates a counter error for the given interface counter.
func NewCounterError(iface, counter string, err error) error {
	return &CounterError{Interface: iface, Counter: counter, Err: err}
}
