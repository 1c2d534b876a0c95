package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBankNotFound indicates the provider has no bank with the requested ID.
	ErrBankNotFound = errors.New("bank not found")
	// ErrKeyNotFound is returned by key/value stores for absent keys.
	ErrKeyNotFound = errors.New("key not found")
	// ErrStorageCorrupt marks persisted data that could not be decoded. It is never surfaced to callers.
	ErrStorageCorrupt = errors.New("stored data is corrupt")
	// ErrInvalidTarget is returned by Jump for a token that is neither a number nor a known question ID.
	ErrInvalidTarget = errors.New("invalid jump target")
	// ErrNotRandomSession is returned when a random-set operation runs outside a random set.
	ErrNotRandomSession = errors.New("not a random set session")
	// ErrIncompleteSubmission is returned when a random set still has unanswered questions.
	ErrIncompleteSubmission = errors.New("every question needs a selection before submitting")
	// ErrNoSession is returned when no bank has been loaded yet.
	ErrNoSession = errors.New("no bank loaded")
)

// FetchError reports a failed bank retrieval. Status is the provider's HTTP status,
// or 0 when no response was received.
type FetchError struct {
	BankID string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.BankID == "" {
		return fmt.Sprintf("fetch bank list: status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("fetch bank %q: status %d: %v", e.BankID, e.Status, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// AsFetchError wraps err into a FetchError unless it already is one.
func AsFetchError(bankID string, err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	status := 0
	if errors.Is(err, ErrBankNotFound) {
		status = 404
	}
	return &FetchError{BankID: bankID, Status: status, Err: err}
}
