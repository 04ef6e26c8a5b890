package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateAlias is returned by a store when its unique index rejects
	// an insert. The registration service turns it into an AliasTakenError.
	ErrDuplicateAlias = errors.New("alias already exists")

	// ErrAliasExhausted means every generated alias candidate collided.
	ErrAliasExhausted = errors.New("could not allocate a free alias")
)

// AliasTakenError reports that the requested alias is already mapped.
// Existing holds the mapping currently owning the alias when it is known.
type AliasTakenError struct {
	Alias    string
	Existing *Mapping
}

func (e *AliasTakenError) Error() string {
	return fmt.Sprintf("alias %q is already taken", e.Alias)
}

// StoreError wraps an infrastructure failure of the persistent store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ValidationError reports malformed input detected before any store access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsAliasTaken reports whether err is (or wraps) an AliasTakenError and
// returns it.
func IsAliasTaken(err error) (*AliasTakenError, bool) {
	var taken *AliasTakenError
	if errors.As(err, &taken) {
		return taken, true
	}
	return nil, false
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// IsStore reports whether err is (or wraps) a StoreError.
func IsStore(err error) bool {
	var s *StoreError
	return errors.As(err, &s)
}
