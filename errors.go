package cacheable

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("cacheable: configuration error")
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("cacheable: not found")
	// ErrValueType is reported when an adapter hands back a value of the wrong type.
	ErrValueType = errors.New("cacheable: unexpected value type")
)

// ConfigurationError reports an invalid declaration. It is raised while
// resolving or constructing, never while serving a call.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("cacheable: invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// BackendError wraps a failed cache backend call.
type BackendError struct {
	Op  string // get, set, delete, flush
	Key Key
	Err error
}

func (e *BackendError) Error() string {
	if e.Key == nil {
		return fmt.Sprintf("cacheable: backend %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("cacheable: backend %s %v: %v", e.Op, e.Key, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// NotFoundError reports a cache name the registry could not resolve.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cacheable: cache %q not found", e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// backendErr wraps err as a *BackendError unless it already is one.
func backendErr(op string, key Key, err error) error {
	if err == nil {
		return nil
	}
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return &BackendError{Op: op, Key: key, Err: err}
}
