package memory

import "fmt"

// ValidationError reports a malformed field on a fact or episode.
// It is always surfaced to the caller, never silently coerced.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("memory: invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an update or lookup against an unknown id.
type NotFoundError struct {
	Kind string // "fact" or "episode"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("memory: %s %s not found", e.Kind, e.ID)
}

// StorageError wraps an underlying database failure. It is propagated
// as-is; retry policy belongs to the caller.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("memory: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
