package db

import "fmt"

// PersistenceError wraps a failed store write. Callers keep their in-memory
// state unchanged when they see one.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
