package store

import (
	"errors"
	"fmt"
)

// ErrSeedNotFound indicates the seed file does not exist. Callers treat this
// as a warning and start from an empty collection.
var ErrSeedNotFound = errors.New("seed file not found")

// ErrDuplicateID is returned by the insert path when a generated record's id
// collides with an existing one. It drives the retry loop in
// AppendGenerated and is never surfaced to users.
var ErrDuplicateID = errors.New("duplicate record id")

// SchemaError reports a record that failed validation during load. The whole
// load is aborted on the first invalid record; there is no partial-load
// recovery at this layer.
type SchemaError struct {
	Index int
	Err   error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("record %d failed validation: %v", e.Index, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }
