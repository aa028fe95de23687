package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ConfigurationError reports a missing or invalid shard credential. It is
// raised at startup, before any repository is usable; the layer never falls
// back to a default shard.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Key, e.Reason)
}

// NotFoundError reports that a lookup or lookup-then-update operation found
// no row for the given identity.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// PersistenceError reports a shard write failure (connectivity loss,
// constraint violation). The shard's own transaction has already rolled back;
// callers must not assume partial success, and no automatic retry happens.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConsistencyWarning is the soft condition of a cross-shard reference that
// does not (yet) resolve. Associations are written without existence checks
// and the referenced row may commit later, so readers log this and skip the
// row rather than failing.
type ConsistencyWarning struct {
	From   string
	Entity string
	ID     uuid.UUID
}

func (w *ConsistencyWarning) Error() string {
	return fmt.Sprintf("%s references %s %s which is not present in its shard", w.From, w.Entity, w.ID)
}
