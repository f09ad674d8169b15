// Package store is the transaction store adapter: it binds a
// persistence backend to the live-query hub so that every committed
// mutation is observed again through the subscription stream rather
// than through return values.
package store

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

var (
	// ErrNotFound is returned by repositories when a transaction id does
	// not exist. Delete treats it as success.
	ErrNotFound = errors.New("transaction not found")

	// ErrOwnershipMismatch is returned when a mutation targets a
	// transaction owned by a different user.
	ErrOwnershipMismatch = errors.New("transaction belongs to another user")
)

// Repository is the persistence contract consumed by the adapter.
// Implementations assign the opaque id and the server creation
// timestamp on insert.
type Repository interface {
	// ListByUser returns all transactions owned by uid, ordered by
	// creation timestamp descending.
	ListByUser(ctx context.Context, uid string) ([]core.Transaction, error)

	// Insert persists a new transaction, assigning ID and CreatedAt, and
	// returns the stored document.
	Insert(ctx context.Context, tx core.Transaction) (core.Transaction, error)

	// Update overwrites the editable fields of the transaction with the
	// given id. UID and CreatedAt are never touched.
	Update(ctx context.Context, uid, id string, tx core.Transaction) error

	// Delete removes the transaction with the given id. Implementations
	// return ErrNotFound for absent ids; callers decide whether that is
	// an error.
	Delete(ctx context.Context, uid, id string) error
}

// WriteError wraps a backend failure during create/update/delete. No
// retry is ever attempted; the error is surfaced once to the caller.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// IsWriteError reports whether err is (or wraps) a WriteError.
func IsWriteError(err error) bool {
	var we *WriteError
	return errors.As(err, &we)
}
