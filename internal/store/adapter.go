package store

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// ChangeNotifier publishes committed mutations to other instances so
// their live queries fire too. A nil notifier is valid; the store then
// works standalone.
type ChangeNotifier interface {
	PublishChange(ctx context.Context, uid, op, id string) error
}

// Adapter exposes the mutation side of the backend contract. Every
// successful mutation is observed indirectly through the subscription
// stream firing again; callers must not assume local state changed
// before the next snapshot arrives.
type Adapter struct {
	repo     Repository
	hub      *Hub
	notifier ChangeNotifier
	logger   *log.Logger
}

func NewAdapter(repo Repository, hub *Hub, notifier ChangeNotifier, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Adapter{
		repo:     repo,
		hub:      hub,
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentStore),
	}
}

// Hub returns the live-query hub backing this adapter.
func (a *Adapter) Hub() *Hub {
	return a.hub
}

// Create validates the draft, assigns ownership to uid and persists a
// new transaction. The id and creation timestamp are assigned by the
// backend. Validation failures are returned as-is; backend failures
// come back as a WriteError and are not retried.
func (a *Adapter) Create(ctx context.Context, uid string, draft core.Draft) (core.Transaction, error) {
	tx := core.Transaction{
		UID:      uid,
		Type:     draft.Type,
		Title:    draft.Title,
		Amount:   draft.Amount,
		Category: draft.Category,
		Note:     draft.Note,
		Date:     draft.Date,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := a.repo.Insert(ctx, tx)
	if err != nil {
		return core.Transaction{}, &WriteError{Op: log.OpCreate, Err: err}
	}

	a.logger.InfoContext(ctx, "Transaction created",
		log.FieldUID, uid,
		log.FieldTxID, created.ID,
		log.FieldTxType, created.Type.String(),
		log.FieldCategory, created.Category,
		log.FieldAmount, created.Amount)

	a.changed(ctx, uid, log.OpCreate, created.ID)
	return created, nil
}

// Update overwrites the editable fields of the given transaction.
// updatedAt is supplied by the caller per the backend contract.
func (a *Adapter) Update(ctx context.Context, uid, id string, draft core.Draft, updatedAt time.Time) error {
	if err := draft.Validate(); err != nil {
		return err
	}

	tx := core.Transaction{
		Type:      draft.Type,
		Title:     draft.Title,
		Amount:    draft.Amount,
		Category:  draft.Category,
		Note:      draft.Note,
		Date:      draft.Date,
		UpdatedAt: updatedAt,
	}
	if err := a.repo.Update(ctx, uid, id, tx); err != nil {
		return &WriteError{Op: log.OpUpdate, Err: err}
	}

	a.logger.InfoContext(ctx, "Transaction updated",
		log.FieldUID, uid,
		log.FieldTxID, id)

	a.changed(ctx, uid, log.OpUpdate, id)
	return nil
}

// Delete removes a transaction. Deleting an id that is already absent
// is not an error: the end state is the same and the next snapshot
// reflects backend truth either way.
func (a *Adapter) Delete(ctx context.Context, uid, id string) error {
	err := a.repo.Delete(ctx, uid, id)
	if errors.Is(err, ErrNotFound) {
		a.logger.WarnContext(ctx, "Delete of absent transaction ignored",
			log.FieldUID, uid,
			log.FieldTxID, id)
		err = nil
	}
	if err != nil {
		return &WriteError{Op: log.OpDelete, Err: err}
	}

	a.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldUID, uid,
		log.FieldTxID, id)

	a.changed(ctx, uid, log.OpDelete, id)
	return nil
}

func (a *Adapter) changed(ctx context.Context, uid, op, id string) {
	a.hub.Invalidate(uid)
	if a.notifier == nil {
		return
	}
	if err := a.notifier.PublishChange(ctx, uid, op, id); err != nil {
		// The local write already succeeded; remote instances catch up on
		// their next query.
		a.logger.ErrorContext(ctx, "Failed to publish change notification",
			log.FieldUID, uid,
			log.FieldOperation, op,
			log.FieldError, err)
	}
}
