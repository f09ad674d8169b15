package store

import (
	"context"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// queryTimeout bounds the re-query that backs each snapshot delivery.
const queryTimeout = 5 * time.Second

// Snapshot is one full delivery of a user's transaction list. The list
// is complete and re-sorted on every change; consumers never receive
// incremental patches.
type Snapshot struct {
	Transactions []core.Transaction
}

type subscriber struct {
	uid string
	ch  chan Snapshot
}

// Hub implements the live-query side of the backend contract: a
// cancellable subscription per user that re-delivers the complete
// result set whenever the underlying data changes. Slow consumers see
// coalesced snapshots (latest wins), matching the guarantee that a
// write is reflected in *some* subsequent snapshot but not necessarily
// in exactly one.
type Hub struct {
	repo   Repository
	logger *log.Logger

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func NewHub(repo Repository, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Hub{
		repo:   repo,
		logger: logger.WithComponent(log.ComponentStore),
		subs:   make(map[*subscriber]struct{}),
	}
}

// Subscribe registers a live query for uid and returns a snapshot
// channel plus a cancel func. The current list is delivered
// immediately; an empty uid (unauthenticated) yields one empty
// snapshot and never fires again. The channel is closed on cancel or
// when ctx is done.
func (h *Hub) Subscribe(ctx context.Context, uid string) (<-chan Snapshot, func()) {
	sub := &subscriber{uid: uid, ch: make(chan Snapshot, 1)}

	if uid == "" {
		sub.ch <- Snapshot{}
	} else {
		h.mu.Lock()
		h.subs[sub] = struct{}{}
		h.mu.Unlock()
		h.deliver(sub)
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			h.mu.Unlock()
			close(sub.ch)
		})
	}

	stop := context.AfterFunc(ctx, cancel)
	return sub.ch, func() {
		stop()
		cancel()
	}
}

// Invalidate re-queries uid's transactions and re-delivers the full
// list to every live subscription for that user. Called after local
// mutations and on remote change-feed events.
func (h *Hub) Invalidate(uid string) {
	h.mu.Lock()
	targets := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		if sub.uid == uid {
			targets = append(targets, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range targets {
		h.deliver(sub)
	}
}

// Subscribers returns the number of live subscriptions, for readiness
// reporting.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) deliver(sub *subscriber) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	txs, err := h.repo.ListByUser(ctx, sub.uid)
	if err != nil {
		h.logger.ErrorContext(ctx, "Live query failed",
			log.FieldUID, sub.uid,
			log.FieldOperation, log.OpSubscribe,
			log.FieldError, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, live := h.subs[sub]; !live {
		return
	}
	// Latest wins: drop the queued snapshot if the consumer is behind.
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- Snapshot{Transactions: txs}
}
