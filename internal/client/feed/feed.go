// Package feed maintains the single ordered, de-duplicated sequence of
// security events shown to the user. It reconciles a bounded historical
// snapshot with an append-only stream of live pushes: the snapshot replaces
// the sequence wholesale, live pushes are prepended as they arrive.
package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/safewatch/internal/common"
	"github.com/dmitrijs2005/safewatch/internal/events"
	"github.com/dmitrijs2005/safewatch/internal/logging"
)

// State is the lifecycle of the snapshot load. Failed is still a rendered
// state: the sequence is empty but the view never spins forever.
type State int

const (
	StatePending State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshotter retrieves the most recent events for the authenticated owner,
// ordered by event timestamp descending. Repeated calls with no new data
// return the same set.
type Snapshotter[E events.Event] interface {
	Snapshot(ctx context.Context, limit int) ([]E, error)
}

// Handle is a scoped live-subscription resource. Close releases the channel;
// no callback fires after Close returns. Close is idempotent.
type Handle interface {
	Close() error
}

// Subscriber opens a long-lived channel delivering each newly created event
// for the authenticated owner. Every notification is one fully-formed
// record, never a delta.
type Subscriber[E events.Event] interface {
	Subscribe(ctx context.Context, onEvent func(E)) (Handle, error)
}

// Feed owns the visible event sequence for one owner-session. Construct one
// per owner; discard it (Close) when the owner changes or the view goes away.
type Feed[E events.Event] struct {
	snap Snapshotter[E]
	sub  Subscriber[E]
	log  logging.Logger

	limit int

	mu     sync.Mutex
	seq    []E
	ids    map[string]struct{}
	state  State
	handle Handle
	closed bool
	onPush func(E)
}

// New creates an empty feed in the pending state. The snapshot window
// defaults to common.SnapshotLimit.
func New[E events.Event](snap Snapshotter[E], sub Subscriber[E], log logging.Logger) *Feed[E] {
	return &Feed[E]{
		snap:  snap,
		sub:   sub,
		log:   log,
		limit: common.SnapshotLimit,
		ids:   make(map[string]struct{}),
		state: StatePending,
	}
}

// Load opens the live subscription and then fetches the snapshot. The
// snapshot replaces whatever the sequence holds at that moment, so a push
// delivered before the snapshot resolves is overwritten; this matches the
// upstream contract, which does not guarantee delivery across that race.
//
// A failed fetch leaves the sequence empty and the state Failed; the caller
// can still render. A snapshot that resolves after Close is discarded.
func (f *Feed[E]) Load(ctx context.Context) error {
	handle, err := f.sub.Subscribe(ctx, f.push)
	if err != nil {
		f.log.Warn(ctx, "live subscription unavailable", "error", err)
	} else {
		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			_ = handle.Close()
			return common.ErrSubscriptionClosed
		}
		f.handle = handle
		f.mu.Unlock()
	}

	list, err := f.snap.Snapshot(ctx, f.limit)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		// stale owner: the view was torn down while the fetch was in
		// flight, the result must not be applied
		return common.ErrSubscriptionClosed
	}

	if err != nil {
		f.seq = nil
		f.ids = make(map[string]struct{})
		f.state = StateFailed
		f.log.Error(ctx, "snapshot fetch failed", "error", err)
		return fmt.Errorf("%w: %v", common.ErrFetchFailed, err)
	}

	f.seq = make([]E, len(list))
	copy(f.seq, list)
	f.ids = make(map[string]struct{}, len(list))
	for _, e := range list {
		f.ids[e.EventID()] = struct{}{}
	}
	f.state = StateReady
	return nil
}

// push prepends a live event to the head of the sequence regardless of its
// timestamp: newest activity surfaces first even under clock skew. An event
// whose id is already present is dropped silently (a push can race the
// snapshot and re-deliver a record the snapshot already contained).
func (f *Feed[E]) push(e E) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	if _, dup := f.ids[e.EventID()]; dup {
		return
	}
	f.ids[e.EventID()] = struct{}{}
	f.seq = append([]E{e}, f.seq...)

	if f.onPush != nil {
		f.onPush(e)
	}
}

// OnPush registers fn to run for each accepted live push (duplicates never
// fire it). Pass nil to unregister. The callback runs on the delivery
// goroutine and must not call back into the feed.
func (f *Feed[E]) OnPush(fn func(E)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onPush = fn
}

// Events returns a copy of the current sequence, newest first.
func (f *Feed[E]) Events() []E {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]E, len(f.seq))
	copy(out, f.seq)
	return out
}

// State reports whether the initial load is pending, done, or failed.
func (f *Feed[E]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Len returns the current sequence length.
func (f *Feed[E]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seq)
}

// Close releases the live subscription and marks the feed defunct. After
// Close returns, no further push or late-resolving snapshot mutates the
// sequence. Safe to call more than once.
func (f *Feed[E]) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	handle := f.handle
	f.handle = nil
	f.mu.Unlock()

	if handle != nil {
		return handle.Close()
	}
	return nil
}
