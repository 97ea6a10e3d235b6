// Package realtime fans database insert notifications out to live stream
// subscribers. The listener owns a dedicated LISTEN connection; the hub
// routes each decoded notification to the owner's subscribers.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/safewatch/internal/events"
	"github.com/dmitrijs2005/safewatch/internal/logging"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls this far behind is disconnected rather than allowed to stall
// the listener.
const subscriberBuffer = 16

// Notification is one inserted row, routed by owner and table. Row is the
// raw JSON of the inserted record.
type Notification struct {
	Table  events.Table
	UserID string
	Row    json.RawMessage
}

type subKey struct {
	userID string
	table  events.Table
}

type subscriber struct {
	ch chan json.RawMessage
}

// Hub is a per-owner, per-table registry of live subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[subKey]map[*subscriber]struct{}
	log  logging.Logger
}

func NewHub(log logging.Logger) *Hub {
	return &Hub{
		subs: make(map[subKey]map[*subscriber]struct{}),
		log:  log,
	}
}

// Subscribe registers for the owner's inserts into one table. The returned
// cancel func is idempotent; after it returns no more rows are delivered
// and the channel is closed.
func (h *Hub) Subscribe(userID string, table events.Table) (<-chan json.RawMessage, func()) {
	key := subKey{userID: userID, table: table}
	sub := &subscriber{ch: make(chan json.RawMessage, subscriberBuffer)}

	h.mu.Lock()
	set, ok := h.subs[key]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[key] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			h.remove(key, sub)
			h.mu.Unlock()
		})
	}
	return sub.ch, cancel
}

// remove must be called with h.mu held.
func (h *Hub) remove(key subKey, sub *subscriber) {
	set, ok := h.subs[key]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, key)
	}
	close(sub.ch)
}

// Publish delivers a notification to every matching subscriber. The send
// never blocks: a subscriber with a full buffer is dropped, since a live
// feed that cannot keep up is better reconnected than stalled.
func (h *Hub) Publish(ctx context.Context, n Notification) int {
	key := subKey{userID: n.UserID, table: n.Table}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for sub := range h.subs[key] {
		select {
		case sub.ch <- n.Row:
			delivered++
		default:
			h.log.Warn(ctx, "dropping slow stream subscriber",
				"user_id", n.UserID, "table", string(n.Table))
			h.remove(key, sub)
		}
	}
	return delivered
}

// Subscribers reports the current subscriber count across all owners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	total := 0
	for _, set := range h.subs {
		total += len(set)
	}
	return total
}
