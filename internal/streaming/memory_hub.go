package streaming

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rendis/flagbridge/pkg/schema"
)

const defaultChannelBuffer = 64

// subscriber holds a channel and filter for a single subscriber.
type subscriber struct {
	ch     chan RecordEvent
	filter EventFilter
}

// MemoryHub is an in-memory EventHub implementation using channels.
// It also satisfies resolver.Sink, so it can be handed to a tracking
// resolver directly.
type MemoryHub struct {
	mu   sync.RWMutex
	subs map[uint64]*subscriber
	seq  atomic.Uint64

	dropped atomic.Uint64
}

// NewMemoryHub creates a new MemoryHub.
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{
		subs: make(map[uint64]*subscriber),
	}
}

// Publish sends the matching part of event to every subscriber.
// Non-blocking: if a subscriber's channel is full the event is dropped.
func (h *MemoryHub) Publish(ctx context.Context, event RecordEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		matched, ok := applyFilter(sub.filter, event)
		if !ok {
			continue
		}
		select {
		case sub.ch <- matched:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// Add publishes records tracked for flagKey.
func (h *MemoryHub) Add(ctx context.Context, flagKey string, records schema.Records) error {
	return h.Publish(ctx, RecordEvent{FlagKey: flagKey, Records: records})
}

// Subscribe creates a new subscription filtered by the given EventFilter.
// The cancel function closes the channel and is safe to call more than once.
func (h *MemoryHub) Subscribe(ctx context.Context, filter EventFilter) (<-chan RecordEvent, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	id := h.seq.Add(1)
	ch := make(chan RecordEvent, defaultChannelBuffer)

	h.mu.Lock()
	h.subs[id] = &subscriber{ch: ch, filter: filter}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			close(ch)
			h.mu.Unlock()
		})
	}

	return ch, cancel, nil
}

// Subscribers returns the number of active subscriptions.
func (h *MemoryHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were lost to full channels.
func (h *MemoryHub) Dropped() uint64 {
	return h.dropped.Load()
}

// applyFilter narrows event to the records f accepts. ok is false when
// nothing is left to deliver.
func applyFilter(f EventFilter, e RecordEvent) (RecordEvent, bool) {
	if f.FlagKey != "" && f.FlagKey != e.FlagKey {
		return RecordEvent{}, false
	}
	if len(f.Types) == 0 {
		return e, len(e.Records) > 0
	}

	kept := make(schema.Records, 0, len(e.Records))
	for _, r := range e.Records {
		if slices.Contains(f.Types, r.Type()) {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return RecordEvent{}, false
	}
	return RecordEvent{FlagKey: e.FlagKey, Records: kept}, true
}

var _ EventHub = (*MemoryHub)(nil)
