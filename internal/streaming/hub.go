// Package streaming fans tracked records out to in-process subscribers.
package streaming

import (
	"context"

	"github.com/rendis/flagbridge/pkg/schema"
)

// RecordEvent carries the records tracked for one flag resolution.
type RecordEvent struct {
	FlagKey string         `json:"flagKey"`
	Records schema.Records `json:"records"`
}

// EventFilter specifies which records a subscriber wants to receive.
// Empty fields match everything.
type EventFilter struct {
	FlagKey string            `json:"flagKey,omitempty"`
	Types   []schema.DataType `json:"types,omitempty"`
}

// EventHub provides pub/sub for tracked records.
type EventHub interface {
	Publish(ctx context.Context, event RecordEvent) error
	Subscribe(ctx context.Context, filter EventFilter) (<-chan RecordEvent, func(), error)
}
