package resolver

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/rendis/flagbridge/internal/logging"
	"github.com/rendis/flagbridge/pkg/convert"
	"github.com/rendis/flagbridge/pkg/schema"
)

// Sink receives the records found in a context being resolved.
type Sink interface {
	Add(ctx context.Context, flagKey string, records schema.Records) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, flagKey string, records schema.Records) error

func (f SinkFunc) Add(ctx context.Context, flagKey string, records schema.Records) error {
	return f(ctx, flagKey, records)
}

// Tracking decorates a Resolver: each context is converted to records and
// non-empty record sets go to the sink before the resolution is delegated.
// Sink failures are logged and never change the resolution.
type Tracking struct {
	next   Resolver
	sink   Sink
	logger *slog.Logger
}

// NewTracking wraps next. logger may be nil.
func NewTracking(next Resolver, sink Sink, logger *slog.Logger) *Tracking {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Tracking{next: next, sink: sink, logger: logger}
}

func (t *Tracking) Resolve(ctx context.Context, params ResolveParams) ResolutionDetails {
	ctx = logging.WithFlagKey(ctx, params.FlagKey)

	if records := convert.ToRecords(params.Context); len(records) > 0 {
		if err := t.sink.Add(ctx, params.FlagKey, records); err != nil {
			sinkErr := schema.NewError(schema.ErrCodeSink, "tracking sink rejected records").WithCause(err)
			t.logger.WarnContext(ctx, "tracking failed", "records", len(records), "error", sinkErr)
		} else {
			t.logger.DebugContext(ctx, "tracked records", "records", len(records))
		}
	}

	return t.next.Resolve(ctx, params)
}

// Tracked is one Sink.Add call captured by a Recorder.
type Tracked struct {
	FlagKey string         `json:"flagKey"`
	Records schema.Records `json:"records"`
}

// Recorder is an in-memory Sink. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Tracked
}

func (r *Recorder) Add(_ context.Context, flagKey string, records schema.Records) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Tracked{FlagKey: flagKey, Records: records})
	return nil
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Tracked {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Tracked, len(r.entries))
	copy(out, r.entries)
	return out
}

// Reset discards all entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

var (
	_ Resolver = (*Tracking)(nil)
	_ Sink     = (*Recorder)(nil)
	_ Sink     = SinkFunc(nil)
)

// MultiSink fans records out to every sink. All sinks are called; their
// errors are joined.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, flagKey string, records schema.Records) error {
		var errs []error
		for _, s := range sinks {
			if err := s.Add(ctx, flagKey, records); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
