// Package events defines the notifications the sync engine sends to its
// consumer and a few sinks that deliver them.
//
// The engine only depends on the Sink interface. How events reach a UI or
// controller is up to the caller: the CLI writes them as newline-delimited
// JSON, tests record them in memory.
package events

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/jmgilman/go/errors"

	"github.com/Nikhil-z/farnsworth/manifest"
)

// Type names an event.
type Type string

const (
	// DataAvailable carries the current working manifest.
	DataAvailable Type = "data-available"
	// AssetAvailable carries the first asset of a run that can be displayed.
	AssetAvailable Type = "asset-available"
	// BatchComplete signals that every pending asset was attempted.
	BatchComplete Type = "batch-complete"
	// Error reports a non-fatal failure.
	Error Type = "error"
)

// Event is a single notification.
type Event struct {
	Type     Type                  `json:"type"`
	Manifest manifest.Manifest     `json:"manifest,omitempty"`
	Asset    *manifest.Asset       `json:"asset,omitempty"`
	Message  string                `json:"message,omitempty"`
	Detail   *errors.ErrorResponse `json:"detail,omitempty"`
}

// NewDataAvailable creates a data-available event holding a copy of m.
func NewDataAvailable(m manifest.Manifest) Event {
	return Event{Type: DataAvailable, Manifest: m.Clone()}
}

// NewAssetAvailable creates an asset-available event for a.
func NewAssetAvailable(a manifest.Asset) Event {
	return Event{Type: AssetAvailable, Asset: &a}
}

// NewBatchComplete creates a batch-complete event.
func NewBatchComplete() Event {
	return Event{Type: BatchComplete}
}

// NewError creates an error event. The detail is derived from err.
func NewError(message string, err error) Event {
	return Event{Type: Error, Message: message, Detail: errors.ToJSON(err)}
}

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Emit(ctx context.Context, e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, e Event)

// Emit calls f(ctx, e).
func (f SinkFunc) Emit(ctx context.Context, e Event) {
	f(ctx, e)
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) {})

type multi []Sink

func (m multi) Emit(ctx context.Context, e Event) {
	for _, s := range m {
		s.Emit(ctx, e)
	}
}

// Multi returns a sink that forwards each event to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// JSONSink writes each event as one line of JSON.
type JSONSink struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

// NewJSONSink creates a sink writing to w.
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{enc: json.NewEncoder(w)}
}

// Emit encodes e. The first write error is kept and later events are dropped.
func (s *JSONSink) Emit(_ context.Context, e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	s.err = s.enc.Encode(e)
}

// Err returns the first write error, if any.
func (s *JSONSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit records e.
func (r *Recorder) Emit(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events in emission order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in emission order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// OfType returns the recorded events of type t.
func (r *Recorder) OfType(t Type) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
