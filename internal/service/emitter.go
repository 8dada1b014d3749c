package service

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples services from any front-end runtime
// ─────────────────────────────────────────────────────────────

// EventEmitter is an interface for notifying an embedding front-end.
// Services receive this interface instead of a UI handle, which makes them
// independently testable with a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Events emitted by the editor lifecycle.
const (
	EventPageDirty      = "page:dirty"
	EventPageDraftSaved = "page:draft-saved"
	EventPagePublished  = "page:published"
)

// MockEmitter is a test-friendly EventEmitter that records all calls. Safe
// for concurrent use since autosave emits from a timer goroutine.
type MockEmitter struct {
	mu     sync.Mutex
	events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, EmittedEvent{Event: event, Data: data})
}

// Emitted returns a copy of the recorded events.
func (m *MockEmitter) Emitted() []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmittedEvent, len(m.events))
	copy(out, m.events)
	return out
}

// NoopEmitter discards all events. Used when running without a front-end.
type NoopEmitter struct{}

func (NoopEmitter) Emit(_ context.Context, _ string, _ any) {}
