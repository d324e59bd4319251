package kernel

import "sync/atomic"

// ReadableEvent is the half of an Event handed to the guest.
type ReadableEvent struct {
	*SyncObject
}

func (e *ReadableEvent) Kind() Kind { return KindEvent }

// Event pairs a readable side, which guests hold handles to, with the
// writable side the host signals.
type Event struct {
	readable *ReadableEvent
}

// NewEvent creates an unsignaled event.
func NewEvent(name string) *Event {
	return &Event{readable: &ReadableEvent{NewSyncObject(name)}}
}

// Readable returns the guest-visible side.
func (e *Event) Readable() *ReadableEvent { return e.readable }

// Signal signals the readable side.
func (e *Event) Signal() { e.readable.Signal() }

// Clear clears the readable side.
func (e *Event) Clear() bool { return e.readable.Clear() }

// EventFactory creates kernel events for services.
type EventFactory interface {
	NewEvent(name string) *Event
}

// Factory is the default EventFactory. It counts what it created.
type Factory struct {
	created atomic.Int64
}

func (f *Factory) NewEvent(name string) *Event {
	f.created.Add(1)
	return NewEvent(name)
}

// Created returns how many events were made by f.
func (f *Factory) Created() int64 {
	return f.created.Load()
}
