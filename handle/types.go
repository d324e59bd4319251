package handle

import (
	"github.com/wippyai/hle/errors"
	"github.com/wippyai/hle/kernel"
)

// Handle is an opaque reference to a kernel object within one session.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Invalid is never returned by a successful allocation.
const Invalid Handle = 0

// DefaultCapacity is the handle table size of a guest process.
const DefaultCapacity = 1024

var (
	// ErrExhausted matches allocation failures on a full table.
	ErrExhausted = &errors.Error{Phase: errors.PhaseHandle, Kind: errors.KindExhausted}
	// ErrInvalidHandle matches operations on a handle that is not live.
	ErrInvalidHandle = &errors.Error{Phase: errors.PhaseHandle, Kind: errors.KindInvalidHandle}
	// ErrClosed matches operations on a closed registry.
	ErrClosed = &errors.Error{Phase: errors.PhaseHandle, Kind: errors.KindClosed}
)

// EventType identifies a registry lifecycle notification.
type EventType uint8

const (
	EventAllocated EventType = iota
	EventDuplicated
	EventReleased
)

func (t EventType) String() string {
	switch t {
	case EventAllocated:
		return "allocated"
	case EventDuplicated:
		return "duplicated"
	case EventReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Event describes one registry mutation.
type Event struct {
	Object kernel.Object
	Handle Handle
	Source Handle // the aliased handle for EventDuplicated
	Type   EventType
}

// Observer receives registry lifecycle notifications.
type Observer interface {
	OnHandleEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnHandleEvent(e Event) { f(e) }
