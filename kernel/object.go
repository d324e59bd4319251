// Package kernel models the host kernel objects that guest handles refer to.
//
// Objects are owned by the kernel side. Handle tables only reference them, so
// releasing a handle never destroys the object it points at.
package kernel

import (
	"sync"
	"sync/atomic"
)

// Kind identifies the type of a kernel object.
type Kind uint8

const (
	KindEvent Kind = iota + 1
	KindSyncObject
)

func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindSyncObject:
		return "sync-object"
	default:
		return "unknown"
	}
}

// Object is anything a handle can reference.
type Object interface {
	Kind() Kind
	Name() string
}

var nextID atomic.Uint64

// SyncObject is a waitable object with a level-triggered signaled state.
// Waiting is done by the kernel wait subsystem through Signaled.
type SyncObject struct {
	name     string
	id       uint64
	mu       sync.Mutex
	signaled bool
	ch       chan struct{}
}

// NewSyncObject creates an unsignaled synchronization object.
func NewSyncObject(name string) *SyncObject {
	return &SyncObject{
		name: name,
		id:   nextID.Add(1),
		ch:   make(chan struct{}),
	}
}

func (o *SyncObject) Kind() Kind   { return KindSyncObject }
func (o *SyncObject) Name() string { return o.name }
func (o *SyncObject) ID() uint64   { return o.id }

// Signal sets the object signaled and wakes any waiter. Signaling twice is a no-op.
func (o *SyncObject) Signal() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.signaled {
		return
	}
	o.signaled = true
	close(o.ch)
}

// Clear resets the signaled state and reports whether it was set.
func (o *SyncObject) Clear() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.signaled {
		return false
	}
	o.signaled = false
	o.ch = make(chan struct{})
	return true
}

// IsSignaled reports the current state.
func (o *SyncObject) IsSignaled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.signaled
}

// Signaled returns a channel closed once the object is signaled.
// A fresh channel is handed out after Clear.
func (o *SyncObject) Signaled() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ch
}
