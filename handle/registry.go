package handle

import (
	"reflect"
	"sync"

	"github.com/wippyai/hle/errors"
	"github.com/wippyai/hle/kernel"
)

// Registry is a fixed-capacity slot arena of kernel object references.
type Registry struct {
	entries   []entry
	observers []Observer
	capacity  int
	firstFree int // every slot below firstFree is live
	live      int
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

type entry struct {
	obj   kernel.Object
	valid bool
}

// NewRegistry creates a registry holding at most capacity live handles.
// A non-positive capacity selects DefaultCapacity.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	initial := capacity
	if initial > 64 {
		initial = 64
	}
	return &Registry{
		entries:  make([]entry, 0, initial),
		capacity: capacity,
	}
}

// Allocate assigns the lowest free handle to obj.
// A full table returns an error matching ErrExhausted.
func (r *Registry) Allocate(obj kernel.Object) (Handle, error) {
	if obj == nil {
		return Invalid, errors.New(errors.PhaseHandle, errors.KindInvalidInput).
			Op("allocate").
			Detail("nil object").
			Build()
	}

	r.mu.Lock()
	h, err := r.insert("allocate", obj)
	r.mu.Unlock()
	if err != nil {
		return Invalid, err
	}

	r.notify(Event{Type: EventAllocated, Handle: h, Object: obj})
	return h, nil
}

// Duplicate creates a second handle aliasing the object behind h.
// Both handles are released independently.
func (r *Registry) Duplicate(h Handle) (Handle, error) {
	r.mu.Lock()
	e, ok := r.lookup(h)
	if !ok {
		closed := r.closed
		r.mu.Unlock()
		if closed {
			return Invalid, errors.New(errors.PhaseHandle, errors.KindClosed).Op("duplicate").Build()
		}
		return Invalid, errors.InvalidHandle("duplicate", uint32(h))
	}
	alias, err := r.insert("duplicate", e.obj)
	r.mu.Unlock()
	if err != nil {
		return Invalid, err
	}

	r.notify(Event{Type: EventDuplicated, Handle: alias, Source: h, Object: e.obj})
	return alias, nil
}

// Release removes the mapping for h. The object itself is untouched.
func (r *Registry) Release(h Handle) error {
	r.mu.Lock()
	e, ok := r.lookup(h)
	if !ok {
		r.mu.Unlock()
		return errors.InvalidHandle("release", uint32(h))
	}
	idx := int(h) - 1
	r.entries[idx] = entry{}
	r.live--
	if idx < r.firstFree {
		r.firstFree = idx
	}
	r.mu.Unlock()

	r.notify(Event{Type: EventReleased, Handle: h, Object: e.obj})
	return nil
}

// Resolve returns the object behind h without changing the table.
func (r *Registry) Resolve(h Handle) (kernel.Object, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.lookup(h)
	if !ok {
		return nil, errors.InvalidHandle("resolve", uint32(h))
	}
	return e.obj, nil
}

// ResolveKind resolves h and checks the object kind.
func (r *Registry) ResolveKind(h Handle, kind kernel.Kind) (kernel.Object, error) {
	obj, err := r.Resolve(h)
	if err != nil {
		return nil, err
	}
	if obj.Kind() != kind {
		return nil, errors.New(errors.PhaseHandle, errors.KindInvalidHandle).
			Op("resolve").
			Value(uint32(h)).
			Detail("handle 0x%x is a %s, want %s", uint32(h), obj.Kind(), kind).
			Build()
	}
	return obj, nil
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.live
}

// Cap returns the table capacity.
func (r *Registry) Cap() int {
	return r.capacity
}

// Each iterates over live handles in ascending order.
func (r *Registry) Each(fn func(Handle, kernel.Object) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, e := range r.entries {
		if e.valid {
			if !fn(Handle(i+1), e.obj) {
				break
			}
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (r *Registry) Subscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.observers = append(r.observers, o)
}

// Unsubscribe removes an observer. Only comparable observers can be removed;
// for an ObserverFunc, or any other uncomparable value, it does nothing.
func (r *Registry) Unsubscribe(o Observer) {
	if o == nil || !reflect.TypeOf(o).Comparable() {
		return
	}
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	for i, obs := range r.observers {
		if obs == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

// Close releases every live handle and stops accepting allocations.
// Observers see a release event per handle.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true

	var released []Event
	for i, e := range r.entries {
		if e.valid {
			released = append(released, Event{Type: EventReleased, Handle: Handle(i + 1), Object: e.obj})
		}
	}
	r.entries = nil
	r.live = 0
	r.firstFree = 0
	r.mu.Unlock()

	for _, e := range released {
		r.notify(e)
	}
	return nil
}

// insert must be called with mu held.
func (r *Registry) insert(op string, obj kernel.Object) (Handle, error) {
	if r.closed {
		return Invalid, errors.New(errors.PhaseHandle, errors.KindClosed).Op(op).Build()
	}
	if r.live >= r.capacity {
		return Invalid, errors.New(errors.PhaseHandle, errors.KindExhausted).
			Op(op).
			Value(r.capacity).
			Detail("handle table full (%d entries)", r.capacity).
			Build()
	}

	idx := r.firstFree
	for idx < len(r.entries) && r.entries[idx].valid {
		idx++
	}
	if idx == len(r.entries) {
		r.entries = append(r.entries, entry{})
	}

	r.entries[idx] = entry{obj: obj, valid: true}
	r.live++
	r.firstFree = idx + 1
	return Handle(idx + 1), nil
}

// lookup must be called with mu held.
func (r *Registry) lookup(h Handle) (entry, bool) {
	if h == Invalid {
		return entry{}, false
	}
	idx := int(h) - 1
	if idx >= len(r.entries) {
		return entry{}, false
	}
	e := r.entries[idx]
	return e, e.valid
}

func (r *Registry) notify(e Event) {
	r.obsMu.RLock()
	defer r.obsMu.RUnlock()
	for _, o := range r.observers {
		o.OnHandleEvent(e)
	}
}
