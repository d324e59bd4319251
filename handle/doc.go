// Package handle implements the per-session handle table.
//
// A Registry maps small integer handles to kernel objects. The objects are owned
// elsewhere; the registry holds a reference only, so Release and Close drop the
// mapping and never the object.
//
//	reg := handle.NewRegistry(1024)
//
//	h, err := reg.Allocate(ev.Readable())
//	if errors.Is(err, handle.ErrExhausted) {
//	    // table full: deny the command, retry later or tear the session down
//	}
//
//	alias, _ := reg.Duplicate(h) // second id, same object
//	_ = reg.Release(h)           // alias stays valid
//
// # Allocation
//
// Allocate always returns the lowest free id. Ids start at 1; handle 0 is never
// valid. A released id is only handed out again after its Release.
//
// # Observers
//
// Observers see every allocation, duplication and release, in table order:
//
//	reg.Subscribe(handle.ObserverFunc(func(e handle.Event) {
//	    log.Printf("%s 0x%x", e.Type, e.Handle)
//	}))
//
// A Registry is scoped to one session. It is safe for concurrent use, though
// session dispatch already serializes access.
package handle
