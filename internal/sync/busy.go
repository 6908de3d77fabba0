package sync

import "sync"

// BusyKind names one mutation category. Each kind has its own flag so the UI
// disables only the controls of the operation in flight.
type BusyKind string

const (
	BusyReload BusyKind = "reload"
	BusyCreate BusyKind = "create"
	BusyBatch  BusyKind = "batch"
	BusyUpdate BusyKind = "update"
	BusyDelete BusyKind = "delete"
)

type busySet struct {
	mu    sync.Mutex
	flags map[BusyKind]bool
}

func newBusySet() *busySet {
	return &busySet{flags: make(map[BusyKind]bool)}
}

// tryAcquire claims the flag, refusing when the kind is already in flight.
// This is what stops a double-submit of the same operation.
func (b *busySet) tryAcquire(kind BusyKind) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.flags[kind] {
		return false
	}
	b.flags[kind] = true
	return true
}

func (b *busySet) release(kind BusyKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.flags, kind)
}

func (b *busySet) snapshot() map[BusyKind]bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[BusyKind]bool, len(b.flags))
	for kind, set := range b.flags {
		out[kind] = set
	}
	return out
}
