package store

import (
	"container/list"
	"sync"
)

// Listener is called after every successful mutation of the store.
type Listener func()

// registry keeps listeners in registration order and removes them in O(1).
type registry struct {
	mu      sync.Mutex
	order   *list.List
	handles map[uint64]*list.Element
	next    uint64
}

func newRegistry() *registry {
	return &registry{
		order:   list.New(),
		handles: make(map[uint64]*list.Element),
	}
}

func (r *registry) add(l Listener) func() {
	r.mu.Lock()
	r.next++
	handle := r.next
	r.handles[handle] = r.order.PushBack(l)
	r.mu.Unlock()

	return func() { r.remove(handle) }
}

func (r *registry) remove(handle uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.handles[handle]
	if !ok {
		return
	}
	r.order.Remove(el)
	delete(r.handles, handle)
}

// snapshot copies the current listeners so they can run without the lock
// held; a listener may then subscribe or unsubscribe freely.
func (r *registry) snapshot() []Listener {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Listener, 0, r.order.Len())
	for el := r.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(Listener))
	}
	return out
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
