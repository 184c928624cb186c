package stores

import "sync"

// observable provides subscribe/publish change notification for a store.
// Subscribers are invoked synchronously after each state transition.
type observable struct {
	mu     sync.Mutex
	subs   map[int]func()
	nextID int
}

// Subscribe registers a change callback and returns its cancel function.
// A subscriber that has been cancelled is never invoked again; late updates
// after cancellation are silently dropped.
func (o *observable) Subscribe(fn func()) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.subs == nil {
		o.subs = make(map[int]func())
	}
	id := o.nextID
	o.nextID++
	o.subs[id] = fn

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subs, id)
	}
}

func (o *observable) publish() {
	o.mu.Lock()
	subs := make([]func(), 0, len(o.subs))
	for _, fn := range o.subs {
		subs = append(subs, fn)
	}
	o.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}
