package store

import "sync"

// Notifier fans change signals out to subscribers. Each subscriber channel
// holds at most one pending signal, so slow readers coalesce bursts.
type Notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]chan struct{}
}

// Subscribe returns a channel that receives a value after every change, and a
// func that unsubscribes and closes it.
func (n *Notifier) Subscribe() (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]chan struct{})
	}
	id := n.next
	n.next++
	ch := make(chan struct{}, 1)
	n.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs, id)
			close(ch)
		})
	}
}

// Notify signals every subscriber without blocking.
func (n *Notifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Tracker brackets asynchronous operations with a loading flag and the last
// error message. Loading stays true while any tracked operation is running.
type Tracker struct {
	// Describe turns a failure into the message kept in LastError.
	// Defaults to err.Error().
	Describe func(error) string
	// OnChange is called after loading or the last error changes.
	OnChange func()

	mu       sync.RWMutex
	inflight int
	lastErr  string
}

// Run executes fn between the loading brackets. A nil result clears the last
// error; a failure records it. The error is returned unchanged.
func (t *Tracker) Run(fn func() error) error {
	t.mu.Lock()
	t.inflight++
	t.mu.Unlock()
	t.changed()

	err := fn()

	t.mu.Lock()
	t.inflight--
	if err != nil {
		t.lastErr = t.describe(err)
	} else {
		t.lastErr = ""
	}
	t.mu.Unlock()
	t.changed()
	return err
}

// Loading reports whether a tracked operation is in flight.
func (t *Tracker) Loading() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.inflight > 0
}

// LastError returns the message of the last failed operation, or "" if the
// most recent one succeeded.
func (t *Tracker) LastError() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastErr
}

// Reset clears the last error.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.lastErr = ""
	t.mu.Unlock()
	t.changed()
}

func (t *Tracker) describe(err error) string {
	if t.Describe != nil {
		return t.Describe(err)
	}
	return err.Error()
}

func (t *Tracker) changed() {
	if t.OnChange != nil {
		t.OnChange()
	}
}
