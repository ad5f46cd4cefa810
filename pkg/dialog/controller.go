// Package dialog holds the open/closed state of a modal owned by a parent
// view. Each view creates its own Controller; nothing is shared globally.
package dialog

import (
	"sort"
	"sync"
)

// Listener observes open state transitions.
type Listener func(open bool)

// Controller tracks whether a dialog is open and notifies subscribers when
// that changes.
type Controller struct {
	mu        sync.Mutex
	open      bool
	nextID    int
	listeners map[int]Listener
}

// New returns a closed controller.
func New() *Controller {
	return &Controller{listeners: make(map[int]Listener)}
}

// Open shows the dialog.
func (c *Controller) Open() { c.set(func(bool) bool { return true }) }

// Close hides the dialog.
func (c *Controller) Close() { c.set(func(bool) bool { return false }) }

// Toggle flips the dialog state.
func (c *Controller) Toggle() { c.set(func(open bool) bool { return !open }) }

// IsOpen reports the current state.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Subscribe registers fn for transitions. The returned function removes it
// and may be called more than once.
func (c *Controller) Subscribe(fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	if c.listeners == nil {
		c.listeners = make(map[int]Listener)
	}
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Controller) set(next func(bool) bool) {
	c.mu.Lock()
	prev := c.open
	c.open = next(prev)
	if c.open == prev {
		c.mu.Unlock()
		return
	}
	open := c.open
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	notify := make([]Listener, 0, len(ids))
	for _, id := range ids {
		notify = append(notify, c.listeners[id])
	}
	c.mu.Unlock()

	// Listeners run unlocked so they may call back into the controller.
	for _, fn := range notify {
		fn(open)
	}
}
