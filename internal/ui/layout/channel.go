// Package layout shares UI layout state between components that must not
// overlap on screen.
package layout

import "sync"

// Channel is an observable "mobile menu open" flag. The navigation publishes
// with Set; anything that must stay out of the menu's way subscribes.
type Channel struct {
	mu     sync.Mutex
	open   bool
	subs   map[int]chan bool
	nextID int
}

// NewChannel returns a closed-menu channel.
func NewChannel() *Channel {
	return &Channel{subs: make(map[int]chan bool)}
}

// Open returns the current flag.
func (c *Channel) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Set publishes a new value. Subscribers are notified only on change.
func (c *Channel) Set(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open == open {
		return
	}
	c.open = open
	for _, ch := range c.subs {
		deliverLatest(ch, open)
	}
}

// Toggle flips the flag and returns the new value.
func (c *Channel) Toggle() bool {
	c.mu.Lock()
	open := !c.open
	c.mu.Unlock()
	c.Set(open)
	return open
}

// Subscribe returns a channel that always holds the most recent value not yet
// received. The returned cancel func closes it.
func (c *Channel) Subscribe() (<-chan bool, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs == nil {
		c.subs = make(map[int]chan bool)
	}
	id := c.nextID
	c.nextID++
	ch := make(chan bool, 1)
	c.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// deliverLatest replaces any unread value so a slow reader sees only the newest.
func deliverLatest(ch chan bool, v bool) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
