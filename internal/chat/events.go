package chat

// EventKind identifies what changed in a Controller.
type EventKind int

const (
	// EventLogAppended carries the appended Message.
	EventLogAppended EventKind = iota
	// EventLogReplaced means the whole log changed; re-read Messages.
	EventLogReplaced
	// EventIdentityChanged carries the new SessionID ("" when unbound).
	EventIdentityChanged
	// EventSessionsChanged means the registry list was refreshed.
	EventSessionsChanged
	// EventBusyChanged carries the new Busy value.
	EventBusyChanged
	// EventWebSearchChanged carries the new WebSearch value.
	EventWebSearchChanged
)

func (k EventKind) String() string {
	switch k {
	case EventLogAppended:
		return "log_appended"
	case EventLogReplaced:
		return "log_replaced"
	case EventIdentityChanged:
		return "identity_changed"
	case EventSessionsChanged:
		return "sessions_changed"
	case EventBusyChanged:
		return "busy_changed"
	case EventWebSearchChanged:
		return "web_search_changed"
	default:
		return "unknown"
	}
}

// Event is a change notification. Events are hints: a subscriber that falls
// behind loses events, and should re-read the snapshots instead.
type Event struct {
	Kind      EventKind
	Message   Message
	SessionID string
	Busy      bool
	WebSearch bool
}

// Subscribe returns a channel of events and a func that ends the
// subscription and closes the channel.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan Event, subBufferSize)
	c.subs[id] = ch
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		if existing, ok := c.subs[id]; ok {
			close(existing)
			delete(c.subs, id)
		}
		c.mu.Unlock()
	}
}

// publish delivers events without blocking. Must not be called with c.mu held.
func (c *Controller) publish(events ...Event) {
	if len(events) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		for _, ev := range events {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
