package nav

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrNoHistory is returned by Back and Forward at either end of the history.
var ErrNoHistory = errors.New("no history entry in that direction")

// Origin tells listeners who caused a change.
type Origin int

const (
	// OriginInternal is a change made by the chat view itself (Push, Replace).
	OriginInternal Origin = iota
	// OriginExternal is a change the view must follow (Back, Forward, Navigate).
	OriginExternal
)

func (o Origin) String() string {
	if o == OriginExternal {
		return "external"
	}
	return "internal"
}

// Change describes one navigation step.
type Change struct {
	Location Location
	Origin   Origin
	// Replaced is true when the current entry was overwritten in place.
	Replaced bool
}

// Navigator is an in-memory browser-style history. It is safe for
// concurrent use. Listeners run synchronously on the caller's goroutine
// after the history lock is released.
type Navigator struct {
	mu        sync.Mutex
	entries   []Location
	index     int
	listeners map[int]func(Change)
	nextID    int
	logger    *slog.Logger
}

// NewNavigator starts a history with a single entry.
func NewNavigator(initial Location, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Navigator{
		entries:   []Location{initial},
		listeners: make(map[int]func(Change)),
		logger:    logger,
	}
}

// Current returns the active location.
func (n *Navigator) Current() Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.entries[n.index]
}

// Len returns the number of history entries.
func (n *Navigator) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries)
}

// CanGoBack reports whether Back would succeed.
func (n *Navigator) CanGoBack() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index > 0
}

// Push adds a new entry after the current one, dropping any forward entries.
func (n *Navigator) Push(loc Location) {
	n.push(loc)
	n.logger.Debug("push", "location", loc.String())
	n.notify(Change{Location: loc, Origin: OriginInternal})
}

// Replace overwrites the current entry without growing the history.
func (n *Navigator) Replace(loc Location) {
	n.mu.Lock()
	n.entries[n.index] = loc
	n.mu.Unlock()

	n.logger.Debug("replace", "location", loc.String())
	n.notify(Change{Location: loc, Origin: OriginInternal, Replaced: true})
}

// Navigate pushes a location that came from outside the view, such as a
// link opened from another process.
func (n *Navigator) Navigate(loc Location) {
	n.push(loc)
	n.logger.Debug("navigate", "location", loc.String())
	n.notify(Change{Location: loc, Origin: OriginExternal})
}

// Back moves one entry back.
func (n *Navigator) Back() (Location, error) {
	return n.step(-1)
}

// Forward moves one entry forward.
func (n *Navigator) Forward() (Location, error) {
	return n.step(1)
}

// OnChange registers fn for every change. The returned func unregisters it.
func (n *Navigator) OnChange(fn func(Change)) (unsubscribe func()) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.listeners, id)
		n.mu.Unlock()
	}
}

func (n *Navigator) push(loc Location) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries[:n.index+1], loc)
	n.index = len(n.entries) - 1
}

func (n *Navigator) step(delta int) (Location, error) {
	n.mu.Lock()
	next := n.index + delta
	if next < 0 || next >= len(n.entries) {
		n.mu.Unlock()
		return Location{}, ErrNoHistory
	}
	n.index = next
	loc := n.entries[next]
	n.mu.Unlock()

	n.logger.Debug("step", "delta", delta, "location", loc.String())
	n.notify(Change{Location: loc, Origin: OriginExternal})
	return loc, nil
}

func (n *Navigator) notify(c Change) {
	n.mu.Lock()
	fns := make([]func(Change), 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
