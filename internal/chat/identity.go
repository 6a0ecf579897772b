package chat

import (
	"context"

	"github.com/knowyourrights/kyr/internal/nav"
)

// BindMode says who chose the conversation being bound.
type BindMode int

const (
	// UserInitiated binds push a new history entry.
	UserInitiated BindMode = iota
	// Background binds replace the current entry and refresh the registry.
	Background
)

func (m BindMode) String() string {
	if m == Background {
		return "background"
	}
	return "user"
}

// CurrentID returns the bound session id, or "" when unbound.
func (c *Controller) CurrentID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Bind makes id the active conversation and updates the deep link.
// The log is not touched; see SelectSession to also load the transcript.
func (c *Controller) Bind(ctx context.Context, id string, mode BindMode) {
	if id == "" {
		c.logger.Warn("Ignoring bind to empty session id", "mode", mode.String())
		return
	}

	c.mu.Lock()
	changed := c.sessionID != id
	if changed {
		c.sessionID = id
		c.generation++
	}
	loc := nav.ChatLocation(id, string(c.category))
	c.mu.Unlock()

	c.logger.Debug("Bind", "session_id", id, "mode", mode.String(), "changed", changed)

	if c.nav != nil {
		if mode == Background {
			c.nav.Replace(loc)
		} else {
			c.nav.Push(loc)
		}
	}
	if changed {
		c.publish(Event{Kind: EventIdentityChanged, SessionID: id})
	}
	if mode == Background {
		c.RefreshSessions(ctx)
	}
}

// Unbind starts a new conversation: the identity is cleared, the log resets
// to the welcome message, and a location without session_id is pushed.
func (c *Controller) Unbind() {
	c.mu.Lock()
	c.sessionID = ""
	c.generation++
	reset := c.resetToWelcomeLocked()
	loc := nav.ChatLocation("", string(c.category))
	c.mu.Unlock()

	c.logger.Debug("Unbind")

	if c.nav != nil {
		c.nav.Push(loc)
	}
	c.publish(Event{Kind: EventIdentityChanged}, reset)
}

// SyncLocation follows a location change made outside the controller, such
// as back/forward navigation or a link opened from another process.
//
// A session_id different from the current one binds it and loads its
// transcript. A location without session_id unbinds and shows the welcome
// message. A category parameter, when valid, becomes the view's category.
// No navigation is emitted.
func (c *Controller) SyncLocation(ctx context.Context, loc nav.Location) {
	id := loc.SessionID()

	c.mu.Lock()
	if cat := Category(loc.Category()); cat.Known() {
		c.category = cat
	}
	current := c.sessionID
	if id == "" {
		c.sessionID = ""
		if current != "" {
			c.generation++
		}
		reset := c.resetToWelcomeLocked()
		c.mu.Unlock()

		c.logger.Debug("Location cleared session", "previous", current)
		if current != "" {
			c.publish(Event{Kind: EventIdentityChanged})
		}
		c.publish(reset)
		return
	}
	if id == current {
		c.mu.Unlock()
		return
	}
	c.sessionID = id
	c.generation++
	c.mu.Unlock()

	c.logger.Debug("Location changed session", "session_id", id, "previous", current)
	c.publish(Event{Kind: EventIdentityChanged, SessionID: id})
	c.LoadHistory(ctx, id)
}

// identitySnapshot is taken when a call is issued.
type identitySnapshot struct {
	sessionID  string
	generation uint64
}

func (c *Controller) snapshotLocked() identitySnapshot {
	return identitySnapshot{sessionID: c.sessionID, generation: c.generation}
}

// staleSince reports whether the identity changed after snap was taken.
func (c *Controller) staleSince(snap identitySnapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation != snap.generation
}
