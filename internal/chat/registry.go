package chat

import (
	"context"

	"github.com/knowyourrights/kyr/internal/client"
)

// RefreshSessions re-fetches the list of known sessions. The server's order
// is kept. On failure the previous list stays and the error is only logged.
func (c *Controller) RefreshSessions(ctx context.Context) {
	sessions, err := c.svc.ListSessions(ctx)
	if err != nil {
		c.logger.Warn("Failed to fetch sessions", "error", err)
		return
	}

	c.mu.Lock()
	c.sessions = sessions
	c.mu.Unlock()

	c.logger.Debug("Sessions refreshed", "count", len(sessions))
	c.publish(Event{Kind: EventSessionsChanged})
}

// Sessions returns a copy of the last fetched session list.
func (c *Controller) Sessions() []client.SessionSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]client.SessionSummary(nil), c.sessions...)
}

// SelectSession opens a session chosen by the user: it is bound with a new
// history entry and its transcript replaces the log.
func (c *Controller) SelectSession(ctx context.Context, id string) {
	if id == "" {
		return
	}
	c.Bind(ctx, id, UserInitiated)
	c.LoadHistory(ctx, id)
}
