package chat

import (
	"context"
	"strconv"
	"time"

	"github.com/knowyourrights/kyr/internal/client"
)

// LoadHistory fetches the transcript of id and replaces the log with it.
//
// The projection is lossy, see Transcript. On failure the log is left
// unchanged. A transcript that arrives after the identity moved away from id
// is dropped.
func (c *Controller) LoadHistory(ctx context.Context, id string) {
	c.mu.Lock()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	entries, err := c.svc.SessionHistory(ctx, id)
	if err != nil {
		c.logger.Warn("Failed to load history", "session_id", id, "error", err)
		return
	}

	msgs := Transcript(entries, c.now())

	c.mu.Lock()
	if c.generation != snap.generation || c.sessionID != id {
		current := c.sessionID
		c.mu.Unlock()
		c.logger.Debug("Dropping history for an inactive session", "session_id", id, "current", current)
		return
	}
	c.log = msgs
	c.mu.Unlock()

	c.logger.Debug("History loaded", "session_id", id, "messages", len(msgs))
	c.publish(Event{Kind: EventLogReplaced, SessionID: id})
}

// Transcript projects stored entries onto log messages. Stored transcripts
// carry only role and content, so sources and analysis payloads of earlier
// replies are not restored. Entries without an id get their position;
// entries without a timestamp are stamped with now.
func Transcript(entries []client.TranscriptEntry, now time.Time) []Message {
	msgs := make([]Message, 0, len(entries))
	for i, e := range entries {
		m := Message{
			ID:      string(e.ID),
			Role:    Role(e.Role),
			Content: e.Content,
		}
		if m.ID == "" {
			m.ID = strconv.Itoa(i)
		}
		if e.CreatedAt.IsZero() {
			m.Timestamp = now.Local().Format(TimestampLayout)
		} else {
			m.Timestamp = e.CreatedAt.Local().Format(TimestampLayout)
		}
		msgs = append(msgs, m)
	}
	return msgs
}
