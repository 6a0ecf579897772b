package chat

import (
	"context"
	"io"
	"strings"

	"github.com/knowyourrights/kyr/internal/client"
	"github.com/knowyourrights/kyr/internal/logging"
)

// Document is a file to submit for analysis.
type Document struct {
	Name string
	Body io.Reader
}

// Send submits content with the view's category and web-search flag.
func (c *Controller) Send(ctx context.Context, content string) bool {
	c.mu.Lock()
	category, webSearch := c.category, c.webSearch
	c.mu.Unlock()
	return c.SubmitText(ctx, content, category, webSearch)
}

// SubmitText runs one chat turn. The user entry is appended before the
// request is sent; the reply, or a fixed error text, is appended when it
// resolves. The first reply of an unbound conversation binds the server's
// session id in background mode.
//
// It returns false without doing anything when content is blank or another
// call is in flight. Errors never escape: they become assistant entries.
// The web-search flag is cleared once the call resolves.
func (c *Controller) SubmitText(ctx context.Context, content string, category Category, webSearch bool) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	if !c.busy.CompareAndSwap(false, true) {
		c.logger.Debug("Dropping submission while busy")
		return false
	}

	callCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.cancel = cancel
	snap := c.snapshotLocked()
	user := Message{ID: c.messageID(), Role: RoleUser, Content: content, Timestamp: c.timestamp()}
	appended := c.appendLocked(user)
	c.mu.Unlock()
	c.publish(Event{Kind: EventBusyChanged, Busy: true}, appended)

	defer c.finishCall(cancel, true)

	log := logging.WithCall(c.logger, "chat", snap.sessionID)
	resp, err := c.svc.Chat(callCtx, client.ChatRequest{
		Message:      content,
		Category:     string(category),
		SessionID:    snap.sessionID,
		UseWebSearch: webSearch,
	})

	if c.stale == StaleDiscard && c.staleSince(snap) {
		log.Info("Discarding reply for a conversation that is no longer active", "error", err)
		return true
	}
	if err != nil {
		log.Warn("Chat turn failed", "error", err)
		c.appendReply(Message{Role: RoleAssistant, Content: TextChatError, ReplyTo: user.ID, Failed: true})
		return true
	}

	if resp.SessionID != "" && resp.SessionID != snap.sessionID {
		c.Bind(ctx, resp.SessionID, Background)
	}
	log.Debug("Chat turn done", "reply_session", resp.SessionID, "sources", len(resp.Sources))
	c.appendReply(Message{Role: RoleAssistant, Content: resp.Response, Sources: resp.Sources, ReplyTo: user.ID})
	return true
}

// UploadDocument submits doc for contract analysis. An unbound conversation
// first gets a placeholder id, bound in background mode, so the upload is
// associated with a session.
//
// It returns false without doing anything when another call is in flight.
// The web-search flag is left alone.
func (c *Controller) UploadDocument(ctx context.Context, doc Document, category Category) bool {
	if !c.busy.CompareAndSwap(false, true) {
		c.logger.Debug("Dropping upload while busy", "file", doc.Name)
		return false
	}
	c.publish(Event{Kind: EventBusyChanged, Busy: true})

	callCtx, cancel := context.WithCancel(ctx)
	defer c.finishCall(cancel, false)

	if c.CurrentID() == "" {
		placeholder := c.mintID()
		c.logger.Debug("Minted placeholder session", "session_id", placeholder)
		c.Bind(ctx, placeholder, Background)
	}

	c.mu.Lock()
	c.cancel = cancel
	snap := c.snapshotLocked()
	user := Message{ID: c.messageID(), Role: RoleUser, Content: UploadText(doc.Name), Timestamp: c.timestamp()}
	appended := c.appendLocked(user)
	c.mu.Unlock()
	c.publish(appended)

	log := logging.WithCall(c.logger, "analyze", snap.sessionID).With("category", string(category))
	analysis, err := c.svc.Analyze(callCtx, snap.sessionID, doc.Name, doc.Body)

	if c.stale == StaleDiscard && c.staleSince(snap) {
		log.Info("Discarding analysis for a conversation that is no longer active", "error", err)
		return true
	}
	if err != nil {
		log.Warn("Document analysis failed", "file", doc.Name, "error", err)
		c.appendReply(Message{Role: RoleAssistant, Content: TextAnalyzeError, ReplyTo: user.ID, Failed: true})
		return true
	}

	log.Debug("Document analysis done", "file", doc.Name, "score", analysis.OverallScore)
	c.appendReply(Message{Role: RoleAssistant, Content: TextAnalyzeLeadIn, Analysis: analysis, ReplyTo: user.ID})
	return true
}

// appendReply stamps and appends an assistant entry.
func (c *Controller) appendReply(m Message) {
	c.mu.Lock()
	m.ID = c.messageID()
	m.Timestamp = c.timestamp()
	ev := c.appendLocked(m)
	c.mu.Unlock()
	c.publish(ev)
}

// finishCall releases the in-flight slot. Text turns also consume the
// web-search flag.
func (c *Controller) finishCall(cancel context.CancelFunc, clearWebSearch bool) {
	cancel()

	c.mu.Lock()
	c.cancel = nil
	if clearWebSearch {
		c.webSearch = false
	}
	c.mu.Unlock()

	c.busy.Store(false)
	if clearWebSearch {
		c.publish(Event{Kind: EventWebSearchChanged, WebSearch: false})
	}
	c.publish(Event{Kind: EventBusyChanged, Busy: false})
}
