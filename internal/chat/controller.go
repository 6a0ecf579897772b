// Package chat coordinates one conversation view: which remote session it is
// bound to, the ordered message log, the list of known sessions, and the
// single in-flight request against the assistant service.
//
// All state lives in a Controller. Its methods are safe for concurrent use.
// Network calls never run under the controller lock, and at most one chat or
// analyze call is in flight at a time; extra submissions are dropped.
package chat

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/knowyourrights/kyr/internal/client"
	"github.com/knowyourrights/kyr/internal/nav"
)

// Service is the remote assistant API.
type Service interface {
	ListSessions(ctx context.Context) ([]client.SessionSummary, error)
	SessionHistory(ctx context.Context, sessionID string) ([]client.TranscriptEntry, error)
	Chat(ctx context.Context, req client.ChatRequest) (*client.ChatResponse, error)
	Analyze(ctx context.Context, sessionID, filename string, r io.Reader) (*client.Analysis, error)
}

// Navigator receives the deep-link updates produced by Bind and Unbind.
type Navigator interface {
	Push(loc nav.Location)
	Replace(loc nav.Location)
}

// StalePolicy decides what happens to a response that arrives after the
// conversation identity changed under it.
type StalePolicy string

const (
	// StaleAppend appends the outcome to whatever log is current.
	StaleAppend StalePolicy = "append"
	// StaleDiscard drops the outcome.
	StaleDiscard StalePolicy = "discard"
)

// ParseStalePolicy maps a config value to a policy; unknown values are StaleAppend.
func ParseStalePolicy(s string) StalePolicy {
	if StalePolicy(s) == StaleDiscard {
		return StaleDiscard
	}
	return StaleAppend
}

// subBufferSize bounds each subscriber's pending events.
const subBufferSize = 64

// Controller owns the state of one chat view.
type Controller struct {
	svc    Service
	nav    Navigator
	logger *slog.Logger
	now    func() time.Time
	newID  func() (string, error)
	stale  StalePolicy

	busy atomic.Bool
	// msgSeq suffixes time-based message ids.
	msgSeq atomic.Uint64

	mu        sync.Mutex
	sessionID string
	// generation increments on every identity change.
	generation uint64
	category   Category
	log        []Message
	sessions   []client.SessionSummary
	webSearch  bool
	cancel     context.CancelFunc
	subs       map[int]chan Event
	nextSub    int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithClock sets the time source used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithIDSource replaces the random id generator used for placeholder and
// message ids. When it fails, a time-based id is used instead.
func WithIDSource(fn func() (string, error)) Option {
	return func(c *Controller) {
		c.newID = fn
	}
}

// WithStalePolicy sets how late responses are handled. Default StaleAppend.
func WithStalePolicy(p StalePolicy) Option {
	return func(c *Controller) {
		c.stale = p
	}
}

// WithCategory sets the initial category. Default CategoryGeneral.
func WithCategory(cat Category) Option {
	return func(c *Controller) {
		c.category = cat
	}
}

// New creates an unbound controller showing the welcome message.
func New(svc Service, navigator Navigator, opts ...Option) *Controller {
	c := &Controller{
		svc:      svc,
		nav:      navigator,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
		newID:    randomID,
		stale:    StaleAppend,
		category: CategoryGeneral,
		subs:     make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = []Message{welcomeMessage(c.category, c.timestamp())}
	return c
}

func randomID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// mintID returns a random session id, falling back to the Unix time in
// milliseconds.
func (c *Controller) mintID() string {
	id, err := c.newID()
	if err == nil && id != "" {
		return id
	}
	c.logger.Debug("Random id source unavailable, using time-based id", "error", err)
	return strconv.FormatInt(c.now().UnixMilli(), 10)
}

// messageID returns a random message id. The time-based fallback carries a
// per-controller sequence number so ids stay unique within the log.
func (c *Controller) messageID() string {
	id, err := c.newID()
	if err == nil && id != "" {
		return id
	}
	n := c.msgSeq.Add(1)
	return strconv.FormatInt(c.now().UnixMilli(), 10) + "-" + strconv.FormatUint(n, 10)
}

func (c *Controller) timestamp() string {
	return c.now().Local().Format(TimestampLayout)
}

// Messages returns a copy of the log.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.log...)
}

// Category returns the category of the view.
func (c *Controller) Category() Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.category
}

// SetCategory changes the category used for new links and the welcome text.
// The log is left alone.
func (c *Controller) SetCategory(cat Category) {
	c.mu.Lock()
	c.category = cat
	c.mu.Unlock()
}

// Busy reports whether a chat or analyze call is in flight.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// Cancel aborts the in-flight call, if any. The call then resolves as a
// failure. It reports whether there was a call to cancel.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// Close cancels any in-flight call and closes all subscriptions.
func (c *Controller) Close() {
	c.Cancel()
	c.mu.Lock()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.mu.Unlock()
}

// appendLocked adds m to the log and returns the event to publish.
// Callers must hold c.mu.
func (c *Controller) appendLocked(m Message) Event {
	c.log = append(c.log, m)
	return Event{Kind: EventLogAppended, Message: m, SessionID: c.sessionID}
}

func (c *Controller) resetToWelcomeLocked() Event {
	c.log = []Message{welcomeMessage(c.category, c.timestamp())}
	return Event{Kind: EventLogReplaced, SessionID: c.sessionID}
}
