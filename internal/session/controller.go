// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the chat session controller.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/chatterm/internal/exchange"
	"github.com/jeranaias/chatterm/internal/model"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Persister saves and restores the conversation. *storage.Store implements it.
type Persister interface {
	Save(ctx context.Context, turns []model.Turn) error
	Load(ctx context.Context) []model.Turn
}

// Options configures a Controller.
type Options struct {
	// Store persists the conversation. Nil disables persistence.
	Store Persister

	// Exchanger sends messages for Exchange, which requires it.
	Exchanger exchange.Exchanger

	// BusyPolicy decides what a submit does while a reply is pending.
	BusyPolicy BusyPolicy

	// ID names the session in logs. Empty generates one.
	ID string
}

// =============================================================================
// CHANGE NOTIFICATIONS
// =============================================================================

// ChangeKind identifies what changed.
type ChangeKind int

const (
	// ChangeAppend means one turn was appended.
	ChangeAppend ChangeKind = iota
	// ChangeStatus means the status changed.
	ChangeStatus
	// ChangeHydrated means stored history replaced the empty conversation.
	ChangeHydrated
)

// Change describes one controller change.
type Change struct {
	Kind   ChangeKind
	Turn   model.Turn // set for ChangeAppend
	Status Status     // the status after the change
	Len    int        // conversation length after the change
}

// Observer is called on the event loop after every change.
type Observer func(Change)

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns one conversation and its request/response cycle.
//
// It is a two-state machine. Submit moves idle to awaiting-response and hands
// back a *Pending; Resolve takes the Outcome and moves back to idle. At most
// one exchange is in flight because Submit refuses while one is.
//
// All methods except Pending.Run, Persist, LoadHistory and Saving must be
// called from one goroutine (the event loop). Those four do blocking I/O and
// are meant to run off the loop.
type Controller struct {
	id     string
	conv   *model.Conversation
	status Status
	policy BusyPolicy

	pending *Pending
	queue   []string

	store     Persister
	exchanger exchange.Exchanger

	// hydrationDone is set once Hydrate has applied or discarded a result.
	hydrationDone bool
	appended      bool

	saving atomic.Int32
	// saveMu orders writes; saved is the length of the last snapshot
	// written, -1 before the first.
	saveMu sync.Mutex
	saved  int

	observers []Observer
}

// New creates a controller in the idle state with an empty conversation.
func New(opts Options) *Controller {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &Controller{
		id:        id,
		conv:      model.NewConversation(),
		status:    StatusIdle,
		policy:    opts.BusyPolicy,
		store:     opts.Store,
		exchanger: opts.Exchanger,
		saved:     -1,
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// ID returns the session ID.
func (c *Controller) ID() string {
	return c.id
}

// Snapshot returns a copy of the conversation.
func (c *Controller) Snapshot() []model.Turn {
	return c.conv.Snapshot()
}

// Len returns the number of turns.
func (c *Controller) Len() int {
	return c.conv.Len()
}

// LastReply returns the most recent assistant turn.
func (c *Controller) LastReply() (model.Turn, bool) {
	return c.conv.LastBySpeaker(model.SpeakerAssistant)
}

// Status returns the current state.
func (c *Controller) Status() Status {
	return c.status
}

// InFlight returns the pending exchange, or nil when idle.
func (c *Controller) InFlight() *Pending {
	return c.pending
}

// Queued returns the number of submits waiting under BusyQueue.
func (c *Controller) Queued() int {
	return len(c.queue)
}

// Policy returns the busy policy.
func (c *Controller) Policy() BusyPolicy {
	return c.policy
}

// Exchanger returns the configured exchanger.
func (c *Controller) Exchanger() exchange.Exchanger {
	return c.exchanger
}

// Saving reports whether a persistence write is in progress.
func (c *Controller) Saving() bool {
	return c.saving.Load() > 0
}

// Settled reports whether the controller is idle with no write in progress.
func (c *Controller) Settled() bool {
	return c.status == StatusIdle && !c.Saving()
}

// Subscribe registers an observer.
func (c *Controller) Subscribe(o Observer) {
	c.observers = append(c.observers, o)
}

func (c *Controller) notify(ch Change) {
	ch.Status = c.status
	ch.Len = c.conv.Len()
	for _, o := range c.observers {
		o(ch)
	}
}

func (c *Controller) append(turn model.Turn) {
	c.conv.Append(turn)
	c.appended = true
	c.notify(Change{Kind: ChangeAppend, Turn: turn})
}

func (c *Controller) setStatus(s Status) {
	if c.status == s {
		return
	}
	c.status = s
	c.notify(Change{Kind: ChangeStatus})
}

// =============================================================================
// SUBMIT / RESOLVE
// =============================================================================

// Submit appends a user turn and starts an exchange.
//
// Blank text returns ErrEmptyInput. While a reply is pending it returns
// ErrBusy, or ErrQueued under BusyQueue. In every error case the conversation
// is unchanged.
func (c *Controller) Submit(text string) (*Pending, error) {
	if model.IsBlank(text) {
		return nil, ErrEmptyInput
	}

	if c.status == StatusAwaitingResponse {
		if c.policy == BusyQueue {
			c.queue = append(c.queue, text)
			log.Debug().Str("session", c.id).Int("queued", len(c.queue)).Msg("submit queued")
			return nil, ErrQueued
		}
		log.Debug().Str("session", c.id).Msg("submit ignored while awaiting response")
		return nil, ErrBusy
	}

	return c.begin(text)
}

func (c *Controller) begin(text string) (*Pending, error) {
	turn, err := model.UserTurn(text)
	if err != nil {
		return nil, err
	}

	c.append(turn)
	c.pending = &Pending{ID: uuid.NewString(), Text: text, Started: time.Now()}
	log.Debug().Str("session", c.id).Str("pending_id", c.pending.ID).Str("text", turn.Preview(60)).Msg("exchange started")
	c.setStatus(StatusAwaitingResponse)
	return c.pending, nil
}

// Resolution is the result of applying an Outcome.
type Resolution struct {
	// Turn is the assistant turn that was appended.
	Turn model.Turn

	// Failed is set when Turn is a failure message rather than a reply.
	Failed bool

	// Snapshot is the conversation to persist.
	Snapshot []model.Turn

	// Next is the queued submit that was started, if any.
	Next *Pending
}

// Resolve applies the outcome of the in-flight exchange: it appends the reply
// or a failure message and returns to idle. An outcome for any other exchange
// returns ErrStaleOutcome and changes nothing.
func (c *Controller) Resolve(out Outcome) (Resolution, error) {
	if c.pending == nil || out.ID != c.pending.ID {
		return Resolution{}, ErrStaleOutcome
	}

	text := out.Reply
	if out.Err != nil {
		text = FailureText(out.Err)
	}

	failed := out.Err != nil
	turn, err := model.AssistantTurn(text)
	if err != nil {
		// A blank reply cannot be stored, so it is answered like an unusable body.
		log.Warn().Str("session", c.id).Str("pending_id", out.ID).Msg("blank reply from endpoint")
		turn = model.Turn{Text: TransportFailureText, Speaker: model.SpeakerAssistant}
		failed = true
	}
	c.append(turn)
	c.pending = nil
	c.setStatus(StatusIdle)

	res := Resolution{Turn: turn, Failed: failed, Snapshot: c.conv.Snapshot()}

	if len(c.queue) > 0 {
		next := c.queue[0]
		c.queue = c.queue[1:]
		p, err := c.begin(next)
		if err == nil {
			res.Next = p
		}
	}
	return res, nil
}

// FailureText maps an exchange error to the message shown in the transcript.
func FailureText(err error) string {
	if exchange.KindOf(err) == exchange.KindRemote {
		return RemoteFailureText
	}
	return TransportFailureText
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Persist writes snapshot to the store. A failure is logged and returned for
// the caller's information; it never changes controller state.
//
// Writes are serialized. The conversation only grows, so a snapshot no longer
// than the last one written is stale and is skipped; a slow earlier save can
// never replace a newer one.
func (c *Controller) Persist(ctx context.Context, snapshot []model.Turn) error {
	if c.store == nil {
		return nil
	}

	c.saving.Add(1)
	defer c.saving.Add(-1)

	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	if len(snapshot) <= c.saved {
		log.Debug().Str("session", c.id).Int("turns", len(snapshot)).Int("saved", c.saved).Msg("stale snapshot not saved")
		return nil
	}
	if err := c.store.Save(ctx, snapshot); err != nil {
		log.Warn().Err(err).Str("session", c.id).Int("turns", len(snapshot)).Msg("history not saved")
		return err
	}
	c.saved = len(snapshot)
	log.Debug().Str("session", c.id).Int("turns", len(snapshot)).Msg("history saved")
	return nil
}

// LoadHistory reads stored history. It never fails; see Hydrate.
func (c *Controller) LoadHistory(ctx context.Context) []model.Turn {
	if c.store == nil {
		return []model.Turn{}
	}
	return c.store.Load(ctx)
}

// Hydrate replaces the empty conversation with stored turns.
//
// It applies at most once, and only if nothing has been appended since the
// controller was created; turns the user already produced always win. It
// reports whether the turns were applied.
func (c *Controller) Hydrate(turns []model.Turn) bool {
	if c.hydrationDone {
		return false
	}
	c.hydrationDone = true

	if c.appended || c.status != StatusIdle || c.Saving() {
		log.Info().Str("session", c.id).Int("stored", len(turns)).Msg("stored history discarded, session already started")
		return false
	}
	if len(turns) == 0 {
		return false
	}

	c.conv = model.NewConversationFrom(turns)
	log.Info().Str("session", c.id).Int("turns", len(turns)).Msg("stored history restored")
	c.notify(Change{Kind: ChangeHydrated})
	return true
}

// HydrationDone reports whether Hydrate has already run.
func (c *Controller) HydrationDone() bool {
	return c.hydrationDone
}

// =============================================================================
// SYNCHRONOUS CYCLE
// =============================================================================

// Exchange runs a full cycle on the calling goroutine: submit, send, resolve,
// persist, and then any queued submits. It reports whether text was accepted.
// It is for line-mode callers without an event loop.
func (c *Controller) Exchange(ctx context.Context, text string) bool {
	_, err := c.Send(ctx, text)
	return err == nil
}

// Send is Exchange returning the resolutions in order, the first for text.
// A submit that is refused returns its error (ErrEmptyInput, ErrBusy or
// ErrQueued) and no resolutions.
func (c *Controller) Send(ctx context.Context, text string) ([]Resolution, error) {
	p, err := c.Submit(text)
	if err != nil {
		return nil, err
	}

	var out []Resolution
	for p != nil {
		res, err := c.Resolve(p.Run(ctx, c.exchanger))
		if err != nil {
			break
		}
		_ = c.Persist(ctx, res.Snapshot)
		out = append(out, res)
		p = res.Next
	}
	return out, nil
}
