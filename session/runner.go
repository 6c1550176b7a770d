package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"vocab-match-server/config"
	"vocab-match-server/deck"
	"vocab-match-server/wsutil"
)

// ActionType enumerates the kinds of actions a runner can process.
type ActionType int

const (
	ActionBeginLoad  ActionType = iota
	ActionLoadDeck              // load result; dropped unless Ticket is the active load
	ActionLoadFailed            // load failure; dropped unless Ticket is the active load
	ActionSelectCard
	ActionRestart
	ActionFire // internal: a scheduled task is due
	ActionView // internal: reply with a snapshot on Reply
)

// Action is a request sent into the runner's action channel.
type Action struct {
	Type   ActionType
	Ticket uint64
	Name   string
	Pairs  []deck.WordPair
	Reason error
	CardID string
	Column Column
	Task   Task
	Reply  chan View
}

// Runner drives one Session from a single goroutine. Client input, load results and due
// timers all arrive as Actions, so the session is never touched concurrently.
type Runner struct {
	ID      string
	Config  *config.Config
	Send    chan []byte
	Actions chan Action
	Done    chan struct{}

	session       *Session
	pronounceSide Side

	quit      chan struct{}
	closeOnce sync.Once

	ticketSeq    atomic.Uint64
	activeTicket uint64
}

// NewRunner creates a runner whose state messages go to send. rng may be nil.
func NewRunner(id string, cfg *config.Config, send chan []byte, rng *rand.Rand) *Runner {
	side, ok := ParseSide(cfg.PronunciationSide)
	if !ok {
		side = Source
	}
	r := &Runner{
		ID:            id,
		Config:        cfg,
		Send:          send,
		Actions:       make(chan Action, 16),
		Done:          make(chan struct{}),
		pronounceSide: side,
		quit:          make(chan struct{}),
	}
	r.session = New(Options{
		SetSize:           cfg.SetSize,
		MatchAdvanceDelay: time.Duration(cfg.MatchAdvanceDelayMS) * time.Millisecond,
		MismatchReveal:    time.Duration(cfg.MismatchRevealMS) * time.Millisecond,
		PronounceSide:     side,
		Scheduler:         r,
		Pronouncer:        r,
		Rand:              rng,
	})
	return r
}

// Run is the main session loop. It processes actions sequentially and pushes the session
// view to the client after every action that changed it. It should be run as a goroutine.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.Done)
	defer r.session.Close()

	slog.Debug("session started", "tag", "session", "id", r.ID)
	r.broadcastState()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.quit:
			slog.Debug("session closed", "tag", "session", "id", r.ID)
			return
		case action := <-r.Actions:
			if r.handle(action) {
				r.broadcastState()
			}
		}
	}
}

// Post enqueues an action. It returns false once the runner has stopped.
func (r *Runner) Post(a Action) bool {
	select {
	case <-r.Done:
		return false
	default:
	}
	select {
	case r.Actions <- a:
		return true
	case <-r.Done:
		return false
	}
}

// Load starts loading a deck: the session shows the loading state immediately and fetch runs
// in its own goroutine. Only the result of the most recent Load is applied.
func (r *Runner) Load(name string, fetch func() ([]deck.WordPair, error)) {
	ticket := r.ticketSeq.Add(1)
	if !r.Post(Action{Type: ActionBeginLoad, Ticket: ticket, Name: name}) {
		return
	}
	go func() {
		pairs, err := fetch()
		if err != nil {
			r.Post(Action{Type: ActionLoadFailed, Ticket: ticket, Name: name, Reason: err})
			return
		}
		r.Post(Action{Type: ActionLoadDeck, Ticket: ticket, Name: name, Pairs: pairs})
	}()
}

// View returns a snapshot taken on the runner goroutine.
func (r *Runner) View() (View, bool) {
	reply := make(chan View, 1)
	if !r.Post(Action{Type: ActionView, Reply: reply}) {
		return View{}, false
	}
	select {
	case v := <-reply:
		return v, true
	case <-r.Done:
		return View{}, false
	}
}

// Close stops the loop. Pending timers are cancelled when Run returns. Safe to call more than once.
func (r *Runner) Close() {
	r.closeOnce.Do(func() { close(r.quit) })
}

// After implements Scheduler: the task is posted back into the action channel when due.
func (r *Runner) After(d time.Duration, t Task) Timer {
	return time.AfterFunc(d, func() {
		r.Post(Action{Type: ActionFire, Task: t})
	})
}

// Pronounce implements Pronouncer by forwarding a pronounce message to the client.
func (r *Runner) Pronounce(text string) {
	data, err := json.Marshal(PronounceMsg{Type: "pronounce", Text: text, Lang: r.Config.PronunciationLang})
	if err != nil {
		slog.Error("marshal pronounce failed", "tag", "session", "err", err)
		return
	}
	wsutil.SafeSend(r.Send, data)
}

// handle applies one action and reports whether the session view changed.
func (r *Runner) handle(a Action) bool {
	switch a.Type {
	case ActionBeginLoad:
		r.activeTicket = a.Ticket
		r.session.BeginLoad(a.Name)
		return true

	case ActionLoadDeck:
		if !r.consumeTicket(a.Ticket) {
			return false
		}
		if err := r.session.LoadDeck(a.Name, a.Pairs); err != nil {
			slog.Warn("deck not playable", "tag", "session", "id", r.ID, "deck", a.Name, "err", err)
		}
		return true

	case ActionLoadFailed:
		if !r.consumeTicket(a.Ticket) {
			return false
		}
		slog.Warn("deck load failed", "tag", "session", "id", r.ID, "deck", a.Name, "err", a.Reason)
		r.session.FailLoad(a.Reason)
		return true

	case ActionSelectCard:
		return r.session.SelectCard(a.CardID, a.Column)

	case ActionRestart:
		if r.session.Phase() == Loading {
			return false
		}
		if err := r.session.Restart(); err != nil {
			slog.Debug("restart rejected", "tag", "session", "id", r.ID, "err", err)
		}
		return true

	case ActionFire:
		return r.session.Fire(a.Task)

	case ActionView:
		if a.Reply != nil {
			a.Reply <- r.session.View()
		}
		return false
	}
	return false
}

func (r *Runner) consumeTicket(ticket uint64) bool {
	if ticket == 0 || ticket != r.activeTicket {
		slog.Debug("dropping stale load result", "tag", "session", "id", r.ID, "ticket", ticket)
		return false
	}
	r.activeTicket = 0
	return true
}

func (r *Runner) broadcastState() {
	data, err := json.Marshal(BuildStateMsg(r.session.View(), r.pronounceSide))
	if err != nil {
		slog.Error("marshal state failed", "tag", "session", "id", r.ID, "err", err)
		return
	}
	wsutil.SafeSend(r.Send, data)
}
