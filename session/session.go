package session

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"vocab-match-server/deck"
)

// Phase is the lifecycle stage of a set session.
type Phase int

const (
	Empty Phase = iota
	Loading
	PageReady
	PageCleared
	Completed
	Error
)

// String returns the protocol string for a Phase.
func (p Phase) String() string {
	switch p {
	case Empty:
		return "empty"
	case Loading:
		return "loading"
	case PageReady:
		return "page_ready"
	case PageCleared:
		return "page_cleared"
	case Completed:
		return "completed"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// FeedbackKind tags the feedback message with the transition that produced it.
type FeedbackKind int

const (
	FeedbackPrompt FeedbackKind = iota
	FeedbackLoading
	FeedbackLoaded
	FeedbackRestarted
	FeedbackMatch
	FeedbackMismatch
	FeedbackPageComplete
	FeedbackDeckComplete
	FeedbackError
)

// String returns the protocol string for a FeedbackKind.
func (k FeedbackKind) String() string {
	switch k {
	case FeedbackPrompt:
		return "prompt"
	case FeedbackLoading:
		return "loading"
	case FeedbackLoaded:
		return "loaded"
	case FeedbackRestarted:
		return "restarted"
	case FeedbackMatch:
		return "match"
	case FeedbackMismatch:
		return "mismatch"
	case FeedbackPageComplete:
		return "page_complete"
	case FeedbackDeckComplete:
		return "deck_complete"
	case FeedbackError:
		return "error"
	default:
		return "unknown"
	}
}

// Feedback is the human-readable message for the most recent transition.
type Feedback struct {
	Kind    FeedbackKind
	Message string
}

const (
	msgChooseDeck = "Choose a sample deck or upload your own file."
	msgPrompt     = "Select a word from each column."
	msgCorrect    = "Correct!"
	msgIncorrect  = "Incorrect. Try again!"
)

// TaskKind enumerates the delayed transitions a session schedules.
type TaskKind int

const (
	// AdvancePage loads the next page (or completes the deck) after a cleared page has been shown.
	AdvancePage TaskKind = iota + 1
	// RevertMismatch returns two incorrectly revealed cards to Idle.
	RevertMismatch
)

// Task is a delayed transition. It is tagged with the generation and set it was scheduled for;
// Fire ignores it once either has moved on.
type Task struct {
	Kind       TaskKind
	Generation uint64
	SetIndex   int
	CardIDs    [2]string

	seq uint64
}

// Timer is a handle to a scheduled task.
type Timer interface {
	Stop() bool
}

// Scheduler delivers a task back to Session.Fire after d. Delivery must happen on the same
// goroutine that drives the session.
type Scheduler interface {
	After(d time.Duration, t Task) Timer
}

// Pronouncer receives playback requests for pronunciation-eligible cards. Implementations
// must not block; the session never waits for or depends on the outcome.
type Pronouncer interface {
	Pronounce(text string)
}

// Options configures a Session.
type Options struct {
	SetSize           int
	MatchAdvanceDelay time.Duration
	MismatchReveal    time.Duration
	// PronounceSide is the side whose cards request playback when selected. NoSide disables it.
	PronounceSide Side
	Scheduler     Scheduler
	Pronouncer    Pronouncer
	Rand          *rand.Rand
}

// View is a read-only snapshot of a session for rendering and status display.
type View struct {
	Phase           Phase
	DeckName        string
	SetIndex        int
	TotalSets       int
	SetSize         int
	TotalPairs      int
	Score           int
	Attempts        int
	TotalAttempts   int
	TotalMatched    int
	Left            []DisplayCard
	Right           []DisplayCard
	SelectedLeftID  string
	SelectedRightID string
	Feedback        Feedback
	ErrorKind       ErrorKind
	Reason          string
	Generation      uint64
}

// Session is the set session state machine: it pages through a shuffled deck, tracks
// selections and scores matching attempts. It is not safe for concurrent use; a single
// goroutine must drive every operation including Fire.
type Session struct {
	opts Options
	rng  *rand.Rand

	deckName string
	allPairs []deck.WordPair
	setIndex int

	left          []DisplayCard
	right         []DisplayCard
	selectedLeft  string
	selectedRight string

	score         int
	attempts      int
	totalAttempts int
	totalMatched  int

	phase    Phase
	feedback Feedback
	errKind  ErrorKind
	err      error

	generation uint64
	nextSeq    uint64
	timers     map[uint64]Timer
}

// New creates a session in the Empty phase.
func New(opts Options) *Session {
	if opts.SetSize <= 0 {
		opts.SetSize = 5
	}
	if opts.Scheduler == nil {
		opts.Scheduler = discardScheduler{}
	}
	return &Session{
		opts:     opts,
		rng:      opts.Rand,
		phase:    Empty,
		feedback: Feedback{Kind: FeedbackPrompt, Message: msgChooseDeck},
		timers:   make(map[uint64]Timer),
	}
}

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Err returns the error that put the session into the Error phase, or nil.
func (s *Session) Err() error { return s.err }

// BeginLoad marks a new deck load as in progress. Pending delayed transitions are invalidated.
func (s *Session) BeginLoad(name string) {
	s.invalidate()
	s.clearError()
	s.phase = Loading
	s.left, s.right = nil, nil
	s.selectedLeft, s.selectedRight = "", ""
	s.score, s.attempts = 0, 0
	s.feedback = Feedback{Kind: FeedbackLoading, Message: fmt.Sprintf("Loading %s...", name)}
}

// FailLoad records that the deck source could not deliver pairs.
func (s *Session) FailLoad(reason error) {
	s.invalidate()
	s.allPairs = nil
	s.deckName = ""
	s.fail(LoadFailed, reason)
}

// LoadDeck replaces the deck with a fresh random permutation of pairs and shows page 0.
// An empty deck moves the session to Error with ErrEmptyDeck and builds no page.
func (s *Session) LoadDeck(name string, pairs []deck.WordPair) error {
	s.invalidate()
	s.clearError()
	s.deckName = name
	s.totalAttempts, s.totalMatched = 0, 0

	if len(pairs) == 0 {
		s.allPairs = nil
		s.fail(EmptyDeck, ErrEmptyDeck)
		return ErrEmptyDeck
	}

	s.allPairs = deck.Shuffle(s.rng, pairs)
	s.setIndex = 0
	if !s.loadPage(0) {
		return s.err
	}
	s.feedback = Feedback{
		Kind:    FeedbackLoaded,
		Message: fmt.Sprintf("Successfully loaded %d words from %s. %s", len(s.allPairs), displayName(name), msgPrompt),
	}
	slog.Debug("deck loaded", "tag", "session", "deck", name, "pairs", len(s.allPairs), "sets", s.totalSets())
	return nil
}

// Restart reshuffles the loaded deck and returns to page 0. Ignored while a load is in progress.
func (s *Session) Restart() error {
	if s.phase == Loading {
		return nil
	}
	s.invalidate()
	if len(s.allPairs) == 0 {
		s.fail(RestartWithNoDeck, ErrRestartWithNoDeck)
		return ErrRestartWithNoDeck
	}

	s.clearError()
	s.allPairs = deck.Shuffle(s.rng, s.allPairs)
	s.totalAttempts, s.totalMatched = 0, 0
	if !s.loadPage(0) {
		return s.err
	}
	s.feedback = Feedback{
		Kind:    FeedbackRestarted,
		Message: "Restarting with the current deck. " + msgPrompt,
	}
	return nil
}

// SelectCard applies a click on a card in column. It reports whether the click changed state;
// clicks outside PageReady, on unknown cards, or on matched cards are ignored.
// When both columns hold a selection the pair is evaluated immediately.
func (s *Session) SelectCard(cardID string, col Column) bool {
	if s.phase != PageReady {
		return false
	}
	cards, sel := s.column(col)
	idx := indexOf(cards, cardID)
	if idx < 0 || !cards[idx].Selectable() {
		return false
	}
	card := &cards[idx]

	if *sel == card.ID {
		card.Status = Idle
		*sel = ""
		return true
	}
	if prev := indexOf(cards, *sel); prev >= 0 && cards[prev].Status == Selected {
		cards[prev].Status = Idle
	}
	card.Status = Selected
	*sel = card.ID

	if card.Side != NoSide && card.Side == s.opts.PronounceSide && s.opts.Pronouncer != nil {
		s.opts.Pronouncer.Pronounce(card.Text)
	}

	if s.bothSelected() {
		s.evaluatePair()
	}
	return true
}

// Fire applies a delayed transition. Tasks from an older generation or set, or whose
// phase precondition no longer holds, are ignored. It reports whether state changed.
func (s *Session) Fire(t Task) bool {
	delete(s.timers, t.seq)
	if t.Generation != s.generation || t.SetIndex != s.setIndex {
		return false
	}

	switch t.Kind {
	case AdvancePage:
		if s.phase != PageCleared {
			return false
		}
		if s.loadPage(s.setIndex + 1) {
			s.feedback = Feedback{Kind: FeedbackPrompt, Message: msgPrompt}
		}
		return true

	case RevertMismatch:
		if s.phase != PageReady {
			return false
		}
		changed := false
		for _, id := range t.CardIDs {
			for _, cards := range [][]DisplayCard{s.left, s.right} {
				if i := indexOf(cards, id); i >= 0 && cards[i].Status == RevealedIncorrect {
					cards[i].Status = Idle
					changed = true
				}
			}
		}
		if changed && s.feedback.Kind == FeedbackMismatch {
			s.feedback = Feedback{Kind: FeedbackPrompt, Message: msgPrompt}
		}
		return changed
	}
	return false
}

// Close cancels every pending delayed transition.
func (s *Session) Close() {
	s.invalidate()
}

// View returns a snapshot of the session. Card slices are copies.
func (s *Session) View() View {
	v := View{
		Phase:           s.phase,
		DeckName:        s.deckName,
		SetIndex:        s.setIndex,
		TotalSets:       s.totalSets(),
		SetSize:         s.opts.SetSize,
		TotalPairs:      len(s.allPairs),
		Score:           s.score,
		Attempts:        s.attempts,
		TotalAttempts:   s.totalAttempts,
		TotalMatched:    s.totalMatched,
		Left:            append([]DisplayCard(nil), s.left...),
		Right:           append([]DisplayCard(nil), s.right...),
		SelectedLeftID:  s.selectedLeft,
		SelectedRightID: s.selectedRight,
		Feedback:        s.feedback,
		ErrorKind:       s.errKind,
		Generation:      s.generation,
	}
	if s.err != nil {
		v.Reason = s.err.Error()
	}
	return v
}

// loadPage builds page index from allPairs. It reports whether a playable page was built.
func (s *Session) loadPage(index int) bool {
	start := index * s.opts.SetSize
	if start >= len(s.allPairs) {
		if index > 0 {
			s.complete()
			return false
		}
		s.fail(EmptyPageAtStart, ErrEmptyPageAtStart)
		return false
	}
	end := min(start+s.opts.SetSize, len(s.allPairs))

	s.left, s.right = buildColumns(s.rng, index, s.allPairs[start:end])
	s.setIndex = index
	s.selectedLeft, s.selectedRight = "", ""
	s.score, s.attempts = 0, 0
	s.phase = PageReady
	return true
}

// evaluatePair resolves the two current selections. Every evaluation counts as an attempt.
func (s *Session) evaluatePair() {
	li := indexOf(s.left, s.selectedLeft)
	ri := indexOf(s.right, s.selectedRight)
	if li < 0 || ri < 0 {
		return
	}
	l, r := &s.left[li], &s.right[ri]

	s.attempts++
	s.totalAttempts++
	s.selectedLeft, s.selectedRight = "", ""

	if l.PairID == r.PairID {
		l.Status, r.Status = Matched, Matched
		s.score++
		s.totalMatched++
		if s.score == len(s.left) {
			s.phase = PageCleared
			s.feedback = Feedback{Kind: FeedbackPageComplete, Message: fmt.Sprintf("Set %d complete! Well done!", s.setIndex+1)}
			s.schedule(AdvancePage, s.opts.MatchAdvanceDelay, [2]string{})
			return
		}
		s.feedback = Feedback{Kind: FeedbackMatch, Message: msgCorrect}
		return
	}

	l.Status, r.Status = RevealedIncorrect, RevealedIncorrect
	s.feedback = Feedback{Kind: FeedbackMismatch, Message: msgIncorrect}
	s.schedule(RevertMismatch, s.opts.MismatchReveal, [2]string{l.ID, r.ID})
}

func (s *Session) bothSelected() bool {
	return s.selectedLeft != "" && s.selectedRight != ""
}

func (s *Session) column(col Column) ([]DisplayCard, *string) {
	if col == Right {
		return s.right, &s.selectedRight
	}
	return s.left, &s.selectedLeft
}

func (s *Session) complete() {
	s.phase = Completed
	s.selectedLeft, s.selectedRight = "", ""
	s.feedback = Feedback{
		Kind:    FeedbackDeckComplete,
		Message: fmt.Sprintf("Congratulations! You matched all %d unique pairs from the file!", len(s.allPairs)),
	}
	slog.Debug("deck completed", "tag", "session", "deck", s.deckName, "attempts", s.totalAttempts)
}

func (s *Session) fail(kind ErrorKind, err error) {
	s.phase = Error
	s.errKind = kind
	s.err = err
	s.left, s.right = nil, nil
	s.selectedLeft, s.selectedRight = "", ""
	s.score, s.attempts = 0, 0
	s.setIndex = 0
	s.feedback = Feedback{Kind: FeedbackError, Message: "error: " + err.Error()}
}

func (s *Session) clearError() {
	s.errKind = NoError
	s.err = nil
}

func (s *Session) schedule(kind TaskKind, d time.Duration, cardIDs [2]string) {
	s.nextSeq++
	t := Task{Kind: kind, Generation: s.generation, SetIndex: s.setIndex, CardIDs: cardIDs, seq: s.nextSeq}
	s.timers[t.seq] = s.opts.Scheduler.After(d, t)
}

// invalidate stops pending timers and bumps the generation so any task already in flight
// is rejected by Fire.
func (s *Session) invalidate() {
	for seq, timer := range s.timers {
		if timer != nil {
			timer.Stop()
		}
		delete(s.timers, seq)
	}
	s.generation++
}

func (s *Session) totalSets() int {
	return (len(s.allPairs) + s.opts.SetSize - 1) / s.opts.SetSize
}

func displayName(name string) string {
	if name == "" {
		return "your file"
	}
	return name
}

type discardScheduler struct{}

func (discardScheduler) After(time.Duration, Task) Timer { return stoppedTimer{} }

type stoppedTimer struct{}

func (stoppedTimer) Stop() bool { return false }
