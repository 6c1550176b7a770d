package session

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vocab-match-server/deck"
)

// manualTimer records whether the session cancelled it.
type manualTimer struct {
	stopped bool
}

func (t *manualTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

// manualScheduler captures scheduled tasks so tests decide when they fire.
type manualScheduler struct {
	tasks  []Task
	delays []time.Duration
	timers []*manualTimer
}

func (m *manualScheduler) After(d time.Duration, t Task) Timer {
	timer := &manualTimer{}
	m.tasks = append(m.tasks, t)
	m.delays = append(m.delays, d)
	m.timers = append(m.timers, timer)
	return timer
}

func (m *manualScheduler) last(t *testing.T) Task {
	t.Helper()
	require.NotEmpty(t, m.tasks, "expected a scheduled task")
	return m.tasks[len(m.tasks)-1]
}

type recordingPronouncer struct {
	texts []string
}

func (p *recordingPronouncer) Pronounce(text string) {
	p.texts = append(p.texts, text)
}

func makePairs(n int) []deck.WordPair {
	pairs := make([]deck.WordPair, n)
	for i := range pairs {
		pairs[i] = deck.WordPair{
			ID:     fmt.Sprintf("pair-%d", i),
			Source: fmt.Sprintf("source %d", i),
			Target: fmt.Sprintf("target %d", i),
		}
	}
	return pairs
}

func newTestSession(setSize int) (*Session, *manualScheduler, *recordingPronouncer) {
	sched := &manualScheduler{}
	pron := &recordingPronouncer{}
	s := New(Options{
		SetSize:           setSize,
		MatchAdvanceDelay: 750 * time.Millisecond,
		MismatchReveal:    time.Second,
		PronounceSide:     Source,
		Scheduler:         sched,
		Pronouncer:        pron,
		Rand:              rand.New(rand.NewSource(7)),
	})
	return s, sched, pron
}

// partner returns the id of the right card that matches left card l.
func partner(t *testing.T, v View, l DisplayCard) string {
	t.Helper()
	for _, r := range v.Right {
		if r.PairID == l.PairID {
			return r.ID
		}
	}
	t.Fatalf("no partner for %s", l.ID)
	return ""
}

// nonPartner returns the id of a right card that does not match left card l.
func nonPartner(t *testing.T, v View, l DisplayCard) string {
	t.Helper()
	for _, r := range v.Right {
		if r.PairID != l.PairID {
			return r.ID
		}
	}
	t.Fatalf("no mismatching card for %s", l.ID)
	return ""
}

// clearPage matches every pair on the current page and returns the matched source/target texts.
func clearPage(t *testing.T, s *Session) []deck.WordPair {
	t.Helper()
	v := s.View()
	require.Equal(t, PageReady, v.Phase)
	matched := make([]deck.WordPair, 0, len(v.Left))
	for _, l := range v.Left {
		rightID := partner(t, v, l)
		require.True(t, s.SelectCard(l.ID, Left))
		require.True(t, s.SelectCard(rightID, Right))
		r := v.Right[indexOf(v.Right, rightID)]
		matched = append(matched, deck.WordPair{ID: l.PairID, Source: l.Text, Target: r.Text})
	}
	return matched
}
