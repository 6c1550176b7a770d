package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"vocab-match-server/deck"
	"vocab-match-server/deckerrors"
)

// MemoryStore keeps uploaded decks in process memory. Only the most recent max decks are kept.
type MemoryStore struct {
	mu    sync.Mutex
	max   int
	decks map[string]memoryEntry
	order []string // oldest first
	now   func() time.Time
}

type memoryEntry struct {
	deck       deck.Deck
	uploadedAt time.Time
}

// NewMemoryStore creates a store holding at most max decks. A non-positive max means no limit.
func NewMemoryStore(max int) *MemoryStore {
	return &MemoryStore{
		max:   max,
		decks: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

// SaveDeck stores a copy of the deck, evicting the oldest upload once max is exceeded.
func (m *MemoryStore) SaveDeck(_ context.Context, d deck.Deck) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.decks[d.ID]; exists {
		m.order = slices.DeleteFunc(m.order, func(id string) bool { return id == d.ID })
	}
	d.Pairs = slices.Clone(d.Pairs)
	m.decks[d.ID] = memoryEntry{deck: d, uploadedAt: m.now()}
	m.order = append(m.order, d.ID)

	for m.max > 0 && len(m.order) > m.max {
		delete(m.decks, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

// GetDeck returns a copy of the deck with its pairs in upload order.
func (m *MemoryStore) GetDeck(_ context.Context, id string) (deck.Deck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.decks[id]
	if !ok {
		return deck.Deck{}, fmt.Errorf("deck %s: %w", id, deckerrors.ErrDeckNotFound)
	}
	d := e.deck
	d.Pairs = slices.Clone(d.Pairs)
	return d, nil
}

// ListDecks returns up to limit deck summaries, newest first.
func (m *MemoryStore) ListDecks(_ context.Context, limit int) ([]DeckSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]DeckSummary, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		e := m.decks[m.order[i]]
		out = append(out, DeckSummary{
			ID:          e.deck.ID,
			Name:        e.deck.Name,
			Description: e.deck.Description,
			PairCount:   len(e.deck.Pairs),
			UploadedAt:  e.uploadedAt,
		})
	}
	return out, nil
}

func (m *MemoryStore) Close() {}
