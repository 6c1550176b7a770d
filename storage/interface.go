package storage

import (
	"context"
	"time"

	"vocab-match-server/deck"
)

// DeckSummary describes a stored deck without its pairs.
type DeckSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PairCount   int       `json:"pairCount"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// DeckStore abstracts persistence for uploaded decks.
// Implementations can be swapped for testing or for running without a database.
type DeckStore interface {
	// SaveDeck stores d under d.ID, replacing nothing: ids are never reused.
	SaveDeck(ctx context.Context, d deck.Deck) error
	// GetDeck returns the deck with its pairs in ingestion order, or deckerrors.ErrDeckNotFound.
	GetDeck(ctx context.Context, id string) (deck.Deck, error)
	// ListDecks returns up to limit decks, newest first. A non-positive limit returns all.
	ListDecks(ctx context.Context, limit int) ([]DeckSummary, error)

	Close()
}

// Ensure both implementations satisfy DeckStore at compile time.
var (
	_ DeckStore = (*Store)(nil)
	_ DeckStore = (*MemoryStore)(nil)
)
