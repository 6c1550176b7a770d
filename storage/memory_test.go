package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocab-match-server/deck"
	"vocab-match-server/deckerrors"
)

func sampleDeck(id string) deck.Deck {
	return deck.Deck{
		ID:    id,
		Name:  id + ".csv",
		Pairs: []deck.WordPair{{ID: "pair-0", Source: "dog", Target: "Hund"}},
	}
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	m := NewMemoryStore(0)
	ctx := context.Background()
	d := sampleDeck("a")

	require.NoError(t, m.SaveDeck(ctx, d))
	d.Pairs[0].Source = "changed"

	got, err := m.GetDeck(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "dog", got.Pairs[0].Source, "stored pairs are copied")

	_, err = m.GetDeck(ctx, "missing")
	assert.ErrorIs(t, err, deckerrors.ErrDeckNotFound)
}

func TestMemoryStore_ListNewestFirstWithCap(t *testing.T) {
	m := NewMemoryStore(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, m.SaveDeck(ctx, sampleDeck(fmt.Sprintf("d%d", i))))
	}

	all, err := m.ListDecks(ctx, 0)
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, d := range all {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"d4", "d3", "d2"}, ids)
	assert.Equal(t, 1, all[0].PairCount)

	_, err = m.GetDeck(ctx, "d0")
	assert.ErrorIs(t, err, deckerrors.ErrDeckNotFound, "oldest deck is evicted")

	limited, err := m.ListDecks(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
