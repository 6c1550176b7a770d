package deck

import (
	"math/rand"
)

// WordPair is one source/target association loaded from a deck. Immutable once created.
type WordPair struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Deck is a named, ordered collection of unique pairs.
type Deck struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Pairs       []WordPair `json:"pairs"`
}

// Shuffle returns a uniformly random permutation of items (Fisher–Yates).
// The input slice is not modified. A nil r uses the global source.
func Shuffle[T any](r *rand.Rand, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if r == nil {
		rand.Shuffle(len(out), swap)
	} else {
		r.Shuffle(len(out), swap)
	}
	return out
}
