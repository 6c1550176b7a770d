package session

import (
	"fmt"
	"math/rand"

	"vocab-match-server/deck"
)

// Side is the half of a pair a card shows.
// The zero value means no side, used to disable pronunciation.
type Side int

const (
	NoSide Side = iota
	Source
	Target
)

// String returns the protocol string for a Side.
func (s Side) String() string {
	switch s {
	case Source:
		return "source"
	case Target:
		return "target"
	default:
		return "none"
	}
}

// ParseSide maps a config value ("source", "target", "none") to a Side.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "source":
		return Source, true
	case "target":
		return Target, true
	case "none", "":
		return NoSide, true
	default:
		return NoSide, false
	}
}

// Column identifies one of the two on-screen columns.
type Column int

const (
	Left Column = iota
	Right
)

// String returns the protocol string for a Column.
func (c Column) String() string {
	if c == Right {
		return "right"
	}
	return "left"
}

// ParseColumn maps "left"/"right" to a Column.
func ParseColumn(s string) (Column, bool) {
	switch s {
	case "left":
		return Left, true
	case "right":
		return Right, true
	default:
		return Left, false
	}
}

// CardStatus is the display state of a card. Values are mutually exclusive.
type CardStatus int

const (
	Idle CardStatus = iota
	Selected
	Matched
	RevealedIncorrect
)

// String returns the string representation of a CardStatus.
func (cs CardStatus) String() string {
	switch cs {
	case Idle:
		return "idle"
	case Selected:
		return "selected"
	case Matched:
		return "matched"
	case RevealedIncorrect:
		return "revealed_incorrect"
	default:
		return "unknown"
	}
}

// DisplayCard is one rendered side of one pair within the current set.
// PairID is only used for equality checks when resolving a selection.
type DisplayCard struct {
	ID     string
	PairID string
	Text   string
	Number int
	Side   Side
	Status CardStatus
}

// Selectable reports whether a click on the card can change the selection.
// Only matched cards are final. A revealed card that is clicked again becomes Selected.
func (c DisplayCard) Selectable() bool {
	return c.Status != Matched
}

// buildColumns creates the two card columns for a page. Numbers are assigned in page order
// (left 1..k, right k+1..2k) before each column is shuffled independently.
func buildColumns(r *rand.Rand, setIndex int, pairs []deck.WordPair) (left, right []DisplayCard) {
	k := len(pairs)
	left = make([]DisplayCard, k)
	right = make([]DisplayCard, k)
	for i, p := range pairs {
		left[i] = DisplayCard{
			ID:     fmt.Sprintf("left-%d-%d-%s", setIndex, i, p.ID),
			PairID: p.ID,
			Text:   p.Source,
			Number: i + 1,
			Side:   Source,
		}
		right[i] = DisplayCard{
			ID:     fmt.Sprintf("right-%d-%d-%s", setIndex, i, p.ID),
			PairID: p.ID,
			Text:   p.Target,
			Number: k + i + 1,
			Side:   Target,
		}
	}
	return deck.Shuffle(r, left), deck.Shuffle(r, right)
}

func indexOf(cards []DisplayCard, id string) int {
	if id == "" {
		return -1
	}
	for i := range cards {
		if cards[i].ID == id {
			return i
		}
	}
	return -1
}
