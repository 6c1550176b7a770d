package session

import "errors"

// Errors that move a session into the Error phase. Each is recoverable by loading another deck.
var (
	ErrEmptyDeck         = errors.New("empty deck")
	ErrEmptyPageAtStart  = errors.New("no playable pairs")
	ErrRestartWithNoDeck = errors.New("no deck loaded to restart")
)

// ErrorKind classifies the reason a session is in the Error phase.
type ErrorKind int

const (
	NoError ErrorKind = iota
	EmptyDeck
	EmptyPageAtStart
	RestartWithNoDeck
	// LoadFailed is set when the deck source reported a failure before any pairs arrived.
	LoadFailed
)

// String returns the name of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case EmptyDeck:
		return "EmptyDeck"
	case EmptyPageAtStart:
		return "EmptyPageAtStart"
	case RestartWithNoDeck:
		return "RestartWithNoDeck"
	case LoadFailed:
		return "LoadFailed"
	default:
		return ""
	}
}
