package ws

import "encoding/json"

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON captures the raw payload alongside the type.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-Server message payloads ---

// LoadDeckMsg asks the server to start a session on a deck from the catalog.
type LoadDeckMsg struct {
	Type   string `json:"type"`
	DeckID string `json:"deckId"`
}

// SelectCardMsg is a click on a card. Column is "left" or "right".
type SelectCardMsg struct {
	Type   string `json:"type"`
	CardID string `json:"cardId"`
	Column string `json:"column"`
}

// RestartMsg reshuffles the current deck.
type RestartMsg struct {
	Type string `json:"type"`
}

// --- Server-to-Client messages ---
// session_state and pronounce are defined by the session package.

// ErrorMsg is sent when a client message is invalid.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
