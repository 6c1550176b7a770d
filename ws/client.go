package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"vocab-match-server/deck"
	"vocab-match-server/session"
	"vocab-match-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Time allowed to resolve a deck for load_deck.
	loadTimeout = 30 * time.Second
)

// Client is a middleman between the websocket connection and its session runner.
type Client struct {
	ID     string
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	Runner *session.Runner

	// ctx is cancelled when the connection closes so in-flight deck loads stop.
	ctx    context.Context
	cancel context.CancelFunc
}

// ReadPump pumps messages from the websocket connection to the session runner.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.cancel()
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "tag", "ws", "client", c.ID, "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}
	slog.Debug("message received", "tag", "ws", "client", c.ID, "type", envelope.Type)

	switch envelope.Type {
	case "load_deck":
		c.handleLoadDeck(envelope.Raw)
	case "select_card":
		c.handleSelectCard(envelope.Raw)
	case "restart":
		c.handleRestart(envelope.Raw)
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

func (c *Client) handleLoadDeck(raw json.RawMessage) {
	var msg LoadDeckMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.DeckID == "" {
		c.sendError("Invalid load_deck message.")
		return
	}

	name, err := c.Hub.Decks.DeckName(c.ctx, msg.DeckID)
	if err != nil {
		slog.Warn("unknown deck requested", "tag", "ws", "client", c.ID, "deck", msg.DeckID, "err", err)
		c.sendError("Deck not found: " + msg.DeckID)
		return
	}

	c.Runner.Load(name, func() ([]deck.WordPair, error) {
		ctx, cancel := context.WithTimeout(c.ctx, loadTimeout)
		defer cancel()
		return c.Hub.Decks.Pairs(ctx, msg.DeckID)
	})
}

func (c *Client) handleSelectCard(raw json.RawMessage) {
	var msg SelectCardMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid select_card message.")
		return
	}
	col, ok := session.ParseColumn(msg.Column)
	if !ok || msg.CardID == "" {
		c.sendError("Invalid select_card message.")
		return
	}

	c.Runner.Post(session.Action{
		Type:   session.ActionSelectCard,
		CardID: msg.CardID,
		Column: col,
	})
}

func (c *Client) handleRestart(raw json.RawMessage) {
	var msg RestartMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid restart message.")
		return
	}
	c.Runner.Post(session.Action{Type: session.ActionRestart})
}

func (c *Client) sendError(message string) {
	data, _ := json.Marshal(ErrorMsg{Type: "error", Message: message})
	wsutil.SafeSend(c.Send, data)
}
