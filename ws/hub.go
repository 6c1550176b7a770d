package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"vocab-match-server/config"
	"vocab-match-server/deck"
	"vocab-match-server/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development; restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// DeckProvider resolves catalog deck ids for load_deck.
type DeckProvider interface {
	DeckName(ctx context.Context, id string) (string, error)
	Pairs(ctx context.Context, id string) ([]deck.WordPair, error)
}

// Hub maintains the set of active clients. Each client owns one session runner.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Decks      DeckProvider
	Config     *config.Config

	// done is closed when Run returns so pumps stop waiting on Register and Unregister.
	done chan struct{}
}

// NewHub creates a new Hub.
func NewHub(cfg *config.Config, decks DeckProvider) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Decks:      decks,
		Config:     cfg,
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled (e.g. on server shutdown), Run closes every session and its
// connection, then returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, stopping", "tag", "hub", "clients", len(h.Clients))
			for client := range h.Clients {
				delete(h.Clients, client)
				client.Runner.Close()
				<-client.Runner.Done
				close(client.Send)
			}
			return
		case client := <-h.Register:
			h.Clients[client] = true
			go client.Runner.Run(ctx)
			slog.Info("client connected", "tag", "hub", "client", client.ID, "total", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				client.Runner.Close()
				<-client.Runner.Done
				close(client.Send)
				slog.Info("client disconnected", "tag", "hub", "client", client.ID, "total", len(h.Clients))
			}
		}
	}
}

// ServeWS handles WebSocket upgrade requests and starts a session for the new client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "tag", "hub", "err", err)
		return
	}

	id := uuid.NewString()
	send := make(chan []byte, 256)
	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		ID:     id,
		Hub:    h,
		Conn:   conn,
		Send:   send,
		Runner: session.NewRunner(id, h.Config, send, nil),
		ctx:    ctx,
		cancel: cancel,
	}

	select {
	case h.Register <- client:
	case <-h.done:
		cancel()
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
