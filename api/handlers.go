package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vocab-match-server/catalog"
	"vocab-match-server/config"
	"vocab-match-server/deck"
	"vocab-match-server/deckerrors"
)

// DeckCatalog is what the HTTP handlers need from the deck catalog.
type DeckCatalog interface {
	List(ctx context.Context) ([]catalog.Entry, error)
	Get(ctx context.Context, id string) (catalog.Entry, error)
	Upload(ctx context.Context, filename string, r io.Reader) (catalog.Entry, deck.IngestReport, error)
}

// Handler holds dependencies for API handlers.
type Handler struct {
	Config *config.Config
	Decks  DeckCatalog
	// WS serves the /ws upgrade.
	WS http.Handler
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(cfg *config.Config, decks DeckCatalog, ws http.Handler) *Handler {
	return &Handler{
		Config: cfg,
		Decks:  decks,
		WS:     ws,
	}
}

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	Deck   catalog.Entry     `json:"deck"`
	Report deck.IngestReport `json:"report"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListDecks returns uploaded decks followed by the presets.
func (h *Handler) ListDecks(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Decks.List(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]catalog.Entry{"decks": entries})
}

// GetDeck returns one deck's name and pair count.
func (h *Handler) GetDeck(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Decks.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// UploadDeck ingests the spreadsheet in multipart field "file".
func (h *Handler) UploadDeck(w http.ResponseWriter, r *http.Request) {
	limit := int64(h.Config.MaxUploadBytes)
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(w, r, fmt.Errorf("limit is %d bytes: %w", limit, deckerrors.ErrUploadTooLarge))
			return
		}
		handleError(w, r, fmt.Errorf("%w: %v", errMissingFile, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		handleError(w, r, errMissingFile)
		return
	}
	defer file.Close()

	entry, report, err := h.Decks.Upload(r.Context(), header.Filename, file)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, UploadResponse{Deck: entry, Report: report})
}

// ServeWS hands the connection to the websocket hub.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.WS.ServeHTTP(w, r)
}
