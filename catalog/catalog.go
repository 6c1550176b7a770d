package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"vocab-match-server/deck"
	"vocab-match-server/deckerrors"
	"vocab-match-server/storage"
)

const (
	presetPrefix = "preset:"
	uploadPrefix = "upload:"

	uploadedSuffix    = " (Uploaded)"
	uploadDescription = "Uploaded during this session."
)

// Entry is one selectable deck in the listing.
type Entry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Uploaded    bool   `json:"uploaded"`
	PairCount   int    `json:"pairCount,omitempty"`
}

// Catalog combines the preset decks from the manifest with uploaded decks from a store.
type Catalog struct {
	deckDir   string
	presets   []deck.ManifestEntry
	store     storage.DeckStore
	listLimit int
}

// New creates a catalog. Preset paths are resolved relative to deckDir.
func New(deckDir string, presets []deck.ManifestEntry, store storage.DeckStore, listLimit int) *Catalog {
	return &Catalog{
		deckDir:   deckDir,
		presets:   presets,
		store:     store,
		listLimit: listLimit,
	}
}

// List returns uploaded decks (newest first, one per display name) followed by the presets.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	uploads, err := c.store.ListDecks(ctx, c.listLimit)
	if err != nil {
		return nil, fmt.Errorf("listing uploaded decks: %w", err)
	}

	out := make([]Entry, 0, len(uploads)+len(c.presets))
	seen := make(map[string]struct{}, len(uploads))
	for _, u := range uploads {
		name := u.Name + uploadedSuffix
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, Entry{
			ID:          uploadPrefix + u.ID,
			Name:        name,
			Description: u.Description,
			Uploaded:    true,
			PairCount:   u.PairCount,
		})
	}
	for _, p := range c.presets {
		out = append(out, Entry{ID: presetPrefix + p.Path, Name: p.Name, Description: p.Description})
	}
	return out, nil
}

// Get resolves id and returns its entry with the pair count filled in.
func (c *Catalog) Get(ctx context.Context, id string) (Entry, error) {
	d, err := c.load(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{
		ID:          id,
		Name:        d.Name,
		Description: d.Description,
		PairCount:   len(d.Pairs),
	}
	if strings.HasPrefix(id, uploadPrefix) {
		e.Name += uploadedSuffix
		e.Uploaded = true
	}
	return e, nil
}

// DeckName returns the display name for id without reading its pairs.
func (c *Catalog) DeckName(ctx context.Context, id string) (string, error) {
	if p, ok := c.preset(id); ok {
		return p.Name, nil
	}
	if _, ok := uploadID(id); ok {
		d, err := c.load(ctx, id)
		if err != nil {
			return "", err
		}
		return d.Name, nil
	}
	return "", fmt.Errorf("deck %s: %w", id, deckerrors.ErrDeckNotFound)
}

// Pairs returns the word pairs of deck id in ingestion order.
func (c *Catalog) Pairs(ctx context.Context, id string) ([]deck.WordPair, error) {
	d, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.Pairs, nil
}

// Upload parses an uploaded spreadsheet and stores it under a fresh id.
func (c *Catalog) Upload(ctx context.Context, filename string, r io.Reader) (Entry, deck.IngestReport, error) {
	name := strings.TrimSuffix(filepath.Base(filename), uploadedSuffix)
	pairs, report, err := deck.Parse(name, r)
	if err != nil {
		return Entry{}, report, err
	}

	d := deck.Deck{
		ID:          uuid.NewString(),
		Name:        name,
		Description: uploadDescription,
		Pairs:       pairs,
	}
	if err := c.store.SaveDeck(ctx, d); err != nil {
		return Entry{}, report, fmt.Errorf("saving deck %s: %w", name, err)
	}
	slog.Info("deck uploaded", "tag", "catalog", "id", d.ID, "name", name, "pairs", len(pairs))

	return Entry{
		ID:          uploadPrefix + d.ID,
		Name:        name + uploadedSuffix,
		Description: d.Description,
		Uploaded:    true,
		PairCount:   len(pairs),
	}, report, nil
}

func (c *Catalog) load(ctx context.Context, id string) (deck.Deck, error) {
	if p, ok := c.preset(id); ok {
		f, err := os.Open(filepath.Join(c.deckDir, p.Path))
		if err != nil {
			return deck.Deck{}, fmt.Errorf("opening preset %s: %w", p.Name, err)
		}
		defer f.Close()
		pairs, _, err := deck.Parse(p.Path, f)
		if err != nil {
			return deck.Deck{}, err
		}
		return deck.Deck{ID: id, Name: p.Name, Description: p.Description, Pairs: pairs}, nil
	}
	if key, ok := uploadID(id); ok {
		return c.store.GetDeck(ctx, key)
	}
	return deck.Deck{}, fmt.Errorf("deck %s: %w", id, deckerrors.ErrDeckNotFound)
}

// preset looks id up in the manifest. Only manifest paths are ever opened.
func (c *Catalog) preset(id string) (deck.ManifestEntry, bool) {
	path, ok := strings.CutPrefix(id, presetPrefix)
	if !ok {
		return deck.ManifestEntry{}, false
	}
	for _, p := range c.presets {
		if p.Path == path {
			return p, true
		}
	}
	return deck.ManifestEntry{}, false
}

func uploadID(id string) (string, bool) {
	key, ok := strings.CutPrefix(id, uploadPrefix)
	if !ok {
		return "", false
	}
	if _, err := uuid.Parse(key); err != nil {
		return "", false
	}
	return key, true
}
