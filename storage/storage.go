package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"

	"vocab-match-server/deck"
	"vocab-match-server/deckerrors"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS decks (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	pair_count  INT  NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_decks_uploaded_at ON decks(uploaded_at DESC);
CREATE TABLE IF NOT EXISTS deck_pairs (
	deck_id     UUID NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
	position    INT  NOT NULL,
	pair_id     TEXT NOT NULL,
	source_text TEXT NOT NULL,
	target_text TEXT NOT NULL,
	PRIMARY KEY (deck_id, position)
);
`

// pairsPerInsert keeps each deck_pairs insert under the 65535 bind parameter limit
// of the Postgres extended protocol (five parameters per row).
const pairsPerInsert = 65535 / 5

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Store persists uploaded decks in Postgres.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore connects to Postgres through the pgx driver and ensures the deck tables exist.
// If databaseURL is empty, NewStore returns (nil, nil) and the caller falls back to memory.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, nil
	}
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	s := NewStoreFromDB(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	slog.Info("connected to Postgres", "tag", "storage")
	return s, nil
}

// NewStoreFromDB wraps an open database handle. The schema is not touched.
func NewStoreFromDB(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Migrate creates the deck tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("creating deck tables: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() {
	if s != nil && s.db != nil {
		s.db.Close()
	}
}

// SaveDeck inserts the deck row and all of its pairs in one transaction.
func (s *Store) SaveDeck(ctx context.Context, d deck.Deck) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query, args, err := psql.Insert("decks").
		Columns("id", "name", "description", "pair_count", "uploaded_at").
		Values(d.ID, d.Name, d.Description, len(d.Pairs), s.now().UTC()).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting deck %s: %w", d.ID, err)
	}

	for start := 0; start < len(d.Pairs); start += pairsPerInsert {
		end := min(start+pairsPerInsert, len(d.Pairs))
		insert := psql.Insert("deck_pairs").Columns("deck_id", "position", "pair_id", "source_text", "target_text")
		for i := start; i < end; i++ {
			p := d.Pairs[i]
			insert = insert.Values(d.ID, i, p.ID, p.Source, p.Target)
		}
		query, args, err = insert.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting pairs for deck %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("deck saved", "tag", "storage", "id", d.ID, "name", d.Name, "pairs", len(d.Pairs))
	return nil
}

// GetDeck loads a deck and its pairs ordered by position.
func (s *Store) GetDeck(ctx context.Context, id string) (deck.Deck, error) {
	query, args, err := psql.Select("id", "name", "description").
		From("decks").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return deck.Deck{}, err
	}
	var d deck.Deck
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&d.ID, &d.Name, &d.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return deck.Deck{}, fmt.Errorf("deck %s: %w", id, deckerrors.ErrDeckNotFound)
	}
	if err != nil {
		return deck.Deck{}, err
	}

	query, args, err = psql.Select("pair_id", "source_text", "target_text").
		From("deck_pairs").
		Where(squirrel.Eq{"deck_id": id}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return deck.Deck{}, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return deck.Deck{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var p deck.WordPair
		if err := rows.Scan(&p.ID, &p.Source, &p.Target); err != nil {
			return deck.Deck{}, err
		}
		d.Pairs = append(d.Pairs, p)
	}
	return d, rows.Err()
}

// ListDecks returns the most recently uploaded decks first.
func (s *Store) ListDecks(ctx context.Context, limit int) ([]DeckSummary, error) {
	q := psql.Select("id", "name", "description", "pair_count", "uploaded_at").
		From("decks").
		OrderBy("uploaded_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DeckSummary
	for rows.Next() {
		var d DeckSummary
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.PairCount, &d.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
