package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zionnet/newsflow/internal/domain"
)

// Store is the durable per-category content cache, backed by an embedded
// SQLite file so cached entries survive process restarts.
//
// Writes go through a single-connection handle; each Put is one upsert
// statement, so a reader always observes either the previous row or the new
// one, never a partial write. There is no cross-category transaction; one
// category row is the unit of consistency.
type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

// Open creates the backing file (and parent directory) if needed and
// initialises the schema. The store must be constructed once at startup and
// closed on shutdown; there is no lazy global instance.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache for writing: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", path)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening cache for reading: %w", err)
	}

	s := &Store{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS news_cache (
			category   TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			fetched_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing cache schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// Get returns the cached entry for a category, or domain.ErrNotFound when no
// entry exists. A row whose payload no longer decodes is reported as an
// error; callers treat that the same as a miss.
func (s *Store) Get(ctx context.Context, category domain.Category) (*domain.CacheEntry, error) {
	var (
		payload   string
		fetchedAt time.Time
	)
	err := s.readDB.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM news_cache WHERE category = ?`,
		string(category),
	).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache for %q: %w", category, err)
	}

	var record domain.ContentRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("decoding cached payload for %q: %w", category, err)
	}

	return &domain.CacheEntry{
		Category:  category,
		Record:    record,
		FetchedAt: fetchedAt,
	}, nil
}

// Put stores or supersedes the entry for the record's category, stamping it
// with the current time.
func (s *Store) Put(ctx context.Context, record *domain.ContentRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding payload for %q: %w", record.Category, err)
	}

	_, err = s.writeDB.ExecContext(ctx, `
		INSERT INTO news_cache (category, payload, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(category) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`, string(record.Category), string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing cache for %q: %w", record.Category, err)
	}
	return nil
}
