// Package content acquires full-text content for papers from a cache
// and an ordered list of network sources.
package content

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store is the durable key-value store consulted before any network
// source. Keys are resolved paper identifiers. A Put for an existing key
// overwrites the previous value.
type Store interface {
	Get(paperID string) (string, bool)
	Put(paperID, content string) error
}

// Cache is a SQLite-backed content store. Entries are never evicted or
// expired; a failed Put is an optimization miss, not an error the
// caller needs to handle.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the content cache at the given path,
// creating parent directories as needed.
func OpenCache(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE IF NOT EXISTS paper_content (
			paper_id TEXT PRIMARY KEY,
			body TEXT NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached content for a paper id, if present.
func (c *Cache) Get(paperID string) (string, bool) {
	var body string
	err := c.db.QueryRow("SELECT body FROM paper_content WHERE paper_id = ?", paperID).Scan(&body)
	if err != nil {
		return "", false
	}
	return body, true
}

// Put stores content for a paper id, replacing any previous entry.
func (c *Cache) Put(paperID, content string) error {
	_, err := c.db.Exec(`
		INSERT INTO paper_content (paper_id, body) VALUES (?, ?)
		ON CONFLICT(paper_id) DO UPDATE SET body = excluded.body
	`, paperID, content)
	if err != nil {
		return fmt.Errorf("caching content for %s: %w", paperID, err)
	}
	return nil
}
