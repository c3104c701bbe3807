// Package catalog keeps a content-addressed record of script translations
// in SQLite, so repeated batch runs over the same archives can be audited
// and diffed.
package catalog

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound indicates no record exists for the requested hash.
var ErrNotFound = errors.New("script not found in catalog")

// Record is one stored translation result.
type Record struct {
	Hash      string // hex SHA-256 of the original script bytes
	Name      string
	RunID     string
	Size      int64
	Status    string // "ok" or the error text
	Disasm    string
	Wire      []byte // canonical CBOR form, empty on failure
	CreatedAt time.Time
}

// Catalog is a SQLite-backed store. Safe for concurrent use.
type Catalog struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates a catalog database.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS scripts (
		hash TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		run_id TEXT NOT NULL,
		size INTEGER NOT NULL,
		status TEXT NOT NULL,
		disasm TEXT NOT NULL,
		wire BLOB,
		created_at TIMESTAMP NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// NewRunID returns a fresh identifier for one batch invocation.
func NewRunID() string {
	return uuid.New().String()
}

// HashOf returns the content hash used as the catalog key.
func HashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// RecordSuccess stores a successful translation, replacing any previous
// record for the same content.
func (c *Catalog) RecordSuccess(runID, name string, data []byte, disasm string, wire []byte) error {
	return c.put(Record{
		Hash:   HashOf(data),
		Name:   name,
		RunID:  runID,
		Size:   int64(len(data)),
		Status: "ok",
		Disasm: disasm,
		Wire:   wire,
	})
}

// RecordFailure stores a failed translation under the content hash of the
// (possibly partial) extracted bytes.
func (c *Catalog) RecordFailure(runID, name string, data []byte, translateErr error) error {
	return c.put(Record{
		Hash:   HashOf(data),
		Name:   name,
		RunID:  runID,
		Size:   int64(len(data)),
		Status: translateErr.Error(),
	})
}

func (c *Catalog) put(r Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO scripts (hash, name, run_id, size, status, disasm, wire, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Hash, r.Name, r.RunID, r.Size, r.Status, r.Disasm, r.Wire, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	return nil
}

// Lookup returns the record for a content hash.
func (c *Catalog) Lookup(hash string) (*Record, error) {
	var r Record
	err := c.db.QueryRow(
		`SELECT hash, name, run_id, size, status, disasm, wire, created_at
		 FROM scripts WHERE hash = ?`, hash,
	).Scan(&r.Hash, &r.Name, &r.RunID, &r.Size, &r.Status, &r.Disasm, &r.Wire, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying record: %w", err)
	}
	return &r, nil
}

// Run returns all records written by one batch invocation, newest first.
func (c *Catalog) Run(runID string) ([]Record, error) {
	rows, err := c.db.Query(
		`SELECT hash, name, run_id, size, status, disasm, wire, created_at
		 FROM scripts WHERE run_id = ? ORDER BY created_at DESC, name`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Hash, &r.Name, &r.RunID, &r.Size, &r.Status, &r.Disasm, &r.Wire, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
