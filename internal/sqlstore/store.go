package sqlstore

import (
	"database/sql"
	"fmt"
	"regexp"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a SQLite-backed implementation of the document-store adapter.
//
// Each collection is a lazily created table of (id TEXT PRIMARY KEY,
// doc TEXT). The id column holds the canonical encoding of the document's
// identifier, so primary-key comparison is identifier comparison - including
// the lexicographic ordering of compound history identifiers. The doc column
// holds the full document as JSON; field predicates compile to json_extract
// expressions.
//
// Uses WAL mode for concurrent read access with a single writer.
type Store struct {
	db *sql.DB

	mu     sync.Mutex
	tables map[string]bool
}

// collectionNameRe restricts collection names to identifier-safe characters.
// Collection names become table names and cannot be parameterized.
var collectionNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas automatically. Idempotent.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Store{db: db, tables: make(map[string]bool)}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer the adapter methods.
func (s *Store) DB() *sql.DB {
	return s.db
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// ensureCollection creates the collection's table if it does not exist yet
// and validates the collection name. Creation is cached per Store.
func (s *Store) ensureCollection(collection string) (string, error) {
	if !collectionNameRe.MatchString(collection) {
		return "", fmt.Errorf("invalid collection name %q", collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table := `"` + collection + `"`
	if s.tables[collection] {
		return table, nil
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		doc TEXT NOT NULL
	)`, table)
	if _, err := s.db.Exec(ddl); err != nil {
		return "", fmt.Errorf("create collection %q: %w", collection, err)
	}

	s.tables[collection] = true
	return table, nil
}
