package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"io/fs"
	"iter"
	"slices"
	"sync"

	"github.com/mwantia/cellfs/data"
	"github.com/mwantia/cellfs/mount/backend"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteHandler serves objects stored in an SQLite table. It works in two
// layers:
//
// Layer 1: In-memory keyspace of all keys and sizes, loaded on construction
// Layer 2: SQLite table (cellfs_objects) holding the content
//
// Stat, Exists and ReadDir are answered from the keyspace; only Open touches
// the database.
type SQLiteHandler struct {
	mu sync.RWMutex
	db *sql.DB

	keys *backend.Keyspace[uint64]
}

// NewSQLiteHandler opens the database at dsn, which can be ":memory:" for an
// in-memory database or a file path.
func NewSQLiteHandler(ctx context.Context, dsn string) (*SQLiteHandler, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Every connection to ":memory:" opens its own empty database
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	handler := &SQLiteHandler{
		db:   db,
		keys: backend.NewKeyspace[uint64](),
	}

	if err := handler.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := handler.loadKeys(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return handler, nil
}

func (sh *SQLiteHandler) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS cellfs_objects (
		key TEXT PRIMARY KEY,
		content BLOB NOT NULL,
		size INTEGER NOT NULL CHECK(size >= 0)
	);
	`

	_, err := sh.db.ExecContext(ctx, schema)
	return err
}

func (sh *SQLiteHandler) loadKeys(ctx context.Context) error {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rows, err := sh.db.QueryContext(ctx, "SELECT key, size FROM cellfs_objects")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var size int64
		if err := rows.Scan(&key, &size); err != nil {
			return err
		}
		sh.keys.Set(key, uint64(size))
	}

	return rows.Err()
}

// Returns the identifier name defined for this handler
func (*SQLiteHandler) Name() string {
	return "sqlite"
}

// Store writes content at key, replacing any previous content.
func (sh *SQLiteHandler) Store(ctx context.Context, key string, content []byte) error {
	key, err := backend.NormalizeKey(key)
	if err != nil {
		return err
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()

	_, err = sh.db.ExecContext(ctx, `
		INSERT INTO cellfs_objects (key, content, size) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET content = excluded.content, size = excluded.size
	`, key, content, len(content))
	if err != nil {
		return data.NewHandlerError(sh.Name(), "store", key, err)
	}

	sh.keys.Set(key, uint64(len(content)))
	return nil
}

func (sh *SQLiteHandler) Stat(ctx context.Context, path string) (*data.Stat, error) {
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	size, fileType, exists := sh.keys.Lookup(path)
	if !exists {
		return nil, data.NewHandlerError(sh.Name(), "stat", path, fs.ErrNotExist)
	}

	if fileType == data.FileTypeDirectory {
		return data.NewDirectoryStat(data.PermissionsReadWrite), nil
	}

	return data.NewFileStat(size, data.PermissionsReadWrite), nil
}

func (sh *SQLiteHandler) Exists(ctx context.Context, path string) bool {
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	_, _, exists := sh.keys.Lookup(path)
	return exists
}

func (sh *SQLiteHandler) ReadDir(ctx context.Context, path string) (iter.Seq[string], error) {
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	_, fileType, exists := sh.keys.Lookup(path)
	if !exists {
		return nil, data.NewHandlerError(sh.Name(), "readdir", path, fs.ErrNotExist)
	}
	if fileType != data.FileTypeDirectory {
		return nil, data.NewHandlerError(sh.Name(), "readdir", path, data.ErrNotDirectory)
	}

	names := slices.Collect(sh.keys.Children(path))
	return slices.Values(names), nil
}

func (sh *SQLiteHandler) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	_, fileType, exists := sh.keys.Lookup(path)
	if !exists {
		return nil, data.NewHandlerError(sh.Name(), "open", path, fs.ErrNotExist)
	}
	if fileType == data.FileTypeDirectory {
		return nil, data.NewHandlerError(sh.Name(), "open", path, data.ErrIsDirectory)
	}

	var content []byte
	err := sh.db.QueryRowContext(ctx, "SELECT content FROM cellfs_objects WHERE key = ?",
		data.ToRelativePath(path)).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, data.NewHandlerError(sh.Name(), "open", path, fs.ErrNotExist)
	}
	if err != nil {
		return nil, data.NewHandlerError(sh.Name(), "open", path, err)
	}

	return io.NopCloser(bytes.NewReader(content)), nil
}

// Close closes the database connection.
func (sh *SQLiteHandler) Close() error {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.keys.Clear()
	return sh.db.Close()
}
