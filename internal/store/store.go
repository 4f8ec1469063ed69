package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"inventory-catalog/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02 15:04:05.000"

// driverName is go-sqlite3 with ulower(), a Unicode-aware LOWER used by search.
const driverName = "sqlite3_catalog"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("ulower", strings.ToLower, true)
		},
	})
}

// dsn builds the connection string for the database file at path. The path
// is escaped so '?', '#' and '%' stay part of the file name.
func dsn(path string) string {
	escaped := (&url.URL{Path: path}).EscapedPath()
	return "file:" + escaped + "?_foreign_keys=on&_busy_timeout=5000"
}

// Store owns the single connection to the local catalog database.
type Store struct {
	path   string
	mu     sync.Mutex
	db     *sqlx.DB
	now    func() time.Time
	logger *zap.Logger
}

// NewStore creates a store for the database file at path. Nothing is opened
// until Init is called.
func NewStore(path string) *Store {
	return &Store{
		path:   path,
		now:    func() time.Time { return time.Now().UTC() },
		logger: util.GetLogger(),
	}
}

// Init opens the database file (creating it if absent) and brings the schema
// up to date. Calling it again on an initialized store is a no-op.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Open(driverName, dsn(s.path))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// one connection: the catalog is a single-writer local database
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := s.migrate(ctx, db); err != nil {
		db.Close()
		return err
	}

	s.migrateLegacyImages(ctx, db)

	s.db = db
	s.logger.Info("Catalog store initialized", zap.String("path", s.path))
	return nil
}

// Close closes the database connection. The store may be re-initialized afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() (*sqlx.DB, error) {
	return s.conn()
}

func (s *Store) conn() (*sqlx.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

// timestamp returns the current store time and its stored representation.
func (s *Store) timestamp() (time.Time, string) {
	t := s.now().UTC().Truncate(time.Millisecond)
	return t, t.Format(timeLayout)
}

// withTx runs fn inside a transaction, committing only if fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}
