package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
	_ "github.com/jackc/pgx/v5/stdlib" // postgresql driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// Store implements preference and threat storage using SQLite or PostgreSQL.
type Store struct {
	db     *sqlx.DB
	dbType DBType
	mu     RWLocker
}

// New creates a new Store with the given database URL.
// Automatically detects database type from URL:
// - postgres:// or postgresql:// -> PostgreSQL
// - everything else -> SQLite
func New(dbURL string) (*Store, error) {
	dbType := detectDBType(dbURL)

	var db *sqlx.DB
	var err error
	var locker RWLocker

	switch dbType {
	case DBTypePostgres:
		db, err = connectPostgres(dbURL)
		locker = noopLocker{}
	default:
		db, err = connectSQLite(dbURL)
		locker = &sync.RWMutex{}
	}

	if err != nil {
		return nil, err
	}

	s := &Store{db: db, dbType: dbType, mu: locker}

	if err := s.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Printf("[DEBUG] initialized %s store", s.dbTypeName())
	return s, nil
}

// detectDBType determines database type from URL.
func detectDBType(url string) DBType {
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DBTypePostgres
	}
	return DBTypeSQLite
}

// connectSQLite establishes SQLite connection with pragmas.
func connectSQLite(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil { //nolint:noctx // init-time, no context available
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	// single writer
	db.SetMaxOpenConns(1)
	return db, nil
}

// connectPostgres establishes PostgreSQL connection.
func connectPostgres(dbURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// createSchema creates prefs and threats tables if they don't exist.
func (s *Store) createSchema() error {
	var schema []string
	switch s.dbType {
	case DBTypePostgres:
		schema = []string{
			`CREATE TABLE IF NOT EXISTS prefs (
				scope TEXT NOT NULL,
				key TEXT NOT NULL,
				value TEXT NOT NULL,
				updated_at TIMESTAMP DEFAULT NOW(),
				PRIMARY KEY (scope, key)
			)`,
			`CREATE TABLE IF NOT EXISTS threats (
				id BIGSERIAL PRIMARY KEY,
				source TEXT NOT NULL DEFAULT '',
				type TEXT NOT NULL DEFAULT '',
				keyword TEXT NOT NULL DEFAULT '',
				domain TEXT NOT NULL DEFAULT '',
				date_detected TIMESTAMP DEFAULT NOW()
			)`,
		}
	default:
		schema = []string{
			`CREATE TABLE IF NOT EXISTS prefs (
				scope TEXT NOT NULL,
				key TEXT NOT NULL,
				value TEXT NOT NULL,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (scope, key)
			)`,
			`CREATE TABLE IF NOT EXISTS threats (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				source TEXT NOT NULL DEFAULT '',
				type TEXT NOT NULL DEFAULT '',
				keyword TEXT NOT NULL DEFAULT '',
				domain TEXT NOT NULL DEFAULT '',
				date_detected DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
		}
	}
	schema = append(schema, `CREATE INDEX IF NOT EXISTS idx_threats_date ON threats (date_detected)`)

	for _, q := range schema {
		if _, err := s.db.Exec(q); err != nil { //nolint:noctx // init-time, no context available
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}
	return nil
}

// dbTypeName returns human-readable database type name.
func (s *Store) dbTypeName() string {
	if s.dbType == DBTypePostgres {
		return "postgres"
	}
	return "sqlite"
}

// GetPref returns the preference value for key within scope.
// Returns ErrNotFound if it was never set.
func (s *Store) GetPref(ctx context.Context, scope, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	query := s.adoptQuery("SELECT value FROM prefs WHERE scope = ? AND key = ?")
	err := s.db.GetContext(ctx, &value, query, scope, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get pref %q for %q: %w", key, scope, err)
	}
	return value, nil
}

// SetPref creates or replaces the preference value for key within scope.
func (s *Store) SetPref(ctx context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.adoptQuery(`
		INSERT INTO prefs (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, query, scope, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set pref %q for %q: %w", key, scope, err)
	}
	return nil
}

// AddThreat inserts a threat record and returns its id.
// Zero DateDetected is replaced with the current time.
func (s *Store) AddThreat(ctx context.Context, t Threat) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.DateDetected.IsZero() {
		t.DateDetected = time.Now().UTC()
	}

	query := s.adoptQuery(`INSERT INTO threats (source, type, keyword, domain, date_detected)
		VALUES (?, ?, ?, ?, ?) RETURNING id`)
	var id int64
	if err := s.db.GetContext(ctx, &id, query, t.Source, t.Type, t.Keyword, t.Domain, t.DateDetected.UTC()); err != nil {
		return 0, fmt.Errorf("failed to add threat %q: %w", t.Domain, err)
	}
	return id, nil
}

// LatestThreats returns up to limit threats, newest first.
func (s *Store) LatestThreats(ctx context.Context, limit int) ([]Threat, error) {
	return s.SearchThreats(ctx, ThreatFilter{Limit: limit})
}

// SearchThreats returns threats matching the filter, newest first.
func (s *Store) SearchThreats(ctx context.Context, f ThreatFilter) ([]Threat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}

	var where []string
	var args []any
	if f.Keyword != "" {
		where = append(where, "(LOWER(keyword) LIKE ? OR LOWER(domain) LIKE ?)")
		kw := "%" + strings.ToLower(f.Keyword) + "%"
		args = append(args, kw, kw)
	}
	if f.Source != "" {
		where = append(where, "source = ?")
		args = append(args, f.Source)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if !f.From.IsZero() {
		where = append(where, "date_detected >= ?")
		args = append(args, dayStart(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "date_detected < ?")
		args = append(args, dayStart(f.To).AddDate(0, 0, 1))
	}

	query := "SELECT id, source, type, keyword, domain, date_detected FROM threats"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date_detected DESC, id DESC LIMIT ?"
	args = append(args, limit)

	var res []Threat
	if err := s.db.SelectContext(ctx, &res, s.adoptQuery(query), args...); err != nil {
		return nil, fmt.Errorf("failed to search threats: %w", err)
	}
	return res, nil
}

// dayStart truncates t to the start of its UTC day.
func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// adoptQuery converts SQLite query syntax to PostgreSQL:
// - placeholders: ? → $1, $2, ...
// - case: excluded. → EXCLUDED.
func (s *Store) adoptQuery(query string) string {
	if s.dbType != DBTypePostgres {
		return query
	}

	query = strings.ReplaceAll(query, "excluded.", "EXCLUDED.")

	result := make([]byte, 0, len(query)+10)
	paramNum := 1
	for i := range len(query) {
		if query[i] != '?' {
			result = append(result, query[i])
			continue
		}
		result = append(result, '$')
		result = append(result, strconv.Itoa(paramNum)...)
		paramNum++
	}
	return string(result)
}

// PrefStore is the scope-aware preference storage wrapped by ScopedPrefs.
type PrefStore interface {
	GetPref(ctx context.Context, scope, key string) (string, error)
	SetPref(ctx context.Context, scope, key, value string) error
}

// ScopedPrefs is a key-value view of one scope.
type ScopedPrefs struct {
	store PrefStore
	scope string
}

// NewScoped makes a scoped view of any PrefStore.
func NewScoped(ps PrefStore, scope string) *ScopedPrefs {
	return &ScopedPrefs{store: ps, scope: scope}
}

// Get returns the value of key in the bound scope.
func (p *ScopedPrefs) Get(ctx context.Context, key string) (string, error) {
	return p.store.GetPref(ctx, p.scope, key) //nolint:wrapcheck // pass through for errors.Is checks
}

// Set writes the value of key in the bound scope.
func (p *ScopedPrefs) Set(ctx context.Context, key, value string) error {
	return p.store.SetPref(ctx, p.scope, key, value) //nolint:wrapcheck // pass through for errors.Is checks
}
