package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver, registered as "pgx"
	"github.com/mattn/go-sqlite3"       // SQLite driver, registered as "sqlite3"

	"github.com/pliu/roomchat/internal/store"
)

type SQLStore struct {
	db         *sql.DB
	driverName string
}

var _ store.Store = (*SQLStore)(nil)

func New(driverName, dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if driverName == "sqlite3" && strings.Contains(dataSourceName, ":memory:") {
		// Every pooled connection would get its own empty in-memory database.
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLStore{db: db, driverName: driverName}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) createTables() error {
	// Simplified for brevity, ideally use migrations
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		fullname TEXT NOT NULL DEFAULT '',
		profile_pic TEXT NOT NULL DEFAULT '',
		password TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		room_id TEXT UNIQUE NOT NULL,
		room TEXT NOT NULL,
		first_participant TEXT NOT NULL,
		second_participant TEXT NOT NULL,
		pair_key TEXT UNIQUE NOT NULL,
		creator_id TEXT NOT NULL,
		latest_message_id TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_first ON conversations (first_participant, updated_at);
	CREATE INDEX IF NOT EXISTS idx_conversations_second ON conversations (second_participant, updated_at);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, created_at);
	`

	if s.driverName == "pgx" {
		// Adjust for Postgres syntax
		query = strings.ReplaceAll(query, "TIMESTAMP", "TIMESTAMPTZ")
	}

	_, err := s.db.Exec(query)
	return err
}

// Helper to handle placeholders
func (s *SQLStore) rebind(query string) string {
	if s.driverName == "pgx" {
		// Replace ? with $1, $2, etc.
		n := strings.Count(query, "?")
		for i := 1; i <= n; i++ {
			query = strings.Replace(query, "?", fmt.Sprintf("$%d", i), 1)
		}
	}
	return query
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// translate maps driver errors onto the store's sentinel errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
