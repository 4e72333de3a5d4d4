package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mkrale/grindstone/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// DB wraps the underlying SQLite handle and hands out repositories bound
// to it. It implements domain.Database.
type DB struct {
	SqlDB *sql.DB
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Foreign keys drive the membership cascade on room deletion.
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// Set a reasonable connection pool for SQLite.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{SqlDB: db}, nil
}

// Migrate applies all unapplied schema migrations.
func (d *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, d.SqlDB)
}

// Close closes the underlying database handle.
func (d *DB) Close() error {
	return d.SqlDB.Close()
}

// Users returns a user repository bound to this database.
func (d *DB) Users() *UserRepository { return NewUserRepository(d) }

// Rooms returns a room repository bound to this database.
func (d *DB) Rooms() *RoomRepository { return NewRoomRepository(d) }

// Memberships returns a membership repository bound to this database.
func (d *DB) Memberships() *MembershipRepository { return NewMembershipRepository(d) }

// Sessions returns a session repository bound to this database.
func (d *DB) Sessions() *SessionRepository { return NewSessionRepository(d) }

// isUniqueConstraintError checks if the error is a SQLite unique constraint
// violation (modernc.org/sqlite reports these as plain strings).
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
