package notify

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/nashcompany/storefront/internal/domain"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteLog keeps the audit log across relay restarts.
type SQLiteLog struct {
	db    *sql.DB
	limit int
}

// NewSQLiteLog opens the database at dbPath and runs the embedded migrations.
func NewSQLiteLog(dbPath string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	l := &SQLiteLog{db: db, limit: MaxLogEntries}
	if err := l.runMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *SQLiteLog) runMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(l.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// Append stores entry and prunes rows beyond the retention limit.
func (l *SQLiteLog) Append(ctx context.Context, entry domain.NotificationLogEntry) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO message_log (id, created_at, phone_number, message, status) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp.UTC().Format(time.RFC3339Nano), entry.PhoneNumber, entry.Message, string(entry.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert message log entry: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM message_log WHERE seq NOT IN (SELECT seq FROM message_log ORDER BY seq DESC LIMIT ?)`,
		l.limit,
	)
	if err != nil {
		return fmt.Errorf("failed to trim message log: %w", err)
	}

	return tx.Commit()
}

func (l *SQLiteLog) List(ctx context.Context) ([]domain.NotificationLogEntry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, created_at, phone_number, message, status FROM message_log ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query message log: %w", err)
	}
	defer rows.Close()

	var entries []domain.NotificationLogEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

func (l *SQLiteLog) Get(ctx context.Context, id string) (*domain.NotificationLogEntry, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, created_at, phone_number, message, status FROM message_log WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	return entry, err
}

func (l *SQLiteLog) Stats(ctx context.Context) (domain.MessageStats, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM message_log GROUP BY status`)
	if err != nil {
		return domain.MessageStats{}, fmt.Errorf("failed to query message stats: %w", err)
	}
	defer rows.Close()

	var stats domain.MessageStats
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return domain.MessageStats{}, fmt.Errorf("failed to scan message stats: %w", err)
		}
		stats.Total += n
		switch domain.MessageStatus(status) {
		case domain.MessageStatusSent:
			stats.Sent = n
		case domain.MessageStatusPending:
			stats.Pending = n
		case domain.MessageStatusError:
			stats.Error = n
		}
	}
	return stats, rows.Err()
}

func (l *SQLiteLog) Close() error {
	return l.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*domain.NotificationLogEntry, error) {
	var (
		entry     domain.NotificationLogEntry
		createdAt string
		status    string
	)
	if err := s.Scan(&entry.ID, &createdAt, &entry.PhoneNumber, &entry.Message, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan message log entry: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", createdAt, err)
	}
	entry.Timestamp = ts
	entry.Status = domain.MessageStatus(status)
	return &entry, nil
}
