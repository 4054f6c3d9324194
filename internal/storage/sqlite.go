package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding reminders and custom ringtones.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "nudge.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	// This also serializes access between the API handlers and the
	// scheduler goroutine.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

const reminderColumns = "id, title, description, due_at, priority, channel, ringtone, is_completed, created_at"

// --- Reminders ---

// CreateReminder persists a new reminder from the draft, assigning its
// ID and creation timestamp. Empty priority/channel fall back to the
// defaults.
func (s *Store) CreateReminder(d Draft) (Reminder, error) {
	r := Reminder{
		ID:          uuid.New().String(),
		Title:       d.Title,
		Description: d.Description,
		DueAt:       d.DueAt,
		Priority:    d.Priority,
		Channel:     d.Channel,
		Ringtone:    d.Ringtone,
		CreatedAt:   time.Now(),
	}
	if r.Priority == "" {
		r.Priority = PriorityNormal
	}
	if r.Channel == "" {
		r.Channel = ChannelAlarm
	}
	if r.Title == "" {
		return Reminder{}, fmt.Errorf("reminder title must not be empty")
	}
	if !ValidPriority(r.Priority) {
		return Reminder{}, fmt.Errorf("invalid priority %q", r.Priority)
	}
	if !ValidChannel(r.Channel) {
		return Reminder{}, fmt.Errorf("invalid channel %q", r.Channel)
	}

	_, err := s.db.Exec(`
		INSERT INTO reminders (`+reminderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, r.Description, r.DueAt.Format(time.RFC3339), r.Priority,
		r.Channel, r.Ringtone, boolToInt(r.IsCompleted), r.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Reminder{}, err
	}
	return r, nil
}

// GetReminder returns the reminder with the given id, or ErrNotFound.
func (s *Store) GetReminder(id string) (Reminder, error) {
	row := s.db.QueryRow(`SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id)
	r, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return Reminder{}, ErrNotFound
	}
	return r, err
}

// ListReminders returns all reminders ordered by due time.
func (s *Store) ListReminders() ([]Reminder, error) {
	return s.listWhere("")
}

// ListPendingReminders returns reminders not yet completed, ordered by due time.
func (s *Store) ListPendingReminders() ([]Reminder, error) {
	return s.listWhere("WHERE is_completed = 0")
}

func (s *Store) listWhere(where string) ([]Reminder, error) {
	rows, err := s.db.Query(`SELECT ` + reminderColumns + ` FROM reminders ` + where + ` ORDER BY due_at ASC, created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// UpdateReminder applies the non-nil fields of patch and returns the
// updated reminder, or ErrNotFound.
func (s *Store) UpdateReminder(id string, p Patch) (Reminder, error) {
	r, err := s.GetReminder(id)
	if err != nil {
		return Reminder{}, err
	}

	if p.Title != nil {
		if *p.Title == "" {
			return Reminder{}, fmt.Errorf("reminder title must not be empty")
		}
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.DueAt != nil {
		r.DueAt = *p.DueAt
	}
	if p.Priority != nil {
		if !ValidPriority(*p.Priority) {
			return Reminder{}, fmt.Errorf("invalid priority %q", *p.Priority)
		}
		r.Priority = *p.Priority
	}
	if p.Channel != nil {
		if !ValidChannel(*p.Channel) {
			return Reminder{}, fmt.Errorf("invalid channel %q", *p.Channel)
		}
		r.Channel = *p.Channel
	}
	if p.Ringtone != nil {
		r.Ringtone = *p.Ringtone
	}

	res, err := s.db.Exec(`
		UPDATE reminders
		SET title = ?, description = ?, due_at = ?, priority = ?, channel = ?, ringtone = ?
		WHERE id = ?`,
		r.Title, r.Description, r.DueAt.Format(time.RFC3339), r.Priority, r.Channel, r.Ringtone, id,
	)
	if err != nil {
		return Reminder{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Reminder{}, err
	}
	if n == 0 {
		return Reminder{}, ErrNotFound
	}
	return r, nil
}

// CompleteReminder marks the reminder completed and returns it, or ErrNotFound.
func (s *Store) CompleteReminder(id string) (Reminder, error) {
	res, err := s.db.Exec(`UPDATE reminders SET is_completed = 1 WHERE id = ?`, id)
	if err != nil {
		return Reminder{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Reminder{}, err
	}
	if n == 0 {
		return Reminder{}, ErrNotFound
	}
	return s.GetReminder(id)
}

// DeleteReminder removes the reminder, returning ErrNotFound if it does not exist.
func (s *Store) DeleteReminder(id string) error {
	res, err := s.db.Exec(`DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (Reminder, error) {
	var r Reminder
	var dueAt, createdAt string
	var completed int
	if err := row.Scan(&r.ID, &r.Title, &r.Description, &dueAt, &r.Priority, &r.Channel, &r.Ringtone, &completed, &createdAt); err != nil {
		return Reminder{}, err
	}
	r.IsCompleted = completed != 0

	var err error
	if r.DueAt, err = time.Parse(time.RFC3339, dueAt); err != nil {
		return Reminder{}, fmt.Errorf("parsing due_at for reminder %s: %w", r.ID, err)
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Reminder{}, fmt.Errorf("parsing created_at for reminder %s: %w", r.ID, err)
	}
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- Custom ringtones ---

// SaveCustomRingtone inserts or replaces a custom ringtone entry.
func (s *Store) SaveCustomRingtone(name, source string) error {
	if name == "" || source == "" {
		return fmt.Errorf("ringtone name and source must not be empty")
	}
	_, err := s.db.Exec(`
		INSERT INTO custom_ringtones (name, source, created_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET source = excluded.source`,
		name, source, time.Now().Format(time.RFC3339),
	)
	return err
}

// ListCustomRingtones returns custom ringtones in insertion order.
func (s *Store) ListCustomRingtones() ([]CustomRingtone, error) {
	rows, err := s.db.Query(`SELECT name, source, created_at FROM custom_ringtones ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []CustomRingtone
	for rows.Next() {
		var c CustomRingtone
		var createdAt string
		if err := rows.Scan(&c.Name, &c.Source, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at for ringtone %s: %w", c.Name, err)
		}
		c.CreatedAt = t
		results = append(results, c)
	}
	return results, rows.Err()
}

// DeleteCustomRingtone removes a custom ringtone, returning ErrNotFound if absent.
func (s *Store) DeleteCustomRingtone(name string) error {
	res, err := s.db.Exec(`DELETE FROM custom_ringtones WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
