// Package sqlite implements the archive stores on a single SQLite
// database file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/chatlens-labs/chatlens-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driven"
)

// archiveFile is the database file name inside the data directory.
const archiveFile = "archive.db"

// replyPreviewRunes bounds the reply excerpt carried on full-fidelity
// reads.
const replyPreviewRunes = 80

// Store is a unified SQLite-based archive that provides access to the
// message and session store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates or opens the archive at the specified data
// directory. If dataDir is empty, defaults to ~/.chatlens/data.
func NewStore(dataDir string) (*Store, error) {
	dbPath, err := archivePath(dataDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL keeps scans readable while an import writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.Files); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// OpenStore opens an existing archive and reports
// domain.ErrArchiveUnavailable when none has been created yet.
// Read-only surfaces use it so they degrade instead of materializing
// an empty database.
func OpenStore(dataDir string) (*Store, error) {
	dbPath, err := archivePath(dataDir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrArchiveUnavailable, dbPath)
		}
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	return NewStore(dataDir)
}

// archivePath resolves the database file path.
func archivePath(dataDir string) (string, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".chatlens", "data")
	}
	return filepath.Join(dataDir, archiveFile), nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// MessageStore returns a MessageStore interface backed by this store.
func (s *Store) MessageStore() driven.MessageStore {
	return &messageStore{store: s}
}

// SessionStore returns a SessionStore interface backed by this store.
func (s *Store) SessionStore() driven.SessionStore {
	return &sessionStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1).
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// rangeClause builds the optional time-range WHERE fragment. The
// returned clause starts with WHERE or is empty.
func rangeClause(r *domain.TimeRange, column string) (string, []any) {
	if r == nil || r.IsZero() {
		return "", nil
	}
	var conds []string
	var args []any
	if r.From != 0 {
		conds = append(conds, column+" >= ?")
		args = append(args, r.From)
	}
	if r.To != 0 {
		conds = append(conds, column+" <= ?")
		args = append(args, r.To)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ==================== Message Store ====================

// messageStore implements driven.MessageStore.
type messageStore struct {
	store *Store
}

var _ driven.MessageStore = (*messageStore)(nil)

// ScanMessages streams lightweight projections ordered by (ts, id).
func (s *messageStore) ScanMessages(
	ctx context.Context, r *domain.TimeRange, fn func(domain.Message) error,
) error {
	where, args := rangeClause(r, "ts")
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, sender_id, ts, content, reply_to
		FROM messages`+where+`
		ORDER BY ts, id
	`, args...)
	if err != nil {
		return fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.Timestamp, &m.Content, &m.ReplyTo); err != nil {
			return fmt.Errorf("scanning message: %w", err)
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return rows.Err()
}

// FetchRange reads a bounded slice of the ordered stream at full
// fidelity.
func (s *messageStore) FetchRange(
	ctx context.Context, r *domain.TimeRange, offset, limit int,
) ([]domain.MessageDetail, error) {
	if limit <= 0 {
		return []domain.MessageDetail{}, nil
	}
	where, args := rangeClause(r, "m.ts")
	args = append(args, limit, offset)
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT m.id, m.sender_id, m.ts, m.content, m.reply_to,
		       COALESCE(mem.display_name, ''), COALESCE(re.content, '')
		FROM messages m
		LEFT JOIN members mem ON mem.id = m.sender_id
		LEFT JOIN messages re ON re.id = m.reply_to AND m.reply_to != 0`+where+`
		ORDER BY m.ts, m.id
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying message range: %w", err)
	}
	defer rows.Close()

	return scanDetails(rows)
}

// MessagesBySession reads a session's full message set in order.
func (s *messageStore) MessagesBySession(ctx context.Context, sessionID int64) ([]domain.MessageDetail, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT m.id, m.sender_id, m.ts, m.content, m.reply_to,
		       COALESCE(mem.display_name, ''), COALESCE(re.content, '')
		FROM messages m
		LEFT JOIN members mem ON mem.id = m.sender_id
		LEFT JOIN messages re ON re.id = m.reply_to AND m.reply_to != 0
		WHERE m.session_id = ?
		ORDER BY m.ts, m.id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session messages: %w", err)
	}
	defer rows.Close()

	return scanDetails(rows)
}

// CountMessages returns the message count within a time range.
func (s *messageStore) CountMessages(ctx context.Context, r *domain.TimeRange) (int, error) {
	where, args := rangeClause(r, "ts")
	var count int
	row := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages"+where, args...)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return count, nil
}

// CountMessagesBySender returns per-member message counts.
func (s *messageStore) CountMessagesBySender(ctx context.Context) (map[string]int, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT sender_id, COUNT(*) FROM messages GROUP BY sender_id
	`)
	if err != nil {
		return nil, fmt.Errorf("counting by sender: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scanning sender count: %w", err)
		}
		counts[id] = count
	}
	return counts, rows.Err()
}

// ListMembers returns all known members with their alias history.
func (s *messageStore) ListMembers(ctx context.Context) ([]domain.Member, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, display_name, aliases FROM members ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member //nolint:prealloc // size unknown from query
	for rows.Next() {
		var m domain.Member
		var aliasesJSON string
		if err := rows.Scan(&m.ID, &m.DisplayName, &aliasesJSON); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		if err := json.Unmarshal([]byte(aliasesJSON), &m.Aliases); err != nil {
			return nil, fmt.Errorf("unmarshaling aliases for %s: %w", m.ID, err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// SaveMembers upserts members. A replaced display name joins the alias
// set, so historical nicknames keep resolving.
func (s *messageStore) SaveMembers(ctx context.Context, members []domain.Member) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	for _, m := range members {
		var existingName, existingAliases string
		err := tx.QueryRowContext(ctx,
			"SELECT display_name, aliases FROM members WHERE id = ?", m.ID,
		).Scan(&existingName, &existingAliases)
		switch err {
		case nil:
			aliases := mergeAliases(existingAliases, m, existingName)
			aliasesJSON, err := json.Marshal(aliases)
			if err != nil {
				return fmt.Errorf("marshaling aliases: %w", err)
			}
			name := m.DisplayName
			if name == "" {
				name = existingName
			}
			if _, err := tx.ExecContext(ctx,
				"UPDATE members SET display_name = ?, aliases = ? WHERE id = ?",
				name, string(aliasesJSON), m.ID,
			); err != nil {
				return fmt.Errorf("updating member %s: %w", m.ID, err)
			}
		case sql.ErrNoRows:
			aliasesJSON, err := json.Marshal(dedupeAliases(m.Aliases, m.DisplayName))
			if err != nil {
				return fmt.Errorf("marshaling aliases: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO members (id, display_name, aliases) VALUES (?, ?, ?)",
				m.ID, m.DisplayName, string(aliasesJSON),
			); err != nil {
				return fmt.Errorf("inserting member %s: %w", m.ID, err)
			}
		default:
			return fmt.Errorf("reading member %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// AppendMessages bulk-inserts messages in one transaction. Re-imported
// ids overwrite the stored row and lose any stale session link.
func (s *messageStore) AppendMessages(ctx context.Context, batchID string, messages []domain.Message) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO messages (id, sender_id, ts, content, reply_to, batch_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range messages {
		if _, err := stmt.ExecContext(ctx,
			m.ID, m.SenderID, m.Timestamp, m.Content, m.ReplyTo, batchID,
		); err != nil {
			return fmt.Errorf("inserting message %d: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// scanDetails reads full-fidelity rows into message details.
func scanDetails(rows *sql.Rows) ([]domain.MessageDetail, error) {
	details := []domain.MessageDetail{}
	for rows.Next() {
		var d domain.MessageDetail
		var preview string
		if err := rows.Scan(&d.ID, &d.SenderID, &d.Timestamp, &d.Content, &d.ReplyTo,
			&d.SenderName, &preview); err != nil {
			return nil, fmt.Errorf("scanning message detail: %w", err)
		}
		d.ReplyPreview = truncatePreview(preview)
		details = append(details, d)
	}
	return details, rows.Err()
}

// truncatePreview bounds a reply excerpt to replyPreviewRunes runes.
func truncatePreview(content string) string {
	if utf8.RuneCountInString(content) <= replyPreviewRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:replyPreviewRunes]) + "..."
}

// mergeAliases unions stored aliases with the incoming set. A display
// name being replaced is preserved as an alias.
func mergeAliases(existingJSON string, m domain.Member, existingName string) []string {
	var existing []string
	_ = json.Unmarshal([]byte(existingJSON), &existing)

	if existingName != "" && m.DisplayName != "" && existingName != m.DisplayName {
		existing = append(existing, existingName)
	}
	return dedupeAliases(append(existing, m.Aliases...), m.DisplayName)
}

// dedupeAliases drops empties, duplicates and the current display name
// (which resolves on its own), preserving first-seen order.
func dedupeAliases(aliases []string, displayName string) []string {
	out := make([]string, 0, len(aliases))
	seen := make(map[string]struct{}, len(aliases))
	for _, a := range aliases {
		if a == "" || a == displayName {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// ==================== Session Store ====================

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// ReplaceSessions atomically swaps the stored partition: prior
// sessions and message links are cleared and the new partition written
// inside one transaction.
func (s *sessionStore) ReplaceSessions(ctx context.Context, sessions []domain.Session) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions"); err != nil {
		return fmt.Errorf("clearing sessions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE messages SET session_id = NULL"); err != nil {
		return fmt.Errorf("clearing session links: %w", err)
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO sessions (id, start_ts, end_ts, message_count, summary)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing session insert: %w", err)
	}
	defer insert.Close()

	link, err := tx.PrepareContext(ctx, `
		UPDATE messages SET session_id = ? WHERE ts >= ? AND ts <= ?
	`)
	if err != nil {
		return fmt.Errorf("preparing link update: %w", err)
	}
	defer link.Close()

	for _, session := range sessions {
		if _, err := insert.ExecContext(ctx,
			session.ID, session.StartTs, session.EndTs, session.MessageCount, session.Summary,
		); err != nil {
			return fmt.Errorf("inserting session %d: %w", session.ID, err)
		}
		if _, err := link.ExecContext(ctx,
			session.ID, session.StartTs, session.EndTs,
		); err != nil {
			return fmt.Errorf("linking session %d: %w", session.ID, err)
		}
	}

	return tx.Commit()
}

// ClearSessions removes all sessions and message links.
func (s *sessionStore) ClearSessions(ctx context.Context) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions"); err != nil {
		return fmt.Errorf("clearing sessions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE messages SET session_id = NULL"); err != nil {
		return fmt.Errorf("clearing session links: %w", err)
	}

	return tx.Commit()
}

// ListSessions returns all sessions ordered by start time.
func (s *sessionStore) ListSessions(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, start_ts, end_ts, message_count, summary
		FROM sessions ORDER BY start_ts, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// SessionsByIDs returns the named sessions ordered by start time.
func (s *sessionStore) SessionsByIDs(ctx context.Context, ids []int64) ([]domain.Session, error) {
	if len(ids) == 0 {
		return []domain.Session{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, start_ts, end_ts, message_count, summary
		FROM sessions WHERE id IN (`+placeholders+`)
		ORDER BY start_ts, id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions by id: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// SetSummary attaches a summary to one session.
func (s *sessionStore) SetSummary(ctx context.Context, id int64, summary string) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE sessions SET summary = ? WHERE id = ?", summary, id,
	)
	if err != nil {
		return fmt.Errorf("updating summary: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scanSessions reads session rows.
func scanSessions(rows *sql.Rows) ([]domain.Session, error) {
	sessions := []domain.Session{}
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.StartTs, &s.EndTs, &s.MessageCount, &s.Summary); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
