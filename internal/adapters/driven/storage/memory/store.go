// Package memory provides in-memory archive stores. They back the
// offline analysis mode and keep service tests off the filesystem.
package memory

import (
	"context"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driven"
)

// replyPreviewRunes matches the excerpt bound of the SQLite store.
const replyPreviewRunes = 80

// Store holds messages, members and sessions in memory behind one
// lock, mirroring the single-file SQLite archive.
type Store struct {
	mu       sync.RWMutex
	messages []domain.Message // sorted by (ts, id)
	members  map[string]domain.Member
	sessions []domain.Session
}

// NewStore creates an empty in-memory archive.
func NewStore() *Store {
	return &Store{
		members: make(map[string]domain.Member),
	}
}

// MessageStore returns a MessageStore interface backed by this store.
func (s *Store) MessageStore() driven.MessageStore {
	return &messageStore{store: s}
}

// SessionStore returns a SessionStore interface backed by this store.
func (s *Store) SessionStore() driven.SessionStore {
	return &sessionStore{store: s}
}

// inRange applies the optional time-range filter.
func inRange(r *domain.TimeRange, ts int64) bool {
	return r == nil || r.Contains(ts)
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
	s.store.mu.RLock()
	snapshot := make([]domain.Message, len(s.store.messages))
	copy(snapshot, s.store.messages)
	s.store.mu.RUnlock()

	for _, m := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !inRange(r, m.Timestamp) {
			continue
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

// FetchRange reads a bounded slice of the ordered stream at full
// fidelity.
func (s *messageStore) FetchRange(
	_ context.Context, r *domain.TimeRange, offset, limit int,
) ([]domain.MessageDetail, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	details := []domain.MessageDetail{}
	if limit <= 0 {
		return details, nil
	}
	skipped := 0
	for _, m := range s.store.messages {
		if !inRange(r, m.Timestamp) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		details = append(details, s.store.detail(m))
		if len(details) == limit {
			break
		}
	}
	return details, nil
}

// MessagesBySession reads a session's full message set in order.
func (s *messageStore) MessagesBySession(_ context.Context, sessionID int64) ([]domain.MessageDetail, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	details := []domain.MessageDetail{}
	for _, session := range s.store.sessions {
		if session.ID != sessionID {
			continue
		}
		for _, m := range s.store.messages {
			if m.Timestamp >= session.StartTs && m.Timestamp <= session.EndTs {
				details = append(details, s.store.detail(m))
			}
		}
		break
	}
	return details, nil
}

// CountMessages returns the message count within a time range.
func (s *messageStore) CountMessages(_ context.Context, r *domain.TimeRange) (int, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	count := 0
	for _, m := range s.store.messages {
		if inRange(r, m.Timestamp) {
			count++
		}
	}
	return count, nil
}

// CountMessagesBySender returns per-member message counts.
func (s *messageStore) CountMessagesBySender(_ context.Context) (map[string]int, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	counts := make(map[string]int)
	for _, m := range s.store.messages {
		counts[m.SenderID]++
	}
	return counts, nil
}

// ListMembers returns all known members ordered by id.
func (s *messageStore) ListMembers(_ context.Context) ([]domain.Member, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	members := make([]domain.Member, 0, len(s.store.members))
	for _, m := range s.store.members {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

// SaveMembers upserts members, merging alias sets. A replaced display
// name joins the alias set.
func (s *messageStore) SaveMembers(_ context.Context, members []domain.Member) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	for _, m := range members {
		existing, ok := s.store.members[m.ID]
		if !ok {
			m.Aliases = dedupeAliases(m.Aliases, m.DisplayName)
			s.store.members[m.ID] = m
			continue
		}
		merged := existing.Aliases
		if existing.DisplayName != "" && m.DisplayName != "" && existing.DisplayName != m.DisplayName {
			merged = append(merged, existing.DisplayName)
		}
		name := m.DisplayName
		if name == "" {
			name = existing.DisplayName
		}
		s.store.members[m.ID] = domain.Member{
			ID:          m.ID,
			DisplayName: name,
			Aliases:     dedupeAliases(append(merged, m.Aliases...), name),
		}
	}
	return nil
}

// AppendMessages inserts messages, replacing any stored row with the
// same id, and keeps the stream sorted.
func (s *messageStore) AppendMessages(ctx context.Context, _ string, messages []domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	byID := make(map[int64]int, len(s.store.messages))
	for i, m := range s.store.messages {
		byID[m.ID] = i
	}
	for _, m := range messages {
		if i, ok := byID[m.ID]; ok {
			s.store.messages[i] = m
			continue
		}
		byID[m.ID] = len(s.store.messages)
		s.store.messages = append(s.store.messages, m)
	}
	sort.Slice(s.store.messages, func(i, j int) bool {
		return s.store.messages[i].Before(s.store.messages[j])
	})
	return nil
}

// detail resolves display data for one message. Caller holds the lock.
func (s *Store) detail(m domain.Message) domain.MessageDetail {
	d := domain.MessageDetail{Message: m}
	if member, ok := s.members[m.SenderID]; ok {
		d.SenderName = member.DisplayName
	}
	if m.ReplyTo != 0 {
		for _, other := range s.messages {
			if other.ID == m.ReplyTo {
				d.ReplyPreview = truncatePreview(other.Content)
				break
			}
		}
	}
	return d
}

// truncatePreview bounds a reply excerpt to replyPreviewRunes runes.
func truncatePreview(content string) string {
	if utf8.RuneCountInString(content) <= replyPreviewRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:replyPreviewRunes]) + "..."
}

// dedupeAliases drops empties, duplicates and the display name,
// preserving first-seen order.
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

// ReplaceSessions atomically swaps the stored partition.
func (s *sessionStore) ReplaceSessions(_ context.Context, sessions []domain.Session) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	replaced := make([]domain.Session, len(sessions))
	copy(replaced, sessions)
	sort.Slice(replaced, func(i, j int) bool {
		if replaced[i].StartTs != replaced[j].StartTs {
			return replaced[i].StartTs < replaced[j].StartTs
		}
		return replaced[i].ID < replaced[j].ID
	})
	s.store.sessions = replaced
	return nil
}

// ClearSessions removes all sessions.
func (s *sessionStore) ClearSessions(_ context.Context) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.sessions = nil
	return nil
}

// ListSessions returns all sessions ordered by start time.
func (s *sessionStore) ListSessions(_ context.Context) ([]domain.Session, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	sessions := make([]domain.Session, len(s.store.sessions))
	copy(sessions, s.store.sessions)
	return sessions, nil
}

// SessionsByIDs returns the named sessions ordered by start time.
func (s *sessionStore) SessionsByIDs(_ context.Context, ids []int64) ([]domain.Session, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	sessions := []domain.Session{}
	for _, session := range s.store.sessions {
		if _, ok := wanted[session.ID]; ok {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

// SetSummary attaches a summary to one session.
func (s *sessionStore) SetSummary(_ context.Context, id int64, summary string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	for i := range s.store.sessions {
		if s.store.sessions[i].ID == id {
			s.store.sessions[i].Summary = summary
			return nil
		}
	}
	return domain.ErrNotFound
}
