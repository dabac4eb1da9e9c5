package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driven"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driving"
	"github.com/chatlens-labs/chatlens-cli/internal/logger"
)

// Ensure StatsService implements the interface.
var _ driving.StatsService = (*StatsService)(nil)

// topSpeakerLimit caps the ranked speaker list.
const topSpeakerLimit = 10

// StatsService summarizes the archive.
type StatsService struct {
	messages driven.MessageStore
	sessions driven.SessionStore
}

// NewStatsService creates a new stats service.
func NewStatsService(messages driven.MessageStore, sessions driven.SessionStore) *StatsService {
	return &StatsService{messages: messages, sessions: sessions}
}

// Archive returns counts, the covered time span and top speakers.
// A missing archive degrades to zeroed stats.
func (s *StatsService) Archive(ctx context.Context) (*domain.ArchiveStats, error) {
	stats := &domain.ArchiveStats{TopSpeakers: []domain.SpeakerCount{}}

	count, err := s.messages.CountMessages(ctx, nil)
	if err != nil {
		if errors.Is(err, domain.ErrArchiveUnavailable) {
			logger.Warn("Archive unavailable, returning empty stats")
			return stats, nil
		}
		return nil, fmt.Errorf("count messages: %w", err)
	}
	stats.MessageCount = count

	members, err := s.messages.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	stats.MemberCount = len(members)
	idx := domain.NewAliasIndex(members)

	sessions, err := s.sessions.ListSessions(ctx)
	if err != nil && !errors.Is(err, domain.ErrArchiveUnavailable) {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	stats.SessionCount = len(sessions)

	if count > 0 {
		first, err := s.messages.FetchRange(ctx, nil, 0, 1)
		if err != nil {
			return nil, fmt.Errorf("read first message: %w", err)
		}
		last, err := s.messages.FetchRange(ctx, nil, count-1, 1)
		if err != nil {
			return nil, fmt.Errorf("read last message: %w", err)
		}
		if len(first) > 0 && len(last) > 0 {
			stats.Span = domain.TimeRange{From: first[0].Timestamp, To: last[0].Timestamp}
		}
	}

	counts, err := s.messages.CountMessagesBySender(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by sender: %w", err)
	}
	speakers := rankSpeakers(counts, idx)
	if len(speakers) > topSpeakerLimit {
		speakers = speakers[:topSpeakerLimit]
	}
	stats.TopSpeakers = speakers

	return stats, nil
}

// Members returns the member roster ordered by ID. A missing archive
// degrades to an empty roster.
func (s *StatsService) Members(ctx context.Context) ([]domain.Member, error) {
	members, err := s.messages.ListMembers(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrArchiveUnavailable) {
			return []domain.Member{}, nil
		}
		return nil, fmt.Errorf("list members: %w", err)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

// rankSpeakers orders senders by message count, ties broken by ID so
// the ranking is stable across runs.
func rankSpeakers(counts map[string]int, idx *domain.AliasIndex) []domain.SpeakerCount {
	speakers := make([]domain.SpeakerCount, 0, len(counts))
	for id, c := range counts {
		speakers = append(speakers, domain.SpeakerCount{
			MemberID: id,
			Name:     idx.DisplayName(id),
			Count:    c,
		})
	}
	sort.Slice(speakers, func(i, j int) bool {
		if speakers[i].Count != speakers[j].Count {
			return speakers[i].Count > speakers[j].Count
		}
		return speakers[i].MemberID < speakers[j].MemberID
	})
	return speakers
}
