package services

import (
	"context"
	"sort"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driving"
	"github.com/chatlens-labs/chatlens-cli/internal/logger"
)

// Ensure RawInteractionService implements the interface.
var _ driving.InteractionService = (*RawInteractionService)(nil)

// RawInteractionService scores mentions over a decoded interchange
// document instead of the archive. It backs the offline graph mode,
// where a document may carry pre-extracted mention tokens.
type RawInteractionService struct {
	idx      *domain.AliasIndex
	messages []domain.Message
	mentions map[int64][]string // message id -> pre-extracted tokens
}

// NewRawInteractionService builds a scorer over a decoded document.
// The document passes through the same member promotion and timestamp
// conversion as a real import, so offline scores match what an import
// followed by in-store scoring would produce.
func NewRawInteractionService(raw *domain.RawArchive) *RawInteractionService {
	members, authorID := buildMemberTable(raw)
	messages, _ := convertMessages(raw.Messages, authorID)

	// convertMessages preserves document order, so index i of the
	// converted slice is index i of the raw one.
	mentions := make(map[int64][]string)
	for i, rm := range raw.Messages {
		if len(rm.Mentions) > 0 {
			mentions[messages[i].ID] = rm.Mentions
		}
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].Before(messages[j]) })

	return &RawInteractionService{
		idx:      domain.NewAliasIndex(members),
		messages: messages,
		mentions: mentions,
	}
}

// Score builds the directed mention matrix from the document.
// Pre-extracted tokens are used as-is when present; otherwise tokens
// are extracted from content. Resolution, self-drop and per-message
// dedupe follow the in-store scorer.
func (s *RawInteractionService) Score(ctx context.Context, r *domain.TimeRange) (*domain.MentionStats, error) {
	logger.Section("Mention Scoring (offline)")

	stats := &domain.MentionStats{
		Matrix:        make(map[domain.DirectedKey]int),
		SpeakerCounts: make(map[string]int),
		Out:           []domain.MentionRank{},
		In:            []domain.MentionRank{},
		OneWay:        []domain.OneWayRelation{},
		Mutual:        []domain.MutualRelation{},
	}

	for _, m := range s.messages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r != nil && !r.Contains(m.Timestamp) {
			continue
		}
		stats.MessageCount++
		stats.SpeakerCounts[m.SenderID]++

		tokens := s.mentions[m.ID]
		if len(tokens) == 0 {
			tokens = extractTokens(m.Content)
		}
		accumulateMentions(stats, s.idx, m.SenderID, tokens)
	}

	logger.Info("Scored %d document messages, %d mentions across %d directed pairs",
		stats.MessageCount, stats.TotalMentions, len(stats.Matrix))

	rankTotals(stats, s.idx)
	classifyPairs(stats)
	return stats, nil
}
