package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driven"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driving"
	"github.com/chatlens-labs/chatlens-cli/internal/logger"
)

// Ensure InteractionService implements the interface.
var _ driving.InteractionService = (*InteractionService)(nil)

// mentionPattern captures the token after an @: one or more characters
// that are neither whitespace nor another @.
var mentionPattern = regexp.MustCompile(`@([^@\s]+)`)

// Classification thresholds for mention relations.
const (
	oneWayMinTotal = 3
	oneWayMinRatio = 0.8
	mutualMinTotal = 5
	mutualMinRatio = 0.3
)

// InteractionService scores explicit @-mention interactions.
type InteractionService struct {
	messages driven.MessageStore
	seq      *RequestSeq
}

// NewInteractionService creates a new interaction service.
func NewInteractionService(messages driven.MessageStore, seq *RequestSeq) *InteractionService {
	if seq == nil {
		seq = NewRequestSeq()
	}
	return &InteractionService{messages: messages, seq: seq}
}

// Score builds the directed mention matrix over an optional time range
// and derives ranked totals and one-way/mutual relations.
//
// Mention tokens resolve through the member alias table; tokens that
// resolve to nobody are dropped, self-mentions are dropped, and
// repeated mentions of one target within a single message count once.
// A missing archive degrades to empty stats.
func (s *InteractionService) Score(ctx context.Context, r *domain.TimeRange) (*domain.MentionStats, error) {
	logger.Section("Mention Scoring")
	defer logger.Timing("mention pass")()

	stats := &domain.MentionStats{
		Matrix:        make(map[domain.DirectedKey]int),
		SpeakerCounts: make(map[string]int),
		Out:           []domain.MentionRank{},
		In:            []domain.MentionRank{},
		OneWay:        []domain.OneWayRelation{},
		Mutual:        []domain.MutualRelation{},
	}

	members, err := s.messages.ListMembers(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrArchiveUnavailable) {
			logger.Warn("Archive unavailable, returning empty mention stats")
			return stats, nil
		}
		return nil, fmt.Errorf("list members: %w", err)
	}
	idx := domain.NewAliasIndex(members)
	logger.Debug("Alias table: %d resolvable names for %d members", idx.Len(), len(members))

	token := s.seq.Begin()
	err = s.messages.ScanMessages(ctx, r, func(m domain.Message) error {
		if s.seq.Superseded(token) {
			return domain.ErrSuperseded
		}
		stats.MessageCount++
		stats.SpeakerCounts[m.SenderID]++
		accumulateMentions(stats, idx, m.SenderID, extractTokens(m.Content))
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSuperseded) {
			return nil, domain.ErrSuperseded
		}
		if errors.Is(err, domain.ErrArchiveUnavailable) {
			logger.Warn("Archive unavailable, returning empty mention stats")
			return stats, nil
		}
		return nil, fmt.Errorf("scan messages: %w", err)
	}

	logger.Info("Scanned %d messages, %d mentions across %d directed pairs",
		stats.MessageCount, stats.TotalMentions, len(stats.Matrix))

	rankTotals(stats, idx)
	classifyPairs(stats)

	logger.Debug("Relations: %d one-way, %d mutual", len(stats.OneWay), len(stats.Mutual))
	return stats, nil
}

// rankTotals fills the ranked out/in lists.
func rankTotals(stats *domain.MentionStats, idx *domain.AliasIndex) {
	out := make(map[string]int)
	in := make(map[string]int)
	for key, count := range stats.Matrix {
		out[key.From] += count
		in[key.To] += count
	}
	stats.Out = rankMentions(out, idx, stats.TotalMentions)
	stats.In = rankMentions(in, idx, stats.TotalMentions)
}

// classifyPairs derives one-way and mutual relations, visiting each
// unordered pair exactly once. The thresholds make the two classes
// mutually exclusive.
func classifyPairs(stats *domain.MentionStats) {
	for pk, stat := range stats.Pairs() {
		total := stat.MentionTotal()

		if total >= oneWayMinTotal {
			from, to := pk.A, pk.B
			heavy := stat.MentionAB
			if stat.MentionBA > stat.MentionAB {
				from, to = pk.B, pk.A
				heavy = stat.MentionBA
			}
			ratio := float64(heavy) / float64(total)
			if ratio >= oneWayMinRatio {
				stats.OneWay = append(stats.OneWay, domain.OneWayRelation{
					From:  from,
					To:    to,
					Count: heavy,
					Total: total,
					Ratio: domain.Round2(ratio),
				})
			}
		}

		if total >= mutualMinTotal && stat.MentionAB > 0 && stat.MentionBA > 0 {
			minDir, maxDir := stat.MentionAB, stat.MentionBA
			if minDir > maxDir {
				minDir, maxDir = maxDir, minDir
			}
			balance := float64(minDir) / float64(maxDir)
			if balance >= mutualMinRatio {
				stats.Mutual = append(stats.Mutual, domain.MutualRelation{
					MemberA: pk.A,
					MemberB: pk.B,
					AToB:    stat.MentionAB,
					BToA:    stat.MentionBA,
					Balance: domain.Round2(balance),
				})
			}
		}
	}

	sort.Slice(stats.OneWay, func(i, j int) bool {
		a, b := stats.OneWay[i], stats.OneWay[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
	sort.Slice(stats.Mutual, func(i, j int) bool {
		a, b := stats.Mutual[i], stats.Mutual[j]
		at, bt := a.AToB+a.BToA, b.AToB+b.BToA
		if at != bt {
			return at > bt
		}
		if a.MemberA != b.MemberA {
			return a.MemberA < b.MemberA
		}
		return a.MemberB < b.MemberB
	})
}

// extractTokens pulls @-mention tokens out of message content.
func extractTokens(content string) []string {
	if !strings.Contains(content, "@") {
		return nil
	}
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	tokens := make([]string, 0, len(matches))
	for _, match := range matches {
		tokens = append(tokens, match[1])
	}
	return tokens
}

// accumulateMentions resolves tokens and folds them into the directed
// matrix. Unresolvable tokens and self-mentions are dropped; repeated
// mentions of one target within a single message count once.
func accumulateMentions(
	stats *domain.MentionStats, idx *domain.AliasIndex, senderID string, tokens []string,
) {
	var seen map[string]struct{}
	for _, token := range tokens {
		target, ok := idx.Resolve(token)
		if !ok || target == senderID {
			continue
		}
		if seen == nil {
			seen = make(map[string]struct{}, 2)
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		stats.Matrix[domain.DirectedKey{From: senderID, To: target}]++
		stats.TotalMentions++
	}
}

// rankMentions turns a per-member count map into a ranked list.
func rankMentions(counts map[string]int, idx *domain.AliasIndex, total int) []domain.MentionRank {
	ranks := make([]domain.MentionRank, 0, len(counts))
	for id, count := range counts {
		rank := domain.MentionRank{
			MemberID: id,
			Name:     idx.DisplayName(id),
			Count:    count,
		}
		if total > 0 {
			rank.Percentage = domain.Round2(float64(count) / float64(total))
		}
		ranks = append(ranks, rank)
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Count != ranks[j].Count {
			return ranks[i].Count > ranks[j].Count
		}
		return ranks[i].MemberID < ranks[j].MemberID
	})
	return ranks
}
