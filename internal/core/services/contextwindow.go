package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driven"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driving"
	"github.com/chatlens-labs/chatlens-cli/internal/logger"
)

// Ensure ContextService implements the interface.
var _ driving.ContextService = (*ContextService)(nil)

// blockRange is a merged stream-index range and the hit indices it
// subsumes. Exists only between the two extraction phases.
type blockRange struct {
	start int
	end   int // inclusive
	hits  []int
}

// ContextService extracts paginated context blocks around matches.
//
// Extraction is two-phase: a lightweight ordered scan records the
// stream index of every hit, then only the requested page's merged
// ranges are re-read at full fidelity. Memory stays bounded by the
// page, not by the match count.
type ContextService struct {
	messages driven.MessageStore
	sessions driven.SessionStore
	settings driving.SettingsService
	seq      *RequestSeq
}

// NewContextService creates a new context extraction service.
// The settings parameter is optional (can be nil); built-in defaults
// apply then.
func NewContextService(
	messages driven.MessageStore,
	sessions driven.SessionStore,
	settings driving.SettingsService,
	seq *RequestSeq,
) *ContextService {
	if seq == nil {
		seq = NewRequestSeq()
	}
	return &ContextService{
		messages: messages,
		sessions: sessions,
		settings: settings,
		seq:      seq,
	}
}

// FilterWithContext finds messages matching the query, expands each
// hit by the context size on both sides, merges overlapping or
// adjacent windows into blocks and returns one page of them.
// A missing archive degrades to an empty result.
func (s *ContextService) FilterWithContext(
	ctx context.Context, q domain.ContextQuery, page domain.PageRequest,
) (*domain.ContextResult, error) {
	logger.Section("Context Filter")
	defer logger.Timing("context filter")()
	q = s.applyDefaults(q)
	page = s.applyPageDefaults(page)

	keywords := make([]string, 0, len(q.Keywords))
	for _, kw := range q.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, strings.ToLower(kw))
		}
	}
	senderSet := make(map[string]struct{}, len(q.Senders))
	for _, id := range q.Senders {
		senderSet[id] = struct{}{}
	}
	logger.Debug("Predicates: %d keywords, %d senders, range=%+v",
		len(keywords), len(senderSet), q.Range)

	// Phase 1: lightweight scan recording hit stream-indices.
	var (
		hits      []int
		streamLen int
	)
	token := s.seq.Begin()
	err := s.messages.ScanMessages(ctx, q.Range, func(m domain.Message) error {
		if s.seq.Superseded(token) {
			return domain.ErrSuperseded
		}
		i := streamLen
		streamLen++
		if len(senderSet) > 0 {
			if _, ok := senderSet[m.SenderID]; !ok {
				return nil
			}
		}
		if len(keywords) > 0 && !matchesAny(m.Content, keywords) {
			return nil
		}
		hits = append(hits, i)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSuperseded) {
			return nil, domain.ErrSuperseded
		}
		if errors.Is(err, domain.ErrArchiveUnavailable) {
			logger.Warn("Archive unavailable, returning empty context result")
			return domain.EmptyContextResult(page), nil
		}
		return nil, fmt.Errorf("scan messages: %w", err)
	}
	logger.Info("Phase 1: %d hits across %d messages", len(hits), streamLen)

	// Phase 2 input: clipped, merged ranges.
	ranges := hitRanges(hits, q.ContextSize, streamLen)
	merged := mergeRanges(ranges)
	logger.Debug("Phase 2: %d ranges merged to %d blocks", len(ranges), len(merged))

	result := &domain.ContextResult{
		Blocks: []domain.ContextBlock{},
		Pagination: domain.PageInfo{
			Page:        page.Page,
			PageSize:    page.PageSize,
			TotalBlocks: len(merged),
			TotalHits:   len(hits),
			HasMore:     page.Page*page.PageSize < len(merged),
		},
	}

	pageRanges := paginateRanges(merged, page)
	for _, br := range pageRanges {
		if s.seq.Superseded(token) {
			return nil, domain.ErrSuperseded
		}
		messages, err := s.messages.FetchRange(ctx, q.Range, br.start, br.end-br.start+1)
		if err != nil {
			return nil, fmt.Errorf("fetch block [%d,%d]: %w", br.start, br.end, err)
		}
		result.Blocks = append(result.Blocks, buildBlock(br, messages))
	}

	result.Stats = blockStats(result.Blocks, len(merged), page)
	return result, nil
}

// SessionsContext returns each requested session as one verbatim
// block, ordered by session start, paginated like filter results.
func (s *ContextService) SessionsContext(
	ctx context.Context, ids []int64, page domain.PageRequest,
) (*domain.ContextResult, error) {
	logger.Section("Session Context")
	page = s.applyPageDefaults(page)

	sessions, err := s.sessions.SessionsByIDs(ctx, ids)
	if err != nil {
		if errors.Is(err, domain.ErrArchiveUnavailable) {
			logger.Warn("Archive unavailable, returning empty context result")
			return domain.EmptyContextResult(page), nil
		}
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	logger.Debug("Resolved %d of %d requested sessions", len(sessions), len(ids))

	result := &domain.ContextResult{
		Blocks: []domain.ContextBlock{},
		Pagination: domain.PageInfo{
			Page:        page.Page,
			PageSize:    page.PageSize,
			TotalBlocks: len(sessions),
			HasMore:     page.Page*page.PageSize < len(sessions),
		},
	}

	start := (page.Page - 1) * page.PageSize
	if start < len(sessions) {
		end := start + page.PageSize
		if end > len(sessions) {
			end = len(sessions)
		}
		for _, session := range sessions[start:end] {
			messages, err := s.messages.MessagesBySession(ctx, session.ID)
			if err != nil {
				return nil, fmt.Errorf("load session %d: %w", session.ID, err)
			}
			result.Blocks = append(result.Blocks, domain.ContextBlock{
				StartTs:  session.StartTs,
				EndTs:    session.EndTs,
				Messages: messages,
			})
		}
	}

	result.Stats = blockStats(result.Blocks, len(sessions), page)
	return result, nil
}

// ResolveMembers maps display names, aliases or raw ids to member ids.
// Unknown tokens are dropped, preserving input order.
func (s *ContextService) ResolveMembers(ctx context.Context, tokens []string) ([]string, error) {
	members, err := s.messages.ListMembers(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrArchiveUnavailable) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list members: %w", err)
	}
	idx := domain.NewAliasIndex(members)
	known := make(map[string]struct{}, len(members))
	for _, m := range members {
		known[m.ID] = struct{}{}
	}

	resolved := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		id, ok := idx.Resolve(tok)
		if !ok {
			if _, isID := known[tok]; !isID {
				logger.Debug("Dropping unresolvable member token %q", tok)
				continue
			}
			id = tok
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		resolved = append(resolved, id)
	}
	return resolved, nil
}

// applyDefaults resolves the context size from settings.
func (s *ContextService) applyDefaults(q domain.ContextQuery) domain.ContextQuery {
	return applyQueryDefaults(s.settings, q)
}

// applyPageDefaults resolves the page size from settings.
func (s *ContextService) applyPageDefaults(page domain.PageRequest) domain.PageRequest {
	return applyPageDefaults(s.settings, page)
}

// applyQueryDefaults resolves the context size from settings, falling
// back to the built-in default.
func applyQueryDefaults(settings driving.SettingsService, q domain.ContextQuery) domain.ContextQuery {
	if q.ContextSize <= 0 && settings != nil {
		if cfg, err := settings.Get(); err == nil {
			q.ContextSize = cfg.Context.Size
		}
	}
	return q.Normalize()
}

// applyPageDefaults resolves the page size from settings, falling back
// to the built-in default.
func applyPageDefaults(settings driving.SettingsService, page domain.PageRequest) domain.PageRequest {
	if page.PageSize <= 0 && settings != nil {
		if cfg, err := settings.Get(); err == nil {
			page.PageSize = cfg.Context.PageSize
		}
	}
	return page.Normalize()
}

// matchesAny reports whether content contains one of the lowercased
// keywords, case-insensitively.
func matchesAny(content string, keywords []string) bool {
	lower := strings.ToLower(content)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// hitRanges expands each hit index to [i-size, i+size] clipped to the
// stream bounds.
func hitRanges(hits []int, size, streamLen int) []blockRange {
	ranges := make([]blockRange, 0, len(hits))
	for _, i := range hits {
		start := i - size
		if start < 0 {
			start = 0
		}
		end := i + size
		if end > streamLen-1 {
			end = streamLen - 1
		}
		ranges = append(ranges, blockRange{start: start, end: end, hits: []int{i}})
	}
	return ranges
}

// mergeRanges coalesces overlapping or adjacent ranges, keeping the
// union of their hit indices. Merging an already-merged list returns
// it unchanged.
func mergeRanges(ranges []blockRange) []blockRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]blockRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].start != sorted[j].start {
			return sorted[i].start < sorted[j].start
		}
		return sorted[i].end < sorted[j].end
	})

	merged := make([]blockRange, 0, len(sorted))
	for _, r := range sorted {
		if len(merged) == 0 {
			merged = append(merged, blockRange{
				start: r.start,
				end:   r.end,
				hits:  append([]int(nil), r.hits...),
			})
			continue
		}
		last := &merged[len(merged)-1]
		if r.start <= last.end+1 {
			if r.end > last.end {
				last.end = r.end
			}
			last.hits = append(last.hits, r.hits...)
			continue
		}
		merged = append(merged, blockRange{
			start: r.start,
			end:   r.end,
			hits:  append([]int(nil), r.hits...),
		})
	}
	return merged
}

// paginateRanges slices the merged ranges to the requested page.
func paginateRanges(merged []blockRange, page domain.PageRequest) []blockRange {
	start := (page.Page - 1) * page.PageSize
	if start >= len(merged) {
		return nil
	}
	end := start + page.PageSize
	if end > len(merged) {
		end = len(merged)
	}
	return merged[start:end]
}

// buildBlock assembles one context block from its fetched messages.
func buildBlock(br blockRange, messages []domain.MessageDetail) domain.ContextBlock {
	block := domain.ContextBlock{
		StartIndex: br.start,
		EndIndex:   br.end,
		HitCount:   len(br.hits),
		Messages:   messages,
	}
	if len(messages) > 0 {
		block.StartTs = messages[0].Timestamp
		block.EndTs = messages[len(messages)-1].Timestamp
	}
	return block
}

// blockStats fills the statistics contract: exact totals only when
// every block sits on page 1, an extrapolation when page 1 overflows,
// zeros from page 2 on.
func blockStats(blocks []domain.ContextBlock, totalBlocks int, page domain.PageRequest) domain.ContextStats {
	if page.Page > 1 {
		return domain.ContextStats{Estimated: true}
	}

	var messages, chars int
	for _, b := range blocks {
		messages += len(b.Messages)
		for _, m := range b.Messages {
			chars += utf8.RuneCountInString(m.Content)
		}
	}

	if totalBlocks <= page.PageSize {
		return domain.ContextStats{TotalMessages: messages, TotalChars: chars}
	}
	if len(blocks) == 0 {
		return domain.ContextStats{Estimated: true}
	}

	scale := float64(totalBlocks) / float64(len(blocks))
	return domain.ContextStats{
		TotalMessages: int(float64(messages)*scale + 0.5),
		TotalChars:    int(float64(chars)*scale + 0.5),
		Estimated:     true,
	}
}
