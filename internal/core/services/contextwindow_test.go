package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlens-labs/chatlens-cli/internal/adapters/driven/storage/memory"
	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// ctxFailFetchStore fails the full-fidelity read while leaving the
// lightweight scan intact.
type ctxFailFetchStore struct {
	driven.MessageStore
	err error
}

func (m *ctxFailFetchStore) FetchRange(context.Context, *domain.TimeRange, int, int) ([]domain.MessageDetail, error) {
	return nil, m.err
}

// --- Test helpers ---

// contextStore seeds twelve messages with keyword hits at stream
// indices 2 and 9.
func contextStore(t *testing.T) *memory.Store {
	t.Helper()
	return seedStore(t, testMembers(),
		msg(1, "alice", 100, "zero"),
		msg(2, "bob", 200, "one"),
		msg(3, "alice", 300, "deploy failed"),
		msg(4, "carol", 400, "three"),
		msg(5, "bob", 500, "four"),
		msg(6, "alice", 600, "five"),
		msg(7, "bob", 700, "six"),
		msg(8, "carol", 800, "seven"),
		msg(9, "alice", 900, "eight"),
		msg(10, "bob", 1000, "deploy ok"),
		msg(11, "carol", 1100, "ten"),
		msg(12, "alice", 1200, "eleven"),
	)
}

// pagedStore seeds 25 two-rune messages with isolated "hit" messages at
// stream indices 2, 7, 12, 17 and 22.
func pagedStore(t *testing.T) *memory.Store {
	t.Helper()
	messages := make([]domain.Message, 0, 25)
	for i := 0; i < 25; i++ {
		content := "xx"
		if i%5 == 2 {
			content = "hit"
		}
		messages = append(messages, msg(int64(i+1), "alice", int64(10*i), content))
	}
	return seedStore(t, testMembers(), messages...)
}

func blockIDs(b domain.ContextBlock) []int64 {
	ids := make([]int64, 0, len(b.Messages))
	for _, m := range b.Messages {
		ids = append(ids, m.ID)
	}
	return ids
}

// --- Tests ---

func TestNewContextService(t *testing.T) {
	store := memory.NewStore()
	service := NewContextService(store.MessageStore(), store.SessionStore(), nil, nil)

	assert.NotNil(t, service)
	assert.NotNil(t, service.seq, "a nil sequence falls back to an owned one")
}

func TestContextService_FilterWithContext(t *testing.T) {
	store := contextStore(t)
	service := NewContextService(store.MessageStore(), store.SessionStore(), nil, nil)

	result, err := service.FilterWithContext(context.Background(),
		domain.ContextQuery{Keywords: []string{"deploy"}, ContextSize: 1},
		domain.PageRequest{},
	)

	require.NoError(t, err)
	require.Len(t, result.Blocks, 2)

	first := result.Blocks[0]
	assert.Equal(t, 1, first.StartIndex)
	assert.Equal(t, 3, first.EndIndex)
	assert.Equal(t, 1, first.HitCount)
	assert.Equal(t, []int64{2, 3, 4}, blockIDs(first))
	assert.Equal(t, int64(200), first.StartTs)
	assert.Equal(t, int64(400), first.EndTs)
	assert.Equal(t, "Bob", first.Messages[0].SenderName)

	second := result.Blocks[1]
	assert.Equal(t, 8, second.StartIndex)
	assert.Equal(t, 10, second.EndIndex)
	assert.Equal(t, []int64{9, 10, 11}, blockIDs(second))

	assert.Equal(t, domain.PageInfo{
		Page:        1,
		PageSize:    domain.DefaultPageSize,
		TotalBlocks: 2,
		TotalHits:   2,
		HasMore:     false,
	}, result.Pagination)

	// Both blocks fit on page 1, so the totals are exact.
	assert.Equal(t, domain.ContextStats{TotalMessages: 6, TotalChars: 38}, result.Stats)
}

func TestContextService_FilterWithContext_MergesAdjacentWindows(t *testing.T) {
	store := seedStore(t, testMembers(),
		msg(1, "alice", 100, "zero"),
		msg(2, "bob", 200, "one"),
		msg(3, "alice", 300, "retry now"),
		msg(4, "carol", 400, "three"),
		msg(5, "bob", 500, "four"),
		msg(6, "alice", 600, "retry done"),
		msg(7, "bob", 700, "six"),
		msg(8, "carol", 800, "seven"),
	)
	service := NewContextService(store.MessageStore(), store.SessionStore(), nil, nil)

	result, err := service.FilterWithContext(context.Background(),
		domain.ContextQuery{Keywords: []string{"retry"}, ContextSize: 1},
		domain.PageRequest{},
	)

	require.NoError(t, err)
	// Hits at indices 2 and 5 expand to [1,3] and [4,6]; adjacent
	// ranges coalesce into one block carrying both hits.
	require.Len(t, result.Blocks, 1)
	block := result.Blocks[0]
	assert.Equal(t, 1, block.StartIndex)
	assert.Equal(t, 6, block.EndIndex)
	assert.Equal(t, 2, block.HitCount)
	assert.Equal(t, []int64{2, 3, 4, 5, 6, 7}, blockIDs(block))
	assert.Equal(t, 2, result.Pagination.TotalHits)
	assert.Equal(t, 1, result.Pagination.TotalBlocks)
}

func TestContextService_FilterWithContext_ClipsAtStreamBounds(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
	}{
		{name: "hit on first message", keyword: "alpha"},
		{name: "hit on last message", keyword: "omega"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seedStore(t, testMembers(),
				msg(1, "alice", 100, "alpha"),
				msg(2, "bob", 200, "middle"),
				msg(3, "carol", 300, "omega"),
			)
			service := NewContextService(store.MessageStore(), store.SessionStore(), nil, nil)

			result, err := service.FilterWithContext(context.Background(),
				domain.ContextQuery{Keywords: []string{tt.keyword}, ContextSize: 2},
				domain.PageRequest{},
			)

			require.NoError(t, err)
			require.Len(t, result.Blocks, 1)
			assert.Equal(t, 0, result.Blocks[0].StartIndex)
			assert.Equal(t, 2, result.Blocks[0].EndIndex)
			assert.Len(t, result.Blocks[0].Messages, 3)
		})
	}
}

func TestContextService_FilterWithContext_SenderAndKeyword(t *testing.T) {
	store := seedStore(t, testMembers(),
		msg(1, "alice", 100, "deploy a"),
		msg(2, "bob", 200, "deploy b"),
		msg(3, "alice", 300, "misc"),
	)
	service := NewContextService(store.MessageStore(), store.SessionStore(), nil, nil)

	result, err := service.FilterWithContext(context.Background(),
		domain.ContextQuery{
			Keywords:    []string{"deploy"},
			Senders:     []string{"alice"},
			ContextSize: 1,
		},
		domain.PageRequest{},
	)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Pagination.TotalHits, "predicates AND across kinds")
	require.Len(t, result.Blocks, 1)
	assert.Equal(t, 0, result.Blocks[0].StartIndex)
	assert.Equal(t, 1, result.Blocks[0].HitCount)
}

func TestContextService_FilterWithContext_CaseInsensitiveTrimmedKeywords(t *testing.T) {
	store := contextStore(t)
	service := NewContextService(store.MessageStore(), store.SessionStore(), nil, nil)

	result, err := service.FilterWithContext(context.Background(),
		domain.ContextQuery{Keywords: []string{"  DePLOY  ", ""}, ContextSize: 1},
		domain.PageRequest{},
	)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Pagination.TotalHits)
}

func TestContextService_FilterWithContext_NoPredicatesHitsEverything(t *testing.T) {
	store := contextStore(t)
	service := NewContextService(store.MessageStore(), store.SessionStore(), nil, nil)

	result, err := service.FilterWithContext(context.Background(),
		domain.ContextQuery{}, domain.PageRequest{})

	require.NoError(t, err)
	assert.Equal(t, 12, result.Pagination.TotalHits)
	require.Len(t, result.Blocks, 1, "overlapping windows collapse to one block")
	assert.Equal(t, 0, result.Blocks[0].StartIndex)
	assert.Equal(t, 11, result.Blocks[0].EndIndex)
	assert.Equal(t, 12, result.Blocks[0].HitCount)
}

func TestContextService_FilterWithContext_RangeScoped(t *testing.T) {
	store := contextStore(t)
	service := NewContextService(store.MessageStore(), store.SessionStore(), nil, nil)

	result, err := service.FilterWithContext(context.Background(),
		domain.ContextQuery{
			Keywords:    []string{"deploy"},
			Range:       &domain.TimeRange{From: 850},
			ContextSize: 1,
		},
		domain.PageRequest{},
	)

	require.NoError(t, err)
	require.Len(t, result.Blocks, 1)

	// Indices are relative to the scoped stream, not the archive.
	block := result.Blocks[0]
	assert.Equal(t, 0, block.StartIndex)
	assert.Equal(t, 2, block.EndIndex)
	assert.Equal(t, []int64{9, 10, 11}, blockIDs(block))
}

func TestContextService_FilterWithContext_PaginatesCompletely(t *testing.T) {
	store := pagedStore(t)
	service := NewContextService(store.MessageStore(), store.SessionStore(), nil, nil)

	seenStarts := map[int]bool{}
	wantBlocks := []int{2, 2, 1}
	for page := 1; page <= 3; page++ {
		result, err := service.FilterWithContext(context.Background(),
			domain.ContextQuery{Keywords: []string{"hit"}, ContextSize: 1},
			domain.PageRequest{Page: page, PageSize: 2},
		)

		require.NoError(t, err)
		assert.Len(t, result.Blocks, wantBlocks[page-1], "page %d", page)
		assert.Equal(t, 5, result.Pagination.TotalBlocks)
		assert.Equal(t, 5, result.Pagination.TotalHits)
		assert.Equal(t, page < 3, result.Pagination.HasMore, "page %d", page)
		for _, b := range result.Blocks {
			assert.False(t, seenStarts[b.StartIndex], "block repeated across pages")
			seenStarts[b.StartIndex] = true
		}
	}
	assert.Len(t, seenStarts, 5, "every block appears on exactly one page")

	// Past the last page: no blocks, pagination still answers.
	result, err := service.FilterWithContext(context.Background(),
		domain.ContextQuery{Keywords: []string{"hit"}, ContextSize: 1},
		domain.PageRequest{Page: 4, PageSize: 2},
	)
	require.NoError(t, err)
	assert.Empty(t, result.Blocks)
	assert.False(t, result.Pagination.HasMore)
}

func TestContextService_FilterWithContext_StatsContract(t *testing.T) {
	store := pagedStore(t)
	service := NewContextService(store.MessageStore(), store.SessionStore(), nil, nil)

	t.Run("page one extrapolates when blocks overflow", func(t *testing.T) {
		result, err := service.FilterWithContext(context.Background(),
			domain.ContextQuery{Keywords: []string{"hit"}, ContextSize: 1},
			domain.PageRequest{Page: 1, PageSize: 2},
		)

		require.NoError(t, err)
		// Two of five blocks materialized: 6 messages, 14 chars,
		// scaled by 5/2 and rounded.
		assert.Equal(t, domain.ContextStats{
			TotalMessages: 15,
			TotalChars:    35,
			Estimated:     true,
		}, result.Stats)
	})

	t.Run("later pages report estimated zeros", func(t *testing.T) {
		result, err := service.FilterWithContext(context.Background(),
			domain.ContextQuery{Keywords: []string{"hit"}, ContextSize: 1},
			domain.PageRequest{Page: 2, PageSize: 2},
		)

		require.NoError(t, err)
		assert.Equal(t, domain.ContextStats{Estimated: true}, result.Stats)
	})
}

func TestContextService_FilterWithContext_SettingsDefaults(t *testing.T) {
	cfg := domain.DefaultAnalysisSettings()
	cfg.Context.Size = 2
	cfg.Context.PageSize = 1
	settings := &stubSettings{cfg: cfg}

	store := contextStore(t)
	service := NewContextService(store.MessageStore(), store.SessionStore(), settings, nil)

	t.Run("context size from settings", func(t *testing.T) {
		result, err := service.FilterWithContext(context.Background(),
			domain.ContextQuery{Keywords: []string{"deploy"}},
			domain.PageRequest{PageSize: 10},
		)

		require.NoError(t, err)
		require.Len(t, result.Blocks, 2)
		assert.Equal(t, 0, result.Blocks[0].StartIndex)
		assert.Equal(t, 4, result.Blocks[0].EndIndex)
	})

	t.Run("explicit size wins", func(t *testing.T) {
		result, err := service.FilterWithContext(context.Background(),
			domain.ContextQuery{Keywords: []string{"deploy"}, ContextSize: 1},
			domain.PageRequest{PageSize: 10},
		)

		require.NoError(t, err)
		require.Len(t, result.Blocks, 2)
		assert.Equal(t, 1, result.Blocks[0].StartIndex)
		assert.Equal(t, 3, result.Blocks[0].EndIndex)
	})

	t.Run("page size from settings", func(t *testing.T) {
		result, err := service.FilterWithContext(context.Background(),
			domain.ContextQuery{Keywords: []string{"deploy"}, ContextSize: 1},
			domain.PageRequest{},
		)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Pagination.PageSize)
		assert.Len(t, result.Blocks, 1)
		assert.True(t, result.Pagination.HasMore)
	})
}

func TestContextService_FilterWithContext_ArchiveUnavailable(t *testing.T) {
	service := NewContextService(unavailableMessageStore{}, unavailableSessionStore{}, nil, nil)

	result, err := service.FilterWithContext(context.Background(),
		domain.ContextQuery{Keywords: []string{"deploy"}}, domain.PageRequest{})

	require.NoError(t, err)
	assert.NotNil(t, result.Blocks)
	assert.Empty(t, result.Blocks)
	assert.Equal(t, 1, result.Pagination.Page)
	assert.Equal(t, domain.DefaultPageSize, result.Pagination.PageSize)
}

func TestContextService_FilterWithContext_FetchFailure(t *testing.T) {
	store := contextStore(t)
	failing := &ctxFailFetchStore{MessageStore: store.MessageStore(), err: errors.New("disk gone")}
	service := NewContextService(failing, store.SessionStore(), nil, nil)

	_, err := service.FilterWithContext(context.Background(),
		domain.ContextQuery{Keywords: []string{"deploy"}, ContextSize: 1},
		domain.PageRequest{},
	)

	require.Error(t, err)
	assert.ErrorContains(t, err, "fetch block")
}

func TestContextService_FilterWithContext_SupersededAborts(t *testing.T) {
	store := contextStore(t)
	seq := NewRequestSeq()
	bumping := &segBumpMessageStore{MessageStore: store.MessageStore(), seq: seq, after: 1}
	service := NewContextService(bumping, store.SessionStore(), nil, seq)

	_, err := service.FilterWithContext(context.Background(),
		domain.ContextQuery{Keywords: []string{"deploy"}}, domain.PageRequest{})

	require.ErrorIs(t, err, domain.ErrSuperseded)
}

func TestContextService_SessionsContext(t *testing.T) {
	store := contextStore(t)
	require.NoError(t, store.SessionStore().ReplaceSessions(context.Background(), []domain.Session{
		{ID: 1, StartTs: 100, EndTs: 300, MessageCount: 3},
		{ID: 2, StartTs: 1000, EndTs: 1200, MessageCount: 3},
	}))
	service := NewContextService(store.MessageStore(), store.SessionStore(), nil, nil)

	result, err := service.SessionsContext(context.Background(), []int64{2, 1, 2}, domain.PageRequest{})

	require.NoError(t, err)
	require.Len(t, result.Blocks, 2)

	// Blocks come back in session start order regardless of the
	// requested order, one verbatim block per session.
	first := result.Blocks[0]
	assert.Equal(t, int64(100), first.StartTs)
	assert.Equal(t, int64(300), first.EndTs)
	assert.Equal(t, []int64{1, 2, 3}, blockIDs(first))
	assert.Zero(t, first.HitCount)
	assert.Zero(t, first.StartIndex)
	assert.Zero(t, first.EndIndex)

	second := result.Blocks[1]
	assert.Equal(t, []int64{10, 11, 12}, blockIDs(second))

	assert.Equal(t, 2, result.Pagination.TotalBlocks)
	assert.Zero(t, result.Pagination.TotalHits)
	assert.Equal(t, domain.ContextStats{TotalMessages: 6, TotalChars: 38}, result.Stats)
}

func TestContextService_SessionsContext_UnknownIDsDropped(t *testing.T) {
	store := contextStore(t)
	require.NoError(t, store.SessionStore().ReplaceSessions(context.Background(), []domain.Session{
		{ID: 1, StartTs: 100, EndTs: 300, MessageCount: 3},
	}))
	service := NewContextService(store.MessageStore(), store.SessionStore(), nil, nil)

	result, err := service.SessionsContext(context.Background(), []int64{1, 99}, domain.PageRequest{})

	require.NoError(t, err)
	assert.Len(t, result.Blocks, 1)
	assert.Equal(t, 1, result.Pagination.TotalBlocks)
}

func TestContextService_SessionsContext_Paginated(t *testing.T) {
	store := contextStore(t)
	require.NoError(t, store.SessionStore().ReplaceSessions(context.Background(), []domain.Session{
		{ID: 1, StartTs: 100, EndTs: 300},
		{ID: 2, StartTs: 400, EndTs: 600},
		{ID: 3, StartTs: 1000, EndTs: 1200},
	}))
	service := NewContextService(store.MessageStore(), store.SessionStore(), nil, nil)

	result, err := service.SessionsContext(context.Background(), []int64{1, 2, 3},
		domain.PageRequest{Page: 2, PageSize: 1})

	require.NoError(t, err)
	require.Len(t, result.Blocks, 1)
	assert.Equal(t, int64(400), result.Blocks[0].StartTs)
	assert.True(t, result.Pagination.HasMore)
	assert.Equal(t, domain.ContextStats{Estimated: true}, result.Stats)
}

func TestContextService_SessionsContext_ArchiveUnavailable(t *testing.T) {
	service := NewContextService(unavailableMessageStore{}, unavailableSessionStore{}, nil, nil)

	result, err := service.SessionsContext(context.Background(), []int64{1}, domain.PageRequest{})

	require.NoError(t, err)
	assert.Empty(t, result.Blocks)
	assert.NotNil(t, result.Blocks)
}

func TestContextService_ResolveMembers(t *testing.T) {
	store := contextStore(t)
	service := NewContextService(store.MessageStore(), store.SessionStore(), nil, nil)

	resolved, err := service.ResolveMembers(context.Background(),
		[]string{"Alice", "bobby", "carol", "Alice", "zed"})

	require.NoError(t, err)
	// Display names, aliases and raw ids all resolve; duplicates and
	// unknown tokens drop out, order is preserved.
	assert.Equal(t, []string{"alice", "bob", "carol"}, resolved)
}

func TestContextService_ResolveMembers_ArchiveUnavailable(t *testing.T) {
	service := NewContextService(unavailableMessageStore{}, unavailableSessionStore{}, nil, nil)

	resolved, err := service.ResolveMembers(context.Background(), []string{"Alice"})

	require.NoError(t, err)
	assert.Empty(t, resolved)
	assert.NotNil(t, resolved)
}
