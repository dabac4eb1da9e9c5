package domain

// ContextQuery selects messages around keyword hits for context
// extraction. Predicates combine as AND across kinds and OR within
// keywords.
type ContextQuery struct {
	// Keywords are matched case-insensitively as substrings of message
	// content. At least one must match for a message to count as a hit
	// when any are given.
	Keywords []string

	// Senders restricts hits to messages from these member IDs.
	// Name and alias resolution happens before the query is built.
	Senders []string

	// Range scopes the scan to a time window when non-nil.
	Range *TimeRange

	// ContextSize is the number of messages kept on each side of a
	// hit. Zero means DefaultContextSize.
	ContextSize int
}

// Normalize returns a copy with zero fields replaced by defaults.
func (q ContextQuery) Normalize() ContextQuery {
	if q.ContextSize <= 0 {
		q.ContextSize = DefaultContextSize
	}
	return q
}

// PageRequest selects one page of context blocks.
type PageRequest struct {
	// Page is 1-based. Zero means page 1.
	Page int

	// PageSize is blocks per page. Zero means DefaultPageSize.
	PageSize int
}

// Normalize returns a copy with zero fields replaced by defaults.
func (p PageRequest) Normalize() PageRequest {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	return p
}

// PageInfo reports where a returned page sits in the full block list.
type PageInfo struct {
	// Page is the returned page, 1-based.
	Page int `json:"page"`

	// PageSize is the page size used.
	PageSize int `json:"pageSize"`

	// TotalBlocks is the merged-block count across all pages.
	TotalBlocks int `json:"totalBlocks"`

	// TotalHits is the matched-message count across all pages.
	TotalHits int `json:"totalHits"`

	// HasMore is true when pages follow this one.
	HasMore bool `json:"hasMore"`
}

// ContextBlock is one contiguous run of messages around one or more
// merged hits. Blocks are ephemeral; they are paginated on demand and
// never persisted.
type ContextBlock struct {
	// StartIndex and EndIndex are stream-relative bounds, inclusive.
	// Session-mode blocks report zeros; they are selected wholesale,
	// not cut out of a scan.
	StartIndex int `json:"startIndex"`
	EndIndex   int `json:"endIndex"`

	// StartTs and EndTs are the timestamps of the bound messages.
	StartTs int64 `json:"startTs"`
	EndTs   int64 `json:"endTs"`

	// HitCount is the number of matched messages inside the block.
	// Session mode selects rather than matches and reports 0.
	HitCount int `json:"hitCount"`

	// Messages are the block's messages in timestamp order, with
	// sender names and reply previews resolved.
	Messages []MessageDetail `json:"messages"`
}

// ContextStats summarizes extracted content. Exact totals require
// materializing every block, so only page 1 reports them: exact when
// all blocks fit on page 1, extrapolated from page 1's average block
// size otherwise, and zero on later pages.
type ContextStats struct {
	// TotalMessages is the message count across all blocks.
	TotalMessages int `json:"totalMessages"`

	// TotalChars is the content character count across all blocks.
	TotalChars int `json:"totalChars"`

	// Estimated is true when the totals are extrapolated.
	Estimated bool `json:"estimated"`
}

// ContextResult is one page of extracted context.
type ContextResult struct {
	// Blocks are the page's merged context blocks in order.
	Blocks []ContextBlock `json:"blocks"`

	// Stats summarizes content volume; see ContextStats.
	Stats ContextStats `json:"stats"`

	// Pagination locates this page in the full block list.
	Pagination PageInfo `json:"pagination"`
}

// EmptyContextResult returns the degraded-to-empty result for a page,
// used when the archive is missing or nothing matched.
func EmptyContextResult(page PageRequest) *ContextResult {
	page = page.Normalize()
	return &ContextResult{
		Blocks: []ContextBlock{},
		Pagination: PageInfo{
			Page:     page.Page,
			PageSize: page.PageSize,
		},
	}
}
