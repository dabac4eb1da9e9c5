package domain

// SpeakerCount is one entry of the ranked top-speaker list.
type SpeakerCount struct {
	// MemberID is the speaker.
	MemberID string `json:"memberId"`

	// Name is the display name at read time.
	Name string `json:"name"`

	// Count is the number of messages sent.
	Count int `json:"count"`
}

// ArchiveStats summarizes the whole archive for the stats command and
// the MCP archive_stats tool.
type ArchiveStats struct {
	// MessageCount is the total number of stored messages.
	MessageCount int `json:"messageCount"`

	// MemberCount is the number of known members.
	MemberCount int `json:"memberCount"`

	// SessionCount is the number of stored sessions, 0 before the
	// segmenter has run.
	SessionCount int `json:"sessionCount"`

	// Span bounds the stored messages, zero for an empty archive.
	Span TimeRange `json:"span"`

	// TopSpeakers ranks members by messages sent, descending.
	TopSpeakers []SpeakerCount `json:"topSpeakers"`
}
