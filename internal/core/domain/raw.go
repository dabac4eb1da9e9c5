package domain

// RawMessage is one message of the chat-interchange document before
// normalisation. It is the decoder's output, not an engine input;
// import converts it to Message exactly once.
type RawMessage struct {
	// ID is the source id, 0 when the document carries none.
	ID int64

	// Timestamp is seconds or milliseconds since epoch; detection and
	// conversion happen at import, never later.
	Timestamp int64

	// Author is the sender's id or name as the document spells it.
	Author string

	// Content is the message text.
	Content string

	// ReplyTo is the source id of the replied-to message, 0 for none.
	ReplyTo int64

	// Mentions are pre-extracted target tokens. When empty, mentions
	// are extracted from Content instead.
	Mentions []string
}

// RawMember is one member record of the interchange document.
type RawMember struct {
	// ID is the stable member id.
	ID string

	// DisplayName is the current name.
	DisplayName string

	// Aliases are historical nicknames.
	Aliases []string
}

// RawArchive is a fully decoded interchange document.
type RawArchive struct {
	// Messages in document order, not necessarily sorted.
	Messages []RawMessage

	// Members may be empty; authors are then promoted to members.
	Members []RawMember
}

// msThreshold separates second- from millisecond-based timestamps.
// Seconds past 1e12 would mean the year 33658.
const msThreshold = 1_000_000_000_000

// NormalizeTimestamp converts a millisecond timestamp to seconds and
// leaves a second-based one untouched.
func NormalizeTimestamp(ts int64) int64 {
	if ts >= msThreshold {
		return ts / 1000
	}
	return ts
}
