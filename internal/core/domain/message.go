package domain

// Message is a single chat message in the archive.
// Messages are immutable once imported. The total ordering key is
// (Timestamp, ID): equal timestamps are broken by ID so every scan of
// the archive observes the same sequence.
type Message struct {
	// ID is the unique, monotonically assigned message identifier.
	ID int64

	// SenderID is the stable identifier of the sending member.
	SenderID string

	// Timestamp is the send time in Unix seconds. Millisecond inputs
	// are converted exactly once, at import.
	Timestamp int64

	// Content is the message text.
	Content string

	// ReplyTo is the ID of the message this one replies to, 0 if none.
	ReplyTo int64
}

// Before reports whether m precedes other in the archive ordering.
func (m Message) Before(other Message) bool {
	if m.Timestamp != other.Timestamp {
		return m.Timestamp < other.Timestamp
	}
	return m.ID < other.ID
}

// MessageDetail is a Message enriched with display data.
// It is produced only by full-fidelity reads (the second pass of the
// context extractor, session dumps); the lightweight scan path never
// resolves names or reply links.
type MessageDetail struct {
	Message

	// SenderName is the sender's current display name.
	SenderName string

	// ReplyPreview is a short excerpt of the replied-to message,
	// empty when ReplyTo is 0 or the target is missing.
	ReplyPreview string
}

// TimeRange bounds a query to [From, To] in Unix seconds.
// A zero field leaves that side unbounded.
type TimeRange struct {
	// From is the inclusive lower bound, 0 for none.
	From int64

	// To is the inclusive upper bound, 0 for none.
	To int64
}

// Contains reports whether ts falls inside the range.
func (r TimeRange) Contains(ts int64) bool {
	if r.From != 0 && ts < r.From {
		return false
	}
	if r.To != 0 && ts > r.To {
		return false
	}
	return true
}

// IsZero reports whether the range is unbounded on both sides.
func (r TimeRange) IsZero() bool {
	return r.From == 0 && r.To == 0
}
