package domain

// Session is a maximal run of consecutive messages where no
// inter-message gap exceeds the segmentation threshold.
// Sessions are regenerated wholesale: a new segmentation run replaces
// the entire previous partition atomically. Attaching a summary is the
// only mutation an existing session supports.
type Session struct {
	// ID is the session identifier, assigned in stream order starting at 1.
	ID int64

	// StartTs is the timestamp of the session's first message.
	StartTs int64

	// EndTs is the timestamp of the session's last message.
	EndTs int64

	// MessageCount is the number of messages in the run.
	MessageCount int

	// Summary is an optional caller-attached annotation.
	Summary string
}

// Duration returns the session length in seconds.
func (s Session) Duration() int64 {
	return s.EndTs - s.StartTs
}
