package services

import "sync/atomic"

// RequestSeq is an atomic generation counter used to supersede
// in-flight computations. Begin claims a generation; a later Begin or
// Bump makes every earlier generation stale. Long loops poll
// Superseded at iteration boundaries and abort instead of finishing
// work nobody will read.
type RequestSeq struct {
	seq atomic.Uint64
}

// NewRequestSeq creates a sequence starting at generation zero.
func NewRequestSeq() *RequestSeq {
	return &RequestSeq{}
}

// Begin claims a new generation and returns its token.
func (r *RequestSeq) Begin() uint64 {
	return r.seq.Add(1)
}

// Bump invalidates all outstanding generations without claiming one.
// The archive watcher calls this when another process writes the
// archive file.
func (r *RequestSeq) Bump() {
	r.seq.Add(1)
}

// Superseded reports whether a newer generation exists.
func (r *RequestSeq) Superseded(token uint64) bool {
	return r.seq.Load() != token
}
