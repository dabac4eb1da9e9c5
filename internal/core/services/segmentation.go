package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driven"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driving"
	"github.com/chatlens-labs/chatlens-cli/internal/logger"
)

// Ensure SegmentationService implements the interface.
var _ driving.SegmentationService = (*SegmentationService)(nil)

// SegmentationService partitions the archive into gap-based sessions.
type SegmentationService struct {
	messages driven.MessageStore
	sessions driven.SessionStore
	settings driving.SettingsService
	seq      *RequestSeq
}

// NewSegmentationService creates a new segmentation service.
// The settings parameter is optional (can be nil); built-in defaults
// apply then.
func NewSegmentationService(
	messages driven.MessageStore,
	sessions driven.SessionStore,
	settings driving.SettingsService,
	seq *RequestSeq,
) *SegmentationService {
	if seq == nil {
		seq = NewRequestSeq()
	}
	return &SegmentationService{
		messages: messages,
		sessions: sessions,
		settings: settings,
		seq:      seq,
	}
}

// Generate rebuilds the session partition.
//
// Messages are consumed in (timestamp, id) order; a new session starts
// at the first message and whenever the gap to the previous message
// exceeds the threshold. The previous partition is replaced in one
// atomic store operation, so a failed run leaves the old partition
// intact. A run superseded by a newer request aborts with
// domain.ErrSuperseded before writing anything.
func (s *SegmentationService) Generate(
	ctx context.Context, gapSeconds int, onProgress domain.ProgressFunc,
) (int, error) {
	logger.Section("Session Generation")
	defer logger.Timing("session generation")()

	gap := s.gapThreshold(gapSeconds)
	logger.Debug("Gap threshold: %ds", gap)

	token := s.seq.Begin()
	emitter := newProgressEmitter(onProgress)

	total, err := s.messages.CountMessages(ctx, nil)
	if err != nil {
		emitter.fail(err)
		return 0, fmt.Errorf("count messages: %w", err)
	}
	logger.Debug("Messages to scan: %d", total)

	var (
		sessions  []domain.Session
		current   *domain.Session
		lastTs    int64
		processed int
	)

	flush := func() {
		if current != nil {
			sessions = append(sessions, *current)
			current = nil
		}
	}

	err = s.messages.ScanMessages(ctx, nil, func(m domain.Message) error {
		if s.seq.Superseded(token) {
			return domain.ErrSuperseded
		}
		if current == nil || m.Timestamp-lastTs > int64(gap) {
			flush()
			current = &domain.Session{
				ID:      int64(len(sessions) + 1),
				StartTs: m.Timestamp,
			}
		}
		current.EndTs = m.Timestamp
		current.MessageCount++
		lastTs = m.Timestamp
		processed++
		emitter.step(domain.StageScanning, processed, total)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSuperseded) {
			logger.Info("Generation superseded after %d messages", processed)
			emitter.fail(domain.ErrSuperseded)
			return 0, domain.ErrSuperseded
		}
		emitter.fail(err)
		return 0, fmt.Errorf("scan messages: %w", err)
	}
	flush()

	emitter.finish(domain.StageScanning, processed, total)
	logger.Info("Built %d sessions from %d messages", len(sessions), processed)

	// Last check before the single write of the run.
	if s.seq.Superseded(token) {
		emitter.fail(domain.ErrSuperseded)
		return 0, domain.ErrSuperseded
	}

	emitter.step(domain.StageWriting, 0, len(sessions))
	if err := s.sessions.ReplaceSessions(ctx, sessions); err != nil {
		emitter.fail(err)
		return 0, fmt.Errorf("replace sessions: %w", err)
	}

	emitter.done(fmt.Sprintf("%d sessions", len(sessions)))
	return len(sessions), nil
}

// Sessions returns the stored partition ordered by start time.
// A missing archive degrades to an empty list.
func (s *SegmentationService) Sessions(ctx context.Context) ([]domain.Session, error) {
	sessions, err := s.sessions.ListSessions(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrArchiveUnavailable) {
			logger.Warn("Archive unavailable, returning no sessions")
			return []domain.Session{}, nil
		}
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Clear removes the stored partition.
func (s *SegmentationService) Clear(ctx context.Context) error {
	if err := s.sessions.ClearSessions(ctx); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	logger.Info("Cleared session partition")
	return nil
}

// Annotate attaches a summary to one session.
func (s *SegmentationService) Annotate(ctx context.Context, id int64, summary string) error {
	if id <= 0 {
		return fmt.Errorf("%w: session id must be positive", domain.ErrInvalidInput)
	}
	if err := s.sessions.SetSummary(ctx, id, summary); err != nil {
		return fmt.Errorf("set summary: %w", err)
	}
	return nil
}

// gapThreshold resolves the effective gap in seconds.
func (s *SegmentationService) gapThreshold(gapSeconds int) int {
	if gapSeconds > 0 {
		return gapSeconds
	}
	if s.settings != nil {
		if cfg, err := s.settings.Get(); err == nil && cfg.Segmentation.GapSeconds > 0 {
			return cfg.Segmentation.GapSeconds
		}
	}
	return domain.DefaultGapSeconds
}
