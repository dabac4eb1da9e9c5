package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driven"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driving"
	"github.com/chatlens-labs/chatlens-cli/internal/logger"
)

// Ensure ExportService implements the interface.
var _ driving.ExportService = (*ExportService)(nil)

const (
	exportTimeLayout  = "2006-01-02 15:04:05"
	exportClockLayout = "15:04:05"
)

// ExportService streams formatted context blocks to a writer. It runs
// the same two-phase extraction as ContextService but never holds more
// than one block in memory.
type ExportService struct {
	messages driven.MessageStore
	sessions driven.SessionStore
	settings driving.SettingsService
	seq      *RequestSeq
}

// NewExportService creates a new export service.
// The settings parameter is optional (can be nil); built-in defaults
// apply then.
func NewExportService(
	messages driven.MessageStore,
	sessions driven.SessionStore,
	settings driving.SettingsService,
	seq *RequestSeq,
) *ExportService {
	if seq == nil {
		seq = NewRequestSeq()
	}
	return &ExportService{
		messages: messages,
		sessions: sessions,
		settings: settings,
		seq:      seq,
	}
}

// Export runs the context pipeline for the query and writes one
// formatted section per block to w. Returns the block count.
func (s *ExportService) Export(
	ctx context.Context, q domain.ContextQuery, w io.Writer, onProgress domain.ProgressFunc,
) (int, error) {
	logger.Section("Context Export")
	jobID := uuid.NewString()
	logger.Debug("Export job %s", jobID)

	q = applyQueryDefaults(s.settings, q)
	emitter := newProgressEmitter(onProgress)

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
		emitter.step(domain.StageScanning, streamLen, 0)
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
			emitter.fail(domain.ErrSuperseded)
			return 0, domain.ErrSuperseded
		}
		if errors.Is(err, domain.ErrArchiveUnavailable) {
			logger.Warn("Archive unavailable, exporting nothing")
			emitter.done("0 blocks")
			return 0, nil
		}
		emitter.fail(err)
		return 0, fmt.Errorf("scan messages: %w", err)
	}

	merged := mergeRanges(hitRanges(hits, q.ContextSize, streamLen))
	logger.Info("Exporting %d blocks from %d hits", len(merged), len(hits))

	written := 0
	for i, br := range merged {
		if s.seq.Superseded(token) {
			emitter.fail(domain.ErrSuperseded)
			return written, domain.ErrSuperseded
		}
		messages, err := s.messages.FetchRange(ctx, q.Range, br.start, br.end-br.start+1)
		if err != nil {
			emitter.fail(err)
			return written, fmt.Errorf("fetch block %d/%d: %w", i+1, len(merged), err)
		}
		block := buildBlock(br, messages)
		if err := writeBlock(w, block, i+1, len(merged)); err != nil {
			emitter.fail(err)
			return written, fmt.Errorf("%w: block %d/%d: %v",
				domain.ErrExportAborted, i+1, len(merged), err)
		}
		written++
		emitter.step(domain.StageWriting, written, len(merged))
	}

	emitter.done(fmt.Sprintf("%d blocks", written))
	return written, nil
}

// ExportSessions streams whole sessions instead of filter matches.
func (s *ExportService) ExportSessions(
	ctx context.Context, ids []int64, w io.Writer, onProgress domain.ProgressFunc,
) (int, error) {
	logger.Section("Session Export")
	emitter := newProgressEmitter(onProgress)

	sessions, err := s.sessions.SessionsByIDs(ctx, ids)
	if err != nil {
		if errors.Is(err, domain.ErrArchiveUnavailable) {
			logger.Warn("Archive unavailable, exporting nothing")
			emitter.done("0 blocks")
			return 0, nil
		}
		emitter.fail(err)
		return 0, fmt.Errorf("load sessions: %w", err)
	}

	written := 0
	for i, session := range sessions {
		messages, err := s.messages.MessagesBySession(ctx, session.ID)
		if err != nil {
			emitter.fail(err)
			return written, fmt.Errorf("load session %d: %w", session.ID, err)
		}
		block := domain.ContextBlock{
			StartTs:  session.StartTs,
			EndTs:    session.EndTs,
			Messages: messages,
		}
		if err := writeBlock(w, block, i+1, len(sessions)); err != nil {
			emitter.fail(err)
			return written, fmt.Errorf("%w: session %d: %v",
				domain.ErrExportAborted, session.ID, err)
		}
		written++
		emitter.step(domain.StageWriting, written, len(sessions))
	}

	emitter.done(fmt.Sprintf("%d blocks", written))
	return written, nil
}

// ExportFile exports to a file path. Output lands in a temporary file
// renamed into place only on success, so a partial file is never left
// looking complete.
func (s *ExportService) ExportFile(
	ctx context.Context, q domain.ContextQuery, path string, onProgress domain.ProgressFunc,
) (int, error) {
	return writeAtomically(path, func(w io.Writer) (int, error) {
		return s.Export(ctx, q, w, onProgress)
	})
}

// ExportSessionsFile exports whole sessions to a file path with the
// same temp-and-rename guarantee as ExportFile.
func (s *ExportService) ExportSessionsFile(
	ctx context.Context, ids []int64, path string, onProgress domain.ProgressFunc,
) (int, error) {
	return writeAtomically(path, func(w io.Writer) (int, error) {
		return s.ExportSessions(ctx, ids, w, onProgress)
	})
}

// writeAtomically streams fn's output into a temporary sibling of path
// and renames it into place only when fn and the flush both succeed.
func writeAtomically(path string, fn func(io.Writer) (int, error)) (int, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".chatlens-export-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	blocks, exportErr := fn(tmp)
	if exportErr != nil {
		tmp.Close()
		os.Remove(tmpName)
		return blocks, exportErr
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return blocks, fmt.Errorf("sync export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return blocks, fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return blocks, fmt.Errorf("finalize export: %w", err)
	}
	logger.Info("Exported %d blocks to %s", blocks, path)
	return blocks, nil
}

// writeBlock emits one formatted section: a header line followed by
// one line per message, reply previews indented beneath.
func writeBlock(w io.Writer, block domain.ContextBlock, index, total int) error {
	start := time.Unix(block.StartTs, 0).UTC().Format(exportTimeLayout)
	end := time.Unix(block.EndTs, 0).UTC().Format(exportTimeLayout)
	header := fmt.Sprintf("=== Block %d/%d | %s - %s | %d messages",
		index, total, start, end, len(block.Messages))
	if block.HitCount > 0 {
		header += fmt.Sprintf(", %d hits", block.HitCount)
	}
	if _, err := fmt.Fprintln(w, header+" ==="); err != nil {
		return err
	}

	for _, m := range block.Messages {
		clock := time.Unix(m.Timestamp, 0).UTC().Format(exportClockLayout)
		name := m.SenderName
		if name == "" {
			name = m.SenderID
		}
		if _, err := fmt.Fprintf(w, "[%s] %s: %s\n", clock, name, m.Content); err != nil {
			return err
		}
		if m.ReplyPreview != "" {
			if _, err := fmt.Fprintf(w, "    > in reply to: %s\n", m.ReplyPreview); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintln(w)
	return err
}
