package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driven"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driving"
	"github.com/chatlens-labs/chatlens-cli/internal/logger"
)

// Ensure ImportService implements the interface.
var _ driving.ImportService = (*ImportService)(nil)

// ImportService loads interchange documents into the archive.
type ImportService struct {
	messages driven.MessageStore
	decoder  driven.ArchiveDecoder
	seq      *RequestSeq
}

// NewImportService creates a new import service.
func NewImportService(messages driven.MessageStore, decoder driven.ArchiveDecoder, seq *RequestSeq) *ImportService {
	if seq == nil {
		seq = NewRequestSeq()
	}
	return &ImportService{messages: messages, decoder: decoder, seq: seq}
}

// ImportFile decodes an interchange document and appends its contents
// to the archive in one batch.
//
// Timestamps are converted from milliseconds to seconds here and never
// again; messages without ids get sequential ones past the highest id
// in the document. Authors without a member record are promoted to
// members so mention resolution and display names keep working.
// A successful import supersedes in-flight analytics.
func (s *ImportService) ImportFile(
	ctx context.Context, path string, onProgress domain.ProgressFunc,
) (*driving.ImportResult, error) {
	logger.Section("Archive Import")
	emitter := newProgressEmitter(onProgress)
	emitter.step(domain.StageScanning, 0, 0)

	raw, err := s.decoder.DecodeFile(path)
	if err != nil {
		emitter.fail(err)
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	logger.Debug("Decoded %d messages, %d members", len(raw.Messages), len(raw.Members))
	emitter.finish(domain.StageScanning, len(raw.Messages), len(raw.Messages))

	return s.importArchive(ctx, raw, emitter)
}

// ImportArchive appends an already-decoded document to the archive.
// The offline graph mode uses it to load a document into a throwaway
// store through the same conversion path as a file import.
func (s *ImportService) ImportArchive(
	ctx context.Context, raw *domain.RawArchive, onProgress domain.ProgressFunc,
) (*driving.ImportResult, error) {
	return s.importArchive(ctx, raw, newProgressEmitter(onProgress))
}

func (s *ImportService) importArchive(
	ctx context.Context, raw *domain.RawArchive, emitter *progressEmitter,
) (*driving.ImportResult, error) {
	members, authorID := buildMemberTable(raw)
	messages, converted := convertMessages(raw.Messages, authorID)

	result := &driving.ImportResult{
		BatchID:   uuid.NewString(),
		Messages:  len(messages),
		Members:   len(members),
		Converted: converted,
	}

	emitter.step(domain.StageWriting, 0, 2)
	if err := s.messages.SaveMembers(ctx, members); err != nil {
		emitter.fail(err)
		return nil, fmt.Errorf("save members: %w", err)
	}
	emitter.step(domain.StageWriting, 1, 2)
	if err := s.messages.AppendMessages(ctx, result.BatchID, messages); err != nil {
		emitter.fail(err)
		return nil, fmt.Errorf("append messages: %w", err)
	}

	// The archive changed under every in-flight computation.
	s.seq.Bump()

	emitter.done(fmt.Sprintf("batch %s: %d messages", result.BatchID, result.Messages))
	logger.Info("Imported batch %s: %d messages, %d members, %d timestamps converted",
		result.BatchID, result.Messages, result.Members, result.Converted)
	return result, nil
}

// buildMemberTable merges declared members with promoted authors and
// returns the author resolution map (document spelling to member id).
func buildMemberTable(raw *domain.RawArchive) ([]domain.Member, map[string]string) {
	members := make([]domain.Member, 0, len(raw.Members))
	byID := make(map[string]int, len(raw.Members))
	for _, rm := range raw.Members {
		if rm.ID == "" {
			continue
		}
		if _, dup := byID[rm.ID]; dup {
			continue
		}
		byID[rm.ID] = len(members)
		members = append(members, domain.Member{
			ID:          rm.ID,
			DisplayName: rm.DisplayName,
			Aliases:     rm.Aliases,
		})
	}

	idx := domain.NewAliasIndex(members)
	authorID := make(map[string]string)
	promoted := make(map[string]struct{})
	for _, m := range raw.Messages {
		if m.Author == "" {
			continue
		}
		if _, done := authorID[m.Author]; done {
			continue
		}
		if _, isID := byID[m.Author]; isID {
			authorID[m.Author] = m.Author
			continue
		}
		if id, ok := idx.Resolve(m.Author); ok {
			authorID[m.Author] = id
			continue
		}
		authorID[m.Author] = m.Author
		promoted[m.Author] = struct{}{}
	}

	promotedIDs := make([]string, 0, len(promoted))
	for id := range promoted {
		promotedIDs = append(promotedIDs, id)
	}
	sort.Strings(promotedIDs)
	for _, id := range promotedIDs {
		members = append(members, domain.Member{ID: id, DisplayName: id})
	}
	return members, authorID
}

// convertMessages normalizes timestamps, resolves authors and fills
// missing ids. Returns the messages and the conversion count.
func convertMessages(raw []domain.RawMessage, authorID map[string]string) ([]domain.Message, int) {
	maxID := int64(0)
	for _, m := range raw {
		if m.ID > maxID {
			maxID = m.ID
		}
	}

	messages := make([]domain.Message, 0, len(raw))
	converted := 0
	nextID := maxID
	for _, m := range raw {
		id := m.ID
		if id == 0 {
			nextID++
			id = nextID
		}
		ts := domain.NormalizeTimestamp(m.Timestamp)
		if ts != m.Timestamp {
			converted++
		}
		sender := authorID[m.Author]
		if sender == "" {
			sender = m.Author
		}
		messages = append(messages, domain.Message{
			ID:        id,
			SenderID:  sender,
			Timestamp: ts,
			Content:   m.Content,
			ReplyTo:   m.ReplyTo,
		})
	}
	return messages, converted
}
