package driven

import "github.com/chatlens-labs/chatlens-cli/internal/core/domain"

// ArchiveDecoder decodes chat-interchange documents into raw archives.
// Implementations handle the concrete wire formats (JSON document,
// JSONL stream); they never touch storage.
type ArchiveDecoder interface {
	// DecodeFile reads and decodes one interchange file.
	// Malformed input returns domain.ErrInvalidInput.
	DecodeFile(path string) (*domain.RawArchive, error)
}
