package chatlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driven"
)

// Ensure Decoder implements the interface.
var _ driven.ArchiveDecoder = (*Decoder)(nil)

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 1 << 20

// Decoder reads chat-interchange documents. A .json file holds one
// document object; a .jsonl file holds one message object per line.
type Decoder struct{}

// New creates a new chat-log decoder.
func New() *Decoder {
	return &Decoder{}
}

// document mirrors the interchange JSON layout.
type document struct {
	Messages []message `json:"messages"`
	Members  []member  `json:"members"`
}

type message struct {
	ID        int64    `json:"id"`
	Timestamp int64    `json:"timestamp"`
	Author    string   `json:"author"`
	Content   string   `json:"content"`
	ReplyTo   int64    `json:"reply_to"`
	Mentions  []string `json:"mentions"`
}

type member struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Aliases     []string `json:"aliases"`
}

// DecodeFile reads and decodes one interchange file.
func (d *Decoder) DecodeFile(path string) (*domain.RawArchive, error) {
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return d.decodeLines(path)
	}
	return d.decodeDocument(path)
}

// decodeDocument parses a single-object JSON document.
func (d *Decoder) decodeDocument(path string) (*domain.RawArchive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidInput, filepath.Base(path), err)
	}

	return toRawArchive(doc), nil
}

// decodeLines parses a JSONL stream of message objects.
func (d *Decoder) decodeLines(path string) (*domain.RawArchive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	var doc document
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var m message
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			return nil, fmt.Errorf("%w: parsing %s line %d: %v",
				domain.ErrInvalidInput, filepath.Base(path), lineNo, err)
		}
		doc.Messages = append(doc.Messages, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return toRawArchive(doc), nil
}

// toRawArchive converts the wire document into domain records.
func toRawArchive(doc document) *domain.RawArchive {
	archive := &domain.RawArchive{
		Messages: make([]domain.RawMessage, 0, len(doc.Messages)),
		Members:  make([]domain.RawMember, 0, len(doc.Members)),
	}
	for _, m := range doc.Messages {
		archive.Messages = append(archive.Messages, domain.RawMessage{
			ID:        m.ID,
			Timestamp: m.Timestamp,
			Author:    m.Author,
			Content:   m.Content,
			ReplyTo:   m.ReplyTo,
			Mentions:  m.Mentions,
		})
	}
	for _, m := range doc.Members {
		archive.Members = append(archive.Members, domain.RawMember{
			ID:          m.ID,
			DisplayName: m.DisplayName,
			Aliases:     m.Aliases,
		})
	}
	return archive
}
