package chatlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDecodeFile_Document(t *testing.T) {
	path := writeTemp(t, "export.json", `{
		"messages": [
			{"id": 1, "timestamp": 1000, "author": "u1", "content": "hey @bob"},
			{"id": 2, "timestamp": 1005, "author": "u2", "content": "hey", "reply_to": 1},
			{"id": 3, "timestamp": 1010, "author": "u1", "mentions": ["bob", "carol"]}
		],
		"members": [
			{"id": "u1", "display_name": "alice", "aliases": ["al"]},
			{"id": "u2", "display_name": "bob"}
		]
	}`)

	archive, err := New().DecodeFile(path)
	require.NoError(t, err)
	require.Len(t, archive.Messages, 3)
	require.Len(t, archive.Members, 2)

	assert.Equal(t, int64(1), archive.Messages[0].ID)
	assert.Equal(t, "u1", archive.Messages[0].Author)
	assert.Equal(t, "hey @bob", archive.Messages[0].Content)
	assert.Equal(t, int64(1), archive.Messages[1].ReplyTo)
	assert.Equal(t, []string{"bob", "carol"}, archive.Messages[2].Mentions)

	assert.Equal(t, "alice", archive.Members[0].DisplayName)
	assert.Equal(t, []string{"al"}, archive.Members[0].Aliases)
	assert.Empty(t, archive.Members[1].Aliases)
}

func TestDecodeFile_DocumentWithoutMembers(t *testing.T) {
	path := writeTemp(t, "export.json", `{"messages": [{"id": 1, "timestamp": 1, "author": "x"}]}`)

	archive, err := New().DecodeFile(path)
	require.NoError(t, err)
	assert.Len(t, archive.Messages, 1)
	assert.Empty(t, archive.Members)
}

func TestDecodeFile_Lines(t *testing.T) {
	path := writeTemp(t, "export.jsonl",
		`{"id": 1, "timestamp": 1000, "author": "u1", "content": "a"}

{"id": 2, "timestamp": 1001, "author": "u2", "content": "b"}
`)

	archive, err := New().DecodeFile(path)
	require.NoError(t, err)
	require.Len(t, archive.Messages, 2)
	assert.Equal(t, "u2", archive.Messages[1].Author)
	assert.Empty(t, archive.Members)
}

func TestDecodeFile_MalformedDocument(t *testing.T) {
	path := writeTemp(t, "broken.json", `{"messages": [`)

	_, err := New().DecodeFile(path)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDecodeFile_MalformedLine(t *testing.T) {
	path := writeTemp(t, "broken.jsonl",
		`{"id": 1, "timestamp": 1000, "author": "u1"}
not json
`)

	_, err := New().DecodeFile(path)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "line 2")
}

func TestDecodeFile_MissingFile(t *testing.T) {
	_, err := New().DecodeFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDecodeFile_MillisecondTimestampsPassThrough(t *testing.T) {
	// The decoder performs no unit conversion; import owns that.
	path := writeTemp(t, "export.json",
		`{"messages": [{"id": 1, "timestamp": 1700000000000, "author": "u1"}]}`)

	archive, err := New().DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), archive.Messages[0].Timestamp)
}
