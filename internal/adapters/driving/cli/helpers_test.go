package cli

import (
	"context"

	"github.com/chatlens-labs/chatlens-cli/internal/adapters/driven/storage/memory"
	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/services"
	"github.com/chatlens-labs/chatlens-cli/internal/normalisers/chatlog"
)

// --- Mock implementations ---

// mockConfigStore is a map-backed config store so settings tests never
// touch the real config file.
type mockConfigStore struct {
	values map[string]any
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: map[string]any{}}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	s, _ := m.values[key].(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	switch v := m.values[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func (m *mockConfigStore) GetFloat(key string) float64 {
	switch v := m.values[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func (m *mockConfigStore) GetBool(key string) bool {
	b, _ := m.values[key].(bool)
	return b
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	s, _ := m.values[key].([]string)
	return s
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Delete(key string) error {
	delete(m.values, key)
	return nil
}

func (m *mockConfigStore) Save() error  { return nil }
func (m *mockConfigStore) Load() error  { return nil }
func (m *mockConfigStore) Path() string { return "chatlens-test.toml" }

// --- Test helpers ---

// fixtureMembers is the roster of the fixture conversation.
func fixtureMembers() []domain.Member {
	return []domain.Member{
		{ID: "alice", DisplayName: "Alice"},
		{ID: "bob", DisplayName: "Bob", Aliases: []string{"bobby"}},
		{ID: "carol", DisplayName: "Carol"},
	}
}

// fixtureMessages is a small two-burst conversation: five messages
// around t=100 and three more after a long silence at t=5000.
func fixtureMessages() []domain.Message {
	return []domain.Message{
		{ID: 1, SenderID: "alice", Timestamp: 100, Content: "morning @Bob the deploy window opens at ten"},
		{ID: 2, SenderID: "bob", Timestamp: 160, Content: "on it @Alice"},
		{ID: 3, SenderID: "carol", Timestamp: 220, Content: "deploy checklist is ready"},
		{ID: 4, SenderID: "alice", Timestamp: 280, Content: "thanks @Carol"},
		{ID: 5, SenderID: "bob", Timestamp: 340, Content: "staging deploy is green", ReplyTo: 3},
		{ID: 6, SenderID: "alice", Timestamp: 5000, Content: "@Bob did the deploy finish?"},
		{ID: 7, SenderID: "bob", Timestamp: 5060, Content: "@Alice all done"},
		{ID: 8, SenderID: "carol", Timestamp: 5120, Content: "nice work everyone"},
	}
}

// fixtureSessions is the partition the default gap would produce over
// fixtureMessages.
func fixtureSessions() []domain.Session {
	return []domain.Session{
		{ID: 1, StartTs: 100, EndTs: 340, MessageCount: 5},
		{ID: 2, StartTs: 5000, EndTs: 5120, MessageCount: 3},
	}
}

// seedArchive loads the fixture conversation. Memory-store writes only
// fail on context cancellation, which Background never reports.
func seedArchive(store *memory.Store) {
	ctx := context.Background()
	_ = store.MessageStore().SaveMembers(ctx, fixtureMembers())
	_ = store.MessageStore().AppendMessages(ctx, "fixture", fixtureMessages())
	_ = store.SessionStore().ReplaceSessions(ctx, fixtureSessions())
}

// installServices wires every command to services over the given store
// and marks the package wired so wireServices leaves the doubles alone.
// The returned cleanup restores the previous state.
func installServices(store *memory.Store) func() {
	oldImport := importService
	oldSegmentation := segmentationService
	oldInteraction := interactionService
	oldRelationship := relationshipService
	oldContext := contextService
	oldExport := exportService
	oldSettings := settingsService
	oldStats := statsService
	oldConfig := configStore
	oldSeq := requestSeq
	oldWired := wired

	cfg := newMockConfigStore()
	messages := store.MessageStore()
	sessions := store.SessionStore()
	seq := services.NewRequestSeq()

	configStore = cfg
	requestSeq = seq
	settingsService = services.NewSettingsService(cfg)
	importService = services.NewImportService(messages, chatlog.New(), seq)
	segmentationService = services.NewSegmentationService(messages, sessions, settingsService, seq)
	interactionService = services.NewInteractionService(messages, seq)
	temporal := services.NewTemporalService(messages, seq)
	relationshipService = services.NewGraphService(messages, interactionService, temporal)
	contextService = services.NewContextService(messages, sessions, settingsService, seq)
	exportService = services.NewExportService(messages, sessions, settingsService, seq)
	statsService = services.NewStatsService(messages, sessions)
	wired = true

	return func() {
		importService = oldImport
		segmentationService = oldSegmentation
		interactionService = oldInteraction
		relationshipService = oldRelationship
		contextService = oldContext
		exportService = oldExport
		settingsService = oldSettings
		statsService = oldStats
		configStore = oldConfig
		requestSeq = oldSeq
		wired = oldWired
	}
}

// setupTestServices wires the commands to an in-memory archive seeded
// with the fixture conversation.
func setupTestServices() func() {
	store := memory.NewStore()
	seedArchive(store)
	return installServices(store)
}

// setupEmptyServices wires the commands to an empty in-memory archive,
// for the empty-state rendering paths.
func setupEmptyServices() func() {
	return installServices(memory.NewStore())
}
