package cli

import (
	"context"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driven"
)

// unavailableStore stands in for the archive when none exists yet.
// Every method reports domain.ErrArchiveUnavailable: read-path
// services translate that into empty results, write paths surface it.
type unavailableStore struct{}

var (
	_ driven.MessageStore = unavailableStore{}
	_ driven.SessionStore = unavailableStore{}
)

func (unavailableStore) ScanMessages(context.Context, *domain.TimeRange, func(domain.Message) error) error {
	return domain.ErrArchiveUnavailable
}

func (unavailableStore) FetchRange(context.Context, *domain.TimeRange, int, int) ([]domain.MessageDetail, error) {
	return nil, domain.ErrArchiveUnavailable
}

func (unavailableStore) MessagesBySession(context.Context, int64) ([]domain.MessageDetail, error) {
	return nil, domain.ErrArchiveUnavailable
}

func (unavailableStore) CountMessages(context.Context, *domain.TimeRange) (int, error) {
	return 0, domain.ErrArchiveUnavailable
}

func (unavailableStore) CountMessagesBySender(context.Context) (map[string]int, error) {
	return nil, domain.ErrArchiveUnavailable
}

func (unavailableStore) ListMembers(context.Context) ([]domain.Member, error) {
	return nil, domain.ErrArchiveUnavailable
}

func (unavailableStore) SaveMembers(context.Context, []domain.Member) error {
	return domain.ErrArchiveUnavailable
}

func (unavailableStore) AppendMessages(context.Context, string, []domain.Message) error {
	return domain.ErrArchiveUnavailable
}

func (unavailableStore) ReplaceSessions(context.Context, []domain.Session) error {
	return domain.ErrArchiveUnavailable
}

func (unavailableStore) ClearSessions(context.Context) error {
	return domain.ErrArchiveUnavailable
}

func (unavailableStore) ListSessions(context.Context) ([]domain.Session, error) {
	return nil, domain.ErrArchiveUnavailable
}

func (unavailableStore) SessionsByIDs(context.Context, []int64) ([]domain.Session, error) {
	return nil, domain.ErrArchiveUnavailable
}

func (unavailableStore) SetSummary(context.Context, int64, string) error {
	return domain.ErrArchiveUnavailable
}
