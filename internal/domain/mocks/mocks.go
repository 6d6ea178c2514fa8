package mocks

import (
	"context"

	"github.com/WPMirror/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

var _ domain.Repository = (*MockRepository)(nil)

func (m *MockRepository) BulkUpsert(ctx context.Context, entries []domain.Entry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockRepository) GetLatestModified(ctx context.Context, site, collection string) (*domain.Entry, error) {
	args := m.Called(ctx, site, collection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entry), args.Error(1)
}

func (m *MockRepository) GetContentHashes(ctx context.Context, ids []string) (map[string]string, error) {
	args := m.Called(ctx, ids)

	// Handle nil map
	var hashes map[string]string
	if args.Get(0) != nil {
		hashes = args.Get(0).(map[string]string)
	}
	return hashes, args.Error(1)
}

type MockEventProducer struct {
	mock.Mock
}

var _ domain.EventProducer = (*MockEventProducer)(nil)

func (m *MockEventProducer) Publish(ctx context.Context, entry *domain.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEventProducer) PublishBatch(ctx context.Context, entries []domain.Entry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockEventProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockProvider struct {
	mock.Mock
	Name    string
	Batches [][]domain.Entry
}

var _ domain.Provider = (*MockProvider)(nil)

// Crawl hands every configured batch to handler, then returns the mocked error.
func (m *MockProvider) Crawl(ctx context.Context, handler func([]domain.Entry) error) error {
	args := m.Called(ctx)
	for _, batch := range m.Batches {
		_ = handler(batch)
	}
	return args.Error(0)
}

func (m *MockProvider) GetName() string {
	return m.Name
}

type MockIndexGateway struct {
	mock.Mock
}

var _ domain.IndexGateway = (*MockIndexGateway)(nil)

func (m *MockIndexGateway) IndexEntry(ctx context.Context, entry *domain.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
