package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"scandex/internal/port"
)

// MockHistoryRepo is a mock implementation of port.HistoryRepository.
type MockHistoryRepo struct {
	mock.Mock
}

func (m *MockHistoryRepo) Create(ctx context.Context, run *port.ProcessingRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockHistoryRepo) Get(ctx context.Context, id string) (*port.ProcessingRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ProcessingRun), args.Error(1)
}

func (m *MockHistoryRepo) List(ctx context.Context, query port.HistoryQuery) ([]*port.ProcessingRun, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*port.ProcessingRun), args.Error(1)
}

func (m *MockHistoryRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockHistoryRepo) Purge(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}
