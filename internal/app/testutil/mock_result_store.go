package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"vm-transcriber/internal/app/repository"
)

// MockResultStore is a testify mock of repository.ResultStore.
type MockResultStore struct {
	mock.Mock
}

var _ repository.ResultStore = (*MockResultStore)(nil)

func NewMockResultStore(t *testing.T) *MockResultStore {
	m := &MockResultStore{}
	m.Test(t)
	return m
}

func (m *MockResultStore) Put(ctx context.Context, messageID, replyLink string) error {
	args := m.Called(ctx, messageID, replyLink)
	return args.Error(0)
}

func (m *MockResultStore) Get(ctx context.Context, messageID string) (string, bool, error) {
	args := m.Called(ctx, messageID)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockResultStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// RecordingStore wraps a ResultStore and counts writes per message id.
type RecordingStore struct {
	repository.ResultStore

	mu   sync.Mutex
	puts map[string]int
}

func NewRecordingStore(inner repository.ResultStore) *RecordingStore {
	return &RecordingStore{ResultStore: inner, puts: make(map[string]int)}
}

func (s *RecordingStore) Put(ctx context.Context, messageID, replyLink string) error {
	s.mu.Lock()
	s.puts[messageID]++
	s.mu.Unlock()
	return s.ResultStore.Put(ctx, messageID, replyLink)
}

// Puts returns how many writes were attempted for messageID.
func (s *RecordingStore) Puts(messageID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts[messageID]
}

// TotalPuts returns the number of writes attempted for any id.
func (s *RecordingStore) TotalPuts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.puts {
		n += c
	}
	return n
}
