package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"vm-transcriber/internal/app/api"
	"vm-transcriber/internal/app/audio"
)

// MockTranscriber is a configurable implementation of api.Transcriber.
//
// Without expectations it answers DefaultResponse (or DefaultError) after
// DefaultLatency. Once On("Transcript", ...) is used the testify expectations
// take over.
type MockTranscriber struct {
	mock.Mock
	mu sync.Mutex

	BackendName     string
	DefaultLatency  time.Duration
	DefaultResponse string
	DefaultError    error

	CallCount   int
	CallHistory []TranscriptionCall
}

// TranscriptionCall represents a single transcription call for tracking
type TranscriptionCall struct {
	Clip      *audio.Clip
	Timestamp time.Time
	Response  string
	Error     error
}

var _ api.Transcriber = (*MockTranscriber)(nil)

// NewMockTranscriber creates a new MockTranscriber with sensible defaults
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{
		BackendName:     "mock",
		DefaultResponse: "hello world",
	}
}

// Name implements api.Transcriber
func (m *MockTranscriber) Name() string {
	return m.BackendName
}

// Transcript implements api.Transcriber
func (m *MockTranscriber) Transcript(ctx context.Context, clip *audio.Clip) (string, error) {
	m.mu.Lock()
	m.CallCount++
	latency := m.DefaultLatency
	response, err := m.DefaultResponse, m.DefaultError
	hasExpectations := len(m.ExpectedCalls) > 0
	m.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if hasExpectations {
		args := m.Called(ctx, clip)
		response, err = args.String(0), args.Error(1)
	}

	m.mu.Lock()
	m.CallHistory = append(m.CallHistory, TranscriptionCall{
		Clip:      clip,
		Timestamp: time.Now(),
		Response:  response,
		Error:     err,
	})
	m.mu.Unlock()

	if err != nil {
		return "", err
	}
	return response, nil
}

// WithDefaultResponse sets the default transcription response
func (m *MockTranscriber) WithDefaultResponse(response string) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DefaultResponse = response
	return m
}

// WithDefaultError makes every call fail with err
func (m *MockTranscriber) WithDefaultError(err error) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DefaultError = err
	return m
}

// WithDefaultLatency sets the default processing latency
func (m *MockTranscriber) WithDefaultLatency(latency time.Duration) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DefaultLatency = latency
	return m
}

// Calls returns how many times Transcript was invoked.
func (m *MockTranscriber) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}
