package memory

import (
	"context"
	"sync"

	apperrors "vm-transcriber/internal/app/errors"
)

// Store is the in-process ResultStore used in degraded mode. Records are lost
// on restart and a repeated Put overwrites the previous link.
type Store struct {
	mu      sync.RWMutex
	records map[string]string
	closed  bool
}

func NewStore() *Store {
	return &Store{records: make(map[string]string)}
}

func (s *Store) Put(_ context.Context, messageID, replyLink string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperrors.ErrStoreClosed
	}
	s.records[messageID] = replyLink
	return nil
}

func (s *Store) Get(_ context.Context, messageID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, apperrors.ErrStoreClosed
	}
	link, ok := s.records[messageID]
	return link, ok, nil
}

// Clean drops every record.
func (s *Store) Clean(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.records))
	s.records = make(map[string]string)
	return n, nil
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
