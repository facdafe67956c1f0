package results

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists benchmark results
type Store interface {
	// Add stores a new result, assigning an ID when empty
	Add(result *Result) error

	// Get retrieves a result by ID
	Get(id string) (*Result, error)

	// ListByRun returns a run's results in insertion order
	ListByRun(runID string) ([]*Result, error)

	// Delete removes a result
	Delete(id string) error
}

// InMemoryStore implements Store using maps guarded by an RWMutex
type InMemoryStore struct {
	results map[string]*Result
	runs    map[string][]string // runID -> result IDs in insertion order
	mu      sync.RWMutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		results: make(map[string]*Result),
		runs:    make(map[string][]string),
	}
}

// Add stores a copy of result and sets its CreatedAt
func (s *InMemoryStore) Add(result *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if _, exists := s.results[result.ID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, result.ID)
	}

	result.CreatedAt = time.Now().UTC()
	s.results[result.ID] = result.clone()
	s.runs[result.RunID] = append(s.runs[result.RunID], result.ID)
	return nil
}

func (s *InMemoryStore) Get(id string) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, exists := s.results[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return result.clone(), nil
}

// ListByRun returns an empty slice for an unknown run
func (s *InMemoryStore) ListByRun(runID string) ([]*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.runs[runID]
	out := make([]*Result, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.results[id].clone())
	}
	return out, nil
}

func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, exists := s.results[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	delete(s.results, id)
	ids := s.runs[result.RunID]
	for i, rid := range ids {
		if rid == id {
			s.runs[result.RunID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(s.runs[result.RunID]) == 0 {
		delete(s.runs, result.RunID)
	}
	return nil
}
