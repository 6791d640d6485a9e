// internal/storage/memory/memory.go
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rovshanmuradov/launchpad/internal/storage"
	"github.com/rovshanmuradov/launchpad/internal/storage/models"
)

// Store is an in-process Storage used by tests and DSN-less local runs.
type Store struct {
	mu       sync.Mutex
	launches map[string]*models.LaunchRecord
	order    []string // insertion order of graduations
	trades   []*models.TradeRecord
	pending  map[string]*models.PendingGraduation
	nextID   uint
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		launches: make(map[string]*models.LaunchRecord),
		pending:  make(map[string]*models.PendingGraduation),
	}
}

func (s *Store) RunMigrations() error { return nil }

func (s *Store) SaveLaunch(_ context.Context, launch *models.LaunchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.launches[launch.LaunchID]; exists {
		return fmt.Errorf("storage: launch %s already saved", launch.LaunchID)
	}
	s.nextID++
	launch.ID = s.nextID
	launch.CreatedAt = time.Now().UTC()
	launch.UpdatedAt = launch.CreatedAt

	record := *launch
	s.launches[launch.LaunchID] = &record
	return nil
}

func (s *Store) UpdateLaunch(_ context.Context, launch *models.LaunchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.launches[launch.LaunchID]
	if !ok {
		return fmt.Errorf("%w: launch %s", storage.ErrNotFound, launch.LaunchID)
	}

	wasGraduated := existing.Graduated

	record := *launch
	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = time.Now().UTC()
	s.launches[launch.LaunchID] = &record

	if record.Graduated && !wasGraduated {
		s.order = append(s.order, launch.LaunchID)
	}
	return nil
}

func (s *Store) DeleteLaunch(_ context.Context, launchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.launches[launchID]; !ok {
		return fmt.Errorf("%w: launch %s", storage.ErrNotFound, launchID)
	}
	delete(s.launches, launchID)
	return nil
}

func (s *Store) GetLaunch(_ context.Context, launchID string) (*models.LaunchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	launch, ok := s.launches[launchID]
	if !ok {
		return nil, fmt.Errorf("%w: launch %s", storage.ErrNotFound, launchID)
	}
	record := *launch
	return &record, nil
}

func (s *Store) ListGraduated(_ context.Context, limit, offset int) ([]*models.LaunchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if offset >= len(s.order) || limit <= 0 {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.order) {
		end = len(s.order)
	}

	result := make([]*models.LaunchRecord, 0, end-offset)
	for _, id := range s.order[offset:end] {
		record := *s.launches[id]
		result = append(result, &record)
	}
	return result, nil
}

func (s *Store) SaveTrade(_ context.Context, trade *models.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	trade.ID = s.nextID
	trade.CreatedAt = time.Now().UTC()

	record := *trade
	s.trades = append(s.trades, &record)
	return nil
}

func (s *Store) ListTrades(_ context.Context, launchID string, limit, offset int) ([]*models.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.TradeRecord
	// Newest first, matching the SQL implementation.
	for i := len(s.trades) - 1; i >= 0; i-- {
		if s.trades[i].LaunchID == launchID {
			matched = append(matched, s.trades[i])
		}
	}

	if offset >= len(matched) || limit <= 0 {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	result := make([]*models.TradeRecord, 0, end-offset)
	for _, trade := range matched[offset:end] {
		record := *trade
		result = append(result, &record)
	}
	return result, nil
}

func (s *Store) SavePendingGraduation(_ context.Context, pending *models.PendingGraduation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pending[pending.LaunchID]; exists {
		return fmt.Errorf("storage: pending graduation for %s already staged", pending.LaunchID)
	}
	s.nextID++
	pending.ID = s.nextID
	pending.CreatedAt = time.Now().UTC()

	record := *pending
	s.pending[pending.LaunchID] = &record
	return nil
}

func (s *Store) DeletePendingGraduation(_ context.Context, launchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, launchID)
	return nil
}

func (s *Store) ListPendingGraduations(_ context.Context) ([]*models.PendingGraduation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*models.PendingGraduation, 0, len(s.pending))
	for _, pending := range s.pending {
		record := *pending
		result = append(result, &record)
	}
	return result, nil
}
