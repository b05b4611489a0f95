package blocklist

import (
	"context"
	"sync"
	"time"

	"github.com/arenalab/ipsentinel/models"
	"github.com/arenalab/ipsentinel/window"
)

// MemoryStore is the in-process Store backend. State is lost on restart and
// not shared across instances.
type MemoryStore struct {
	mu       sync.Mutex
	failures map[string]*window.EventWindow
	blocks   map[string]*models.BlockRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		failures: make(map[string]*window.EventWindow),
		blocks:   make(map[string]*models.BlockRecord),
	}
}

func (s *MemoryStore) IncrementFailures(ctx context.Context, ip string, win time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.failures[ip]
	if !ok {
		w = window.NewEventWindow(win)
		s.failures[ip] = w
	}
	return w.Record(), nil
}

func (s *MemoryStore) FailureCount(ctx context.Context, ip string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.failures[ip]
	if !ok {
		return 0, nil
	}
	return w.Count(), nil
}

func (s *MemoryStore) ResetFailures(ctx context.Context, ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, ip)
	return nil
}

func (s *MemoryStore) GetBlock(ctx context.Context, ip string) (*models.BlockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.blocks[ip]
	if !ok {
		return nil, models.ErrNotFound
	}
	if rec.Expired(time.Now()) {
		delete(s.blocks, ip)
		return nil, models.ErrNotFound
	}

	out := *rec
	return &out, nil
}

func (s *MemoryStore) PutBlock(ctx context.Context, record *models.BlockRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *record
	s.blocks[record.IP] = &rec
	return nil
}

func (s *MemoryStore) DeleteBlock(ctx context.Context, ip string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.blocks[ip]
	if !ok {
		return false, nil
	}
	delete(s.blocks, ip)
	return !rec.Expired(time.Now()), nil
}

func (s *MemoryStore) ListBlocks(ctx context.Context) ([]*models.BlockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	active := make([]*models.BlockRecord, 0, len(s.blocks))
	for _, rec := range s.blocks {
		if rec.Expired(now) {
			continue
		}
		out := *rec
		active = append(active, &out)
	}
	return active, nil
}

func (s *MemoryStore) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0

	for ip, rec := range s.blocks {
		if rec.Expired(now) {
			delete(s.blocks, ip)
			removed++
		}
	}
	for ip, w := range s.failures {
		if w.Count() == 0 {
			delete(s.failures, ip)
			removed++
		}
	}
	return removed, nil
}
