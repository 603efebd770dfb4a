package replay

import (
	"context"
	"sync"
	"time"
)

// defaultSweepInterval is how often the background sweep runs. Expiry
// is also applied lazily on Has, so the sweep only bounds memory.
const defaultSweepInterval = time.Hour

// MemoryStore is an in-process Store.
//
// State is lost on restart and is not shared across instances; both are
// accepted for single-instance deployments where a lost record only
// costs one extra ledger lookup.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	ttl     time.Duration

	now           func() time.Time
	sweepInterval time.Duration
	stop          chan struct{}
	done          chan struct{}
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source. Tests use this to control
// expiry without sleeping.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// WithSweepInterval overrides the background sweep cadence. A zero or
// negative interval disables the background sweep entirely.
func WithSweepInterval(interval time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		s.sweepInterval = interval
	}
}

// NewMemoryStore creates a MemoryStore with the given TTL and starts
// its background sweep.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		records:       make(map[string]Record),
		ttl:           ttl,
		now:           time.Now,
		sweepInterval: defaultSweepInterval,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sweepInterval > 0 {
		s.stop = make(chan struct{})
		go s.sweepLoop()
	} else {
		close(s.done)
	}
	return s
}

// Has implements Store. Expired records are removed on lookup so an
// expired reference is never reported present, regardless of sweep
// timing.
func (s *MemoryStore) Has(_ context.Context, reference, postID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[reference]
	if !ok {
		return false, nil
	}

	if s.now().Sub(record.VerifiedAt) > s.ttl {
		delete(s.records, reference)
		return false, nil
	}

	if postID != "" && record.PostID != postID {
		return false, nil
	}

	return true, nil
}

// Add implements Store.
func (s *MemoryStore) Add(_ context.Context, reference, postID string, meta *Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[reference] = Record{
		Reference:  reference,
		VerifiedAt: s.now(),
		PostID:     postID,
		Metadata:   meta,
	}
	return nil
}

// Sweep implements Store.
func (s *MemoryStore) Sweep(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for reference, record := range s.records {
		if now.Sub(record.VerifiedAt) > s.ttl {
			delete(s.records, reference)
		}
	}
	return nil
}

// Size implements Store.
func (s *MemoryStore) Size(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close stops the background sweep.
func (s *MemoryStore) Close() error {
	if s.stop != nil {
		close(s.stop)
		<-s.done
		s.stop = nil
	}
	return nil
}

func (s *MemoryStore) sweepLoop() {
	defer close(s.done)
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = s.Sweep(context.Background())
		case <-s.stop:
			return
		}
	}
}

var _ Store = (*MemoryStore)(nil)
