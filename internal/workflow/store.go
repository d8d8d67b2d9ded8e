package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Passbob/dopamine-travel-front/internal/observability"
)

const (
	defaultTTL           = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

// ErrNotFound indicates the workflow id is unknown or has expired.
var ErrNotFound = errors.New("workflow: not found")

// StoreDeps configures a Store.
type StoreDeps struct {
	TTL           time.Duration
	SweepInterval time.Duration
	Clock         func() time.Time
	IDGenerator   func() string
}

type entry struct {
	mu sync.Mutex
	wf *Workflow
}

// Store keeps workflows in memory, keyed by ULID. Each workflow is mutated only inside Update,
// which serialises access per id.
type Store struct {
	mu       sync.Mutex
	entries  map[string]*entry
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	newID    func() string
}

// NewStore constructs an empty Store.
func NewStore(deps StoreDeps) *Store {
	ttl := deps.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	interval := deps.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	return &Store{
		entries:  make(map[string]*entry),
		ttl:      ttl,
		interval: interval,
		now:      func() time.Time { return now().UTC() },
		newID:    idGen,
	}
}

// Now returns the store clock.
func (s *Store) Now() time.Time { return s.now() }

// Create starts a new empty workflow and returns its id.
func (s *Store) Create() string {
	now := s.now()
	wf := &Workflow{ID: s.newID(), CreatedAt: now, UpdatedAt: now}

	s.mu.Lock()
	s.entries[wf.ID] = &entry{wf: wf}
	count := len(s.entries)
	s.mu.Unlock()

	observability.ActiveWorkflows.Set(float64(count))
	return wf.ID
}

// Update runs fn with exclusive access to the workflow. Running animations are settled
// against the store clock before fn observes the workflow.
func (s *Store) Update(id string, fn func(*Workflow) error) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}

	now := s.now()
	e.mu.Lock()
	if e.wf == nil {
		e.mu.Unlock()
		return ErrNotFound
	}
	if now.Sub(e.wf.UpdatedAt) > s.ttl {
		e.mu.Unlock()
		s.Delete(id)
		return ErrNotFound
	}
	defer e.mu.Unlock()
	e.wf.Settle(now)
	if err := fn(e.wf); err != nil {
		return err
	}
	e.wf.UpdatedAt = now
	return nil
}

// Delete removes the workflow, cancelling any animation still in flight.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	e, ok := s.entries[id]
	delete(s.entries, id)
	count := len(s.entries)
	s.mu.Unlock()
	if !ok {
		return
	}
	observability.ActiveWorkflows.Set(float64(count))

	e.mu.Lock()
	if e.wf != nil {
		e.wf.CancelRunning()
		e.wf = nil
	}
	e.mu.Unlock()
}

// Len reports the number of live workflows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep evicts workflows idle for longer than the TTL and returns how many were removed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []string
	for id, e := range s.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.wf == nil || e.wf.UpdatedAt.Before(cutoff) {
			expired = append(expired, id)
		}
		e.mu.Unlock()
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.Delete(id)
	}
	return len(expired)
}

// Run sweeps expired workflows until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				observability.FromContext(ctx).Debug("evicted idle workflows", zap.Int("count", n))
			}
		}
	}
}

func (s *Store) lookup(id string) (*entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}
