// Package locks implements the per-record lease lock store. Each lockable
// record gets its own cell, addressed by record id, holding the lease state
// and its expiry timer. Operations on the same record are serialized by the
// cell mutex; operations on different records run fully in parallel.
package locks

import (
	"fmt"
	"sync"
	"time"

	"medicore_backend/platform/apperr"
	"medicore_backend/platform/logger"
)

// DefaultTTL is the lease duration armed on every successful acquire or refresh.
const DefaultTTL = 5 * time.Minute

// Status is a snapshot of a cell's lease state.
type Status struct {
	Locked     bool
	HolderID   string
	HolderName string
	AcquiredAt time.Time
}

type cell struct {
	mu         sync.Mutex
	holderID   string
	holderName string
	acquiredAt time.Time
	timer      *time.Timer
	gen        uint64 // bumped on every transition so a stale timer never clears a newer lease
}

func (c *cell) held() bool {
	return c.holderID != ""
}

func (c *cell) status() Status {
	if !c.held() {
		return Status{}
	}
	return Status{
		Locked:     true,
		HolderID:   c.holderID,
		HolderName: c.holderName,
		AcquiredAt: c.acquiredAt,
	}
}

// clear resets the lease. Caller must hold c.mu.
func (c *cell) clear() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.holderID = ""
	c.holderName = ""
	c.acquiredAt = time.Time{}
}

// Store grants, refreshes, queries, and expires record leases.
type Store struct {
	mu    sync.RWMutex
	cells map[string]*cell
	ttl   time.Duration
	log   *logger.Logger
}

// NewStore creates a lease lock store. A non-positive ttl falls back to DefaultTTL.
func NewStore(ttl time.Duration, log *logger.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		cells: make(map[string]*cell),
		ttl:   ttl,
		log:   log,
	}
}

// Cells are retained once created. The population is bounded by the set of
// records staff can open, so there is no eviction path; an unlocked cell is
// indistinguishable from an absent one.
func (s *Store) getCell(resourceID string) *cell {
	s.mu.RLock()
	c, ok := s.cells[resourceID]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.cells[resourceID]; ok {
		return c
	}
	c = &cell{}
	s.cells[resourceID] = c
	return c
}

// Acquire grants the lease if the record is unlocked, refreshes it if the
// caller already holds it, and returns a conflict error naming the current
// holder otherwise. Grant and refresh both re-arm the expiry timer.
func (s *Store) Acquire(resourceID, holderID, holderName string) (Status, error) {
	c := s.getCell(resourceID)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.held() && c.holderID != holderID {
		s.log.LockConflict(resourceID, holderID, c.holderID)
		return c.status(), apperr.Conflict(fmt.Sprintf("Locked by %s.", c.holderName))
	}

	c.gen++
	gen := c.gen
	c.holderID = holderID
	c.holderName = holderName
	c.acquiredAt = time.Now()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(s.ttl, func() {
		s.expire(resourceID, c, gen)
	})

	return c.status(), nil
}

// Release clears the lease when called by its holder. Releasing an unlocked
// record is an idempotent no-op; releasing another user's lease is forbidden
// and leaves the state untouched.
func (s *Store) Release(resourceID, holderID string) (Status, error) {
	c := s.getCell(resourceID)
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.held() {
		return Status{}, nil
	}
	if c.holderID != holderID {
		return c.status(), apperr.Forbidden("cannot release a lock held by another user")
	}

	c.clear()
	return Status{}, nil
}

// Status returns the current lease state without creating a cell.
func (s *Store) Status(resourceID string) Status {
	s.mu.RLock()
	c, ok := s.cells[resourceID]
	s.mu.RUnlock()
	if !ok {
		return Status{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status()
}

// expire is the timer callback. The holder is presumed gone; the lease is
// cleared unconditionally unless an intervening acquire, refresh, or release
// bumped the generation.
func (s *Store) expire(resourceID string, c *cell, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen || !c.held() {
		return
	}

	holderID := c.holderID
	c.clear()
	s.log.Info("record lease expired", "resource_id", resourceID, "holder_id", holderID)
}
