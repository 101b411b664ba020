// Package status keeps a snapshot of what the poller is doing and exposes it
// over HTTP. The snapshot is informational only; nothing reads it back to
// drive polling decisions.
package status

import (
	"context"
	"sync"
	"time"

	"passportwatch/pkg/availability"
)

// State is the poller's logical state
type State string

const (
	StatePolling  State = "polling"
	StateCooldown State = "cooldown"
	StateStopped  State = "stopped"
)

// Status is a point-in-time snapshot of a poller run
type Status struct {
	RunID         string            `json:"run_id"`
	State         State             `json:"state"`
	TargetURL     string            `json:"target_url"`
	StartedAt     time.Time         `json:"started_at"`
	Cycles        uint64            `json:"cycles"`
	LastCheck     time.Time         `json:"last_check,omitempty"`
	TotalHits     int               `json:"total_hits"`
	LastHit       *availability.Hit `json:"last_hit,omitempty"`
	CooldownUntil *time.Time        `json:"cooldown_until,omitempty"`
	LastError     string            `json:"last_error,omitempty"`
}

// Store persists the latest status snapshot
type Store interface {
	Save(ctx context.Context, st Status) error
	// Load returns false when no snapshot has been saved yet
	Load(ctx context.Context) (Status, bool, error)
}

// MemoryStore keeps the snapshot in process memory
type MemoryStore struct {
	mu    sync.RWMutex
	st    Status
	saved bool
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save implements Store
func (m *MemoryStore) Save(_ context.Context, st Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = st
	m.saved = true
	return nil
}

// Load implements Store
func (m *MemoryStore) Load(_ context.Context) (Status, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st, m.saved, nil
}
