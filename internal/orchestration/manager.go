package orchestration

import (
	"context"
	"sync"

	"github.com/pitchcraft/deck-orchestrator/internal/generation"
	"github.com/pitchcraft/deck-orchestrator/internal/metrics"
	"github.com/pitchcraft/deck-orchestrator/internal/session"
)

// Manager hands out one Service per session, creating and seeding it on
// first use.
type Manager struct {
	store   session.Store
	gen     generation.Client
	metrics *metrics.GenerationMetrics

	mu       sync.Mutex
	services map[string]*Service
}

// NewManager creates a session manager.
func NewManager(store session.Store, gen generation.Client, m *metrics.GenerationMetrics) *Manager {
	return &Manager{
		store:    store,
		gen:      gen,
		metrics:  m,
		services: make(map[string]*Service),
	}
}

// Get returns the service for a session, creating it and loading its
// saved state on first access. A load failure is returned and the service
// is not cached, so the next request retries.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Service, error) {
	m.mu.Lock()
	if svc, ok := m.services[sessionID]; ok {
		m.mu.Unlock()
		return svc, nil
	}
	m.mu.Unlock()

	svc := NewService(sessionID, m.store, m.gen, m.metrics)
	if err := svc.LoadSession(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.services[sessionID]; ok {
		return existing, nil
	}
	m.services[sessionID] = svc
	return svc, nil
}
