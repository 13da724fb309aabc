package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	plangen "github.com/vapodego/aibabyapp-project-sub001"
	"github.com/vapodego/aibabyapp-project-sub001/id"
	"github.com/vapodego/aibabyapp-project-sub001/job"
)

var _ job.Store = (*Store)(nil)

// Store is a fully in-memory implementation of job.Store.
// Safe for concurrent access. Intended for unit testing and development.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*job.Job
}

// New returns a new empty Store.
func New() *Store {
	return &Store{jobs: make(map[string]*job.Job)}
}

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// CreateJob persists a new job in pending state.
func (m *Store) CreateJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := j.ID.String()
	if _, exists := m.jobs[key]; exists {
		return plangen.ErrJobAlreadyExists
	}
	cp := *j
	m.jobs[key] = &cp
	return nil
}

// GetJob retrieves a job by ID.
func (m *Store) GetJob(_ context.Context, jobID id.JobID) (*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[jobID.String()]
	if !ok {
		return nil, plangen.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

// UpdateJob applies a partial update to an existing, non-terminal job.
func (m *Store) UpdateJob(_ context.Context, jobID id.JobID, upd job.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID.String()]
	if !ok {
		return plangen.ErrJobNotFound
	}
	if j.Status.Terminal() {
		return plangen.ErrJobTerminal
	}

	if upd.Status != nil {
		j.Status = *upd.Status
	}
	if upd.Stage != nil {
		j.Stage = *upd.Stage
	}
	if upd.Output != nil {
		out := *upd.Output
		j.Output = &out
		j.Error = nil
	}
	if upd.Error != nil {
		e := *upd.Error
		j.Error = &e
		j.Output = nil
	}
	j.Metrics.Attempts += upd.AttemptsDelta
	j.Metrics.Calls += upd.CallsDelta
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// ClaimJob atomically moves a pending job to running at stage one and
// returns a copy. A job in any other status is not claimable.
func (m *Store) ClaimJob(_ context.Context, jobID id.JobID) (*job.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID.String()]
	if !ok {
		return nil, plangen.ErrJobNotFound
	}
	if j.Status != job.StatusPending {
		return nil, plangen.ErrJobNotClaimable
	}

	j.Status = job.StatusRunning
	j.Stage = job.StageCalling
	j.UpdatedAt = time.Now().UTC()
	cp := *j
	return &cp, nil
}

// ListStalled returns non-terminal jobs not updated since the cutoff,
// oldest first.
func (m *Store) ListStalled(_ context.Context, olderThan time.Duration) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	var stalled []*job.Job
	for _, j := range m.jobs {
		if j.Status.Terminal() {
			continue
		}
		if j.UpdatedAt.Before(cutoff) {
			cp := *j
			stalled = append(stalled, &cp)
		}
	}

	sort.Slice(stalled, func(i, k int) bool {
		return stalled[i].UpdatedAt.Before(stalled[k].UpdatedAt)
	})

	return stalled, nil
}
