package importers

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// registry maps running job ids to their cooperative stop flags.
type registry struct {
	mu   sync.Mutex
	runs map[string]*atomic.Bool
}

func newRegistry() *registry {
	return &registry{runs: make(map[string]*atomic.Bool)}
}

func (r *registry) register(jobID string) (*atomic.Bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[jobID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrJobRunning, jobID)
	}
	flag := new(atomic.Bool)
	r.runs[jobID] = flag
	return flag, nil
}

func (r *registry) unregister(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, jobID)
}

func (r *registry) stop(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	flag, ok := r.runs[jobID]
	if !ok {
		return false
	}
	flag.Store(true)
	return true
}

func (r *registry) running(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.runs[jobID]
	return ok
}
