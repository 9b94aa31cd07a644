package reconcile

import (
	"sort"
	"sync"
)

// jobTable keeps job summaries readable by id. Finished jobs beyond retention are
// dropped oldest first; running jobs are never dropped.
type jobTable struct {
	mu        sync.RWMutex
	jobs      map[string]*Summary
	order     []string
	retention int
}

func newJobTable(retention int) *jobTable {
	if retention <= 0 {
		retention = 500
	}
	return &jobTable{jobs: make(map[string]*Summary), retention: retention}
}

func (t *jobTable) add(s *Summary) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[s.JobID] = s
	t.order = append(t.order, s.JobID)
	t.prune()
}

// update applies fn to the job under the table lock.
func (t *jobTable) update(id string, fn func(*Summary)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.jobs[id]; ok {
		fn(s)
	}
	t.prune()
}

func (t *jobTable) get(id string) (*Summary, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.jobs[id]
	if !ok {
		return nil, false
	}
	return s.clone(), true
}

// list returns every job, newest first.
func (t *jobTable) list() []*Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Summary, 0, len(t.jobs))
	for _, s := range t.jobs {
		out = append(out, s.clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

func (t *jobTable) prune() {
	finished := 0
	for _, id := range t.order {
		if t.jobs[id].State.Final() {
			finished++
		}
	}
	if finished <= t.retention {
		return
	}

	kept := t.order[:0]
	for _, id := range t.order {
		if finished > t.retention && t.jobs[id].State.Final() {
			delete(t.jobs, id)
			finished--
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
}
