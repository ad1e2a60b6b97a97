package job

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRegistry is an in-process Registry backed by a mutex-guarded map.
// Suitable for single-process deployments and tests; production setups can
// substitute the sqlite-backed registry behind the same interface.
type MemoryRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{jobs: make(map[string]*Job)}
}

func (r *MemoryRegistry) Create(_ context.Context, j *Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[j.ID]; exists {
		return fmt.Errorf("job %s already exists", j.ID)
	}
	clone := *j
	r.jobs[j.ID] = &clone
	return nil
}

func (r *MemoryRegistry) Get(_ context.Context, id string) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	clone := *j
	return &clone, nil
}

func (r *MemoryRegistry) MarkProcessing(_ context.Context, id string) error {
	return r.update(id, func(j *Job) error {
		return transition(j, StatusProcessing)
	})
}

func (r *MemoryRegistry) UpdateProgress(_ context.Context, id string, progress float64) error {
	return r.update(id, func(j *Job) error {
		if progress > j.Progress {
			j.Progress = progress
		}
		return nil
	})
}

func (r *MemoryRegistry) SetSourceLanguage(_ context.Context, id, lang string) error {
	return r.update(id, func(j *Job) error {
		j.SourceLanguage = lang
		return nil
	})
}

func (r *MemoryRegistry) Complete(_ context.Context, id, downloadURL string, details *ProcessingDetails) error {
	return r.update(id, func(j *Job) error {
		if err := transition(j, StatusCompleted); err != nil {
			return err
		}
		j.Progress = 1.0
		j.DownloadURL = downloadURL
		j.Details = details
		return nil
	})
}

func (r *MemoryRegistry) Fail(_ context.Context, id, errorMessage string) error {
	return r.update(id, func(j *Job) error {
		if err := transition(j, StatusFailed); err != nil {
			return err
		}
		j.ErrorMessage = errorMessage
		return nil
	})
}

func (r *MemoryRegistry) List(_ context.Context, owner string) ([]*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Job
	for _, j := range r.jobs {
		if owner != "" && j.Owner != owner {
			continue
		}
		clone := *j
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, k int) bool {
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRegistry) Delete(_ context.Context, id, requestingOwner string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Owner != requestingOwner {
		return false, nil
	}
	delete(r.jobs, id)
	return true, nil
}

func (r *MemoryRegistry) update(id string, fn func(*Job) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	if err := fn(j); err != nil {
		return err
	}
	j.UpdatedAt = time.Now()
	return nil
}

// transition enforces monotonic status changes. Terminal states are frozen:
// a completed job can never fail and a failed job can never complete.
func transition(j *Job, next Status) error {
	if j.Status.Terminal() || statusRank[next] < statusRank[j.Status] {
		return fmt.Errorf("illegal status transition %s -> %s", j.Status, next)
	}
	j.Status = next
	return nil
}
