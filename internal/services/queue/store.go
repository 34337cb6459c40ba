package queue

import (
	"sort"
	"sync"
	"time"

	"github.com/phambaophuc/otsu-watermark/internal/models"
)

// JobStore keeps job status for the lifetime of the process.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]models.ProcessingJob
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]models.ProcessingJob)}
}

// Put records job as given, stamping UpdatedAt.
func (s *JobStore) Put(job *models.ProcessingJob) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job.UpdatedAt = time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = job.UpdatedAt
	}
	s.jobs[job.ID] = *job
}

// Get returns a copy of the job.
func (s *JobStore) Get(id string) (models.ProcessingJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	return job, ok
}

// Counts returns the number of jobs in each status.
func (s *JobStore) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, job := range s.jobs {
		counts[job.Status]++
	}
	return counts
}

// InFlight returns the jobs currently processing, oldest first.
func (s *JobStore) InFlight() []models.ProcessingJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ProcessingJob
	for _, job := range s.jobs {
		if job.Status == models.StatusProcessing {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out
}
