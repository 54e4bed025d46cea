package inmemory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/medreport/internal/jobs"
)

// ErrJobIDRequired is returned when saving a job without an ID.
var ErrJobIDRequired = errors.New("job ID is required")

// Store keeps jobs in memory, indexed by ID and by document. Jobs are lost
// on restart.
type Store struct {
	mu         sync.RWMutex
	jobs       map[string]*jobs.DocumentJob
	byDocument map[string][]string
}

func NewStore() *Store {
	return &Store{
		jobs:       make(map[string]*jobs.DocumentJob),
		byDocument: make(map[string][]string),
	}
}

// SaveJob stores a copy of job, replacing any earlier version.
func (s *Store) SaveJob(ctx context.Context, job *jobs.DocumentJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: %w", ErrJobIDRequired)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.jobs[job.JobID]; ok && prev.DocumentID != job.DocumentID {
		s.unindex(prev)
	}
	if ids := s.byDocument[job.DocumentID]; !slices.Contains(ids, job.JobID) {
		s.byDocument[job.DocumentID] = append(ids, job.JobID)
	}
	stored := *job
	s.jobs[job.JobID] = &stored
	return nil
}

func (s *Store) unindex(job *jobs.DocumentJob) {
	ids := s.byDocument[job.DocumentID]
	if i := slices.Index(ids, job.JobID); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	}
	if len(ids) == 0 {
		delete(s.byDocument, job.DocumentID)
		return
	}
	s.byDocument[job.DocumentID] = ids
}

// GetJob returns a copy of the job.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.DocumentJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("GetJob: %w: %s", jobs.ErrJobNotFound, jobID)
	}
	out := *job
	return &out, nil
}

// ListJobs returns copies of the matching jobs, newest first. Offset and
// Limit apply after sorting.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.DocumentJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []*jobs.DocumentJob
	if filter.DocumentID != "" {
		for _, id := range s.byDocument[filter.DocumentID] {
			candidates = append(candidates, s.jobs[id])
		}
	} else {
		for _, job := range s.jobs {
			candidates = append(candidates, job)
		}
	}

	result := []*jobs.DocumentJob{}
	for _, job := range candidates {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		out := *job
		result = append(result, &out)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].JobID < result[j].JobID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset >= len(result) && filter.Offset > 0 {
		return []*jobs.DocumentJob{}, nil
	}
	result = result[max(filter.Offset, 0):]
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// UpdateJobStatus sets the status of a stored job. Moving to processing
// stamps StartedAt once; completed and failed stamp CompletedAt. An empty
// errorMsg keeps the previous error.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("UpdateJobStatus: %w: %s", jobs.ErrJobNotFound, jobID)
	}
	now := time.Now().UTC()
	switch status {
	case jobs.JobStatusProcessing:
		if job.StartedAt == nil {
			job.StartedAt = &now
		}
	case jobs.JobStatusCompleted, jobs.JobStatusFailed:
		job.CompletedAt = &now
	}
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	return nil
}

var _ jobs.JobStore = (*Store)(nil)
