package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/medreport/internal/jobs"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, j := range []*jobs.DocumentJob{
		{JobID: "a", DocumentID: "d1", Status: jobs.JobStatusCompleted, CreatedAt: base},
		{JobID: "b", DocumentID: "d1", Status: jobs.JobStatusFailed, CreatedAt: base.Add(time.Minute)},
		{JobID: "c", DocumentID: "d2", Status: jobs.JobStatusQueued, CreatedAt: base.Add(2 * time.Minute)},
	} {
		if err := s.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob(%d) error = %v", i, err)
		}
	}

	if err := s.SaveJob(ctx, &jobs.DocumentJob{}); !errors.Is(err, ErrJobIDRequired) {
		t.Errorf("SaveJob without ID error = %v, want ErrJobIDRequired", err)
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all newest first", jobs.JobFilter{}, []string{"c", "b", "a"}},
		{"by document", jobs.JobFilter{DocumentID: "d1"}, []string{"b", "a"}},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusQueued}, []string{"c"}},
		{"limit", jobs.JobFilter{Limit: 1}, []string{"c"}},
		{"offset", jobs.JobFilter{Offset: 2}, []string{"a"}},
		{"offset past end", jobs.JobFilter{Offset: 5}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d jobs, want %d", len(got), len(tt.want))
			}
			for i, j := range got {
				if j.JobID != tt.want[i] {
					t.Errorf("job %d = %s, want %s", i, j.JobID, tt.want[i])
				}
			}
		})
	}

	if err := s.UpdateJobStatus(ctx, "c", jobs.JobStatusFailed, "boom"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetJob(ctx, "c")
	if got.Status != jobs.JobStatusFailed || got.Error != "boom" || got.CompletedAt == nil {
		t.Errorf("after update = %+v", got)
	}

	got.Status = jobs.JobStatusCompleted
	again, _ := s.GetJob(ctx, "c")
	if again.Status != jobs.JobStatusFailed {
		t.Error("GetJob must return a copy")
	}

	if _, err := s.GetJob(ctx, "zzz"); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("GetJob(zzz) error = %v, want ErrJobNotFound", err)
	}
	if err := s.UpdateJobStatus(ctx, "zzz", jobs.JobStatusFailed, ""); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("UpdateJobStatus(zzz) error = %v, want ErrJobNotFound", err)
	}
}

func TestStore_MovingJobBetweenDocuments(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	job := &jobs.DocumentJob{JobID: "j", DocumentID: "d1", Status: jobs.JobStatusQueued}
	if err := s.SaveJob(ctx, job); err != nil {
		t.Fatal(err)
	}
	job.DocumentID = "d2"
	if err := s.SaveJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	if got, _ := s.ListJobs(ctx, jobs.JobFilter{DocumentID: "d1"}); len(got) != 0 {
		t.Errorf("d1 jobs = %d, want 0", len(got))
	}
	if got, _ := s.ListJobs(ctx, jobs.JobFilter{DocumentID: "d2"}); len(got) != 1 {
		t.Errorf("d2 jobs = %d, want 1", len(got))
	}

	if err := s.UpdateJobStatus(ctx, "j", jobs.JobStatusProcessing, ""); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetJob(ctx, "j")
	if got.StartedAt == nil || got.CompletedAt != nil {
		t.Errorf("after processing = %+v", got)
	}
}
