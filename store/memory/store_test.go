package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	plangen "github.com/vapodego/aibabyapp-project-sub001"
	"github.com/vapodego/aibabyapp-project-sub001/id"
	"github.com/vapodego/aibabyapp-project-sub001/job"
)

func TestLifecycle(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func() error
	}{
		{"Migrate", func() error { return s.Migrate(ctx) }},
		{"Ping", func() error { return s.Ping(ctx) }},
		{"Close", func() error { return s.Close() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); err != nil {
				t.Fatalf("%s returned error: %v", tt.name, err)
			}
		})
	}
}

func newJob() *job.Job {
	return job.New(job.PlanInput{
		Origin:    "Shibuya, Tokyo",
		Interests: []string{"parks"},
	})
}

func TestCreateAndGet(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	j := newJob()

	if err := s.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}
	if err := s.CreateJob(ctx, j); !errors.Is(err, plangen.ErrJobAlreadyExists) {
		t.Fatalf("duplicate CreateJob err = %v, want ErrJobAlreadyExists", err)
	}

	got, err := s.GetJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetJob returned error: %v", err)
	}
	if got.Status != job.StatusPending || got.Stage != job.StageCreated {
		t.Errorf("stored job = %s/%d, want pending/0", got.Status, got.Stage)
	}

	if _, err := s.GetJob(ctx, id.NewJobID()); !errors.Is(err, plangen.ErrJobNotFound) {
		t.Errorf("GetJob for unknown id err = %v, want ErrJobNotFound", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	j := newJob()
	if err := s.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}

	first, _ := s.GetJob(ctx, j.ID)
	first.Status = job.StatusError

	second, _ := s.GetJob(ctx, j.ID)
	if second.Status != job.StatusPending {
		t.Error("mutating a returned job leaked into the store")
	}
}

func TestUpdateJob(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	j := newJob()
	if err := s.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}

	before, _ := s.GetJob(ctx, j.ID)

	upd := job.Update{
		Status:     job.StatusPtr(job.StatusRunning),
		Stage:      job.StagePtr(job.StageCalling),
		CallsDelta: 2,
	}
	if err := s.UpdateJob(ctx, j.ID, upd); err != nil {
		t.Fatalf("UpdateJob returned error: %v", err)
	}

	got, _ := s.GetJob(ctx, j.ID)
	if got.Status != job.StatusRunning {
		t.Errorf("status = %s, want running", got.Status)
	}
	if got.Stage != job.StageCalling {
		t.Errorf("stage = %d, want 1", got.Stage)
	}
	if got.Metrics.Calls != 2 {
		t.Errorf("calls = %d, want 2", got.Metrics.Calls)
	}
	if !got.UpdatedAt.After(before.UpdatedAt) && !got.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("UpdatedAt went backwards")
	}

	if err := s.UpdateJob(ctx, id.NewJobID(), upd); !errors.Is(err, plangen.ErrJobNotFound) {
		t.Errorf("UpdateJob for unknown id err = %v, want ErrJobNotFound", err)
	}
}

func TestUpdateJobTerminalGuard(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	j := newJob()
	if err := s.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}

	done := job.Update{
		Status: job.StatusPtr(job.StatusDone),
		Stage:  job.StagePtr(job.StageComplete),
		Output: &job.PlanOutput{Content: "# Plan\n", GeneratedAt: time.Now().UTC()},
	}
	if err := s.UpdateJob(ctx, j.ID, done); err != nil {
		t.Fatalf("UpdateJob returned error: %v", err)
	}

	again := job.Update{Status: job.StatusPtr(job.StatusError)}
	if err := s.UpdateJob(ctx, j.ID, again); !errors.Is(err, plangen.ErrJobTerminal) {
		t.Fatalf("update of terminal job err = %v, want ErrJobTerminal", err)
	}

	got, _ := s.GetJob(ctx, j.ID)
	if got.Status != job.StatusDone {
		t.Errorf("terminal job status mutated to %s", got.Status)
	}
}

func TestUpdateJobOutputClearsError(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	j := newJob()
	j.Error = &job.JobError{Code: job.ErrCodeRequestFailed, Message: "boom"}
	if err := s.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}

	upd := job.Update{
		Status: job.StatusPtr(job.StatusDone),
		Output: &job.PlanOutput{Content: "# Plan\n", GeneratedAt: time.Now().UTC()},
	}
	if err := s.UpdateJob(ctx, j.ID, upd); err != nil {
		t.Fatalf("UpdateJob returned error: %v", err)
	}

	got, _ := s.GetJob(ctx, j.ID)
	if got.Error != nil {
		t.Error("writing output did not clear the error field")
	}
	if got.Output == nil {
		t.Fatal("output missing after update")
	}
}

func TestClaimJob(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	j := newJob()
	if err := s.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}

	claimed, err := s.ClaimJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("ClaimJob returned error: %v", err)
	}
	if claimed.Status != job.StatusRunning || claimed.Stage != job.StageCalling {
		t.Errorf("claimed job = %s/%d, want running/1", claimed.Status, claimed.Stage)
	}

	if _, err := s.ClaimJob(ctx, j.ID); !errors.Is(err, plangen.ErrJobNotClaimable) {
		t.Errorf("second claim err = %v, want ErrJobNotClaimable", err)
	}

	if _, err := s.ClaimJob(ctx, id.NewJobID()); !errors.Is(err, plangen.ErrJobNotFound) {
		t.Errorf("claim of unknown id err = %v, want ErrJobNotFound", err)
	}
}

func TestListStalled(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	fresh := newJob()
	if err := s.CreateJob(ctx, fresh); err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}

	old := newJob()
	old.CreatedAt = time.Now().UTC().Add(-time.Hour)
	old.UpdatedAt = old.CreatedAt
	if err := s.CreateJob(ctx, old); err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}

	terminal := newJob()
	terminal.CreatedAt = time.Now().UTC().Add(-time.Hour)
	terminal.UpdatedAt = terminal.CreatedAt
	terminal.Status = job.StatusError
	terminal.Error = &job.JobError{Code: job.ErrCodeRequestFailed, Message: "boom"}
	if err := s.CreateJob(ctx, terminal); err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}

	stalled, err := s.ListStalled(ctx, 10*time.Minute)
	if err != nil {
		t.Fatalf("ListStalled returned error: %v", err)
	}
	if len(stalled) != 1 {
		t.Fatalf("stalled count = %d, want 1", len(stalled))
	}
	if stalled[0].ID != old.ID {
		t.Errorf("stalled job = %s, want %s", stalled[0].ID, old.ID)
	}
}
