package job

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	input := PlanInput{Origin: "Shibuya, Tokyo", Interests: []string{"parks"}}
	j := New(input)

	if j.ID.IsNil() {
		t.Error("new job has nil id")
	}
	if j.Status != StatusPending {
		t.Errorf("status = %s, want pending", j.Status)
	}
	if j.Stage != StageCreated {
		t.Errorf("stage = %d, want 0", j.Stage)
	}
	if j.Output != nil || j.Error != nil {
		t.Error("new job carries output or error")
	}
	if j.Metrics.Attempts != 0 || j.Metrics.Calls != 0 {
		t.Errorf("metrics = %+v, want zero", j.Metrics)
	}
	if j.CreatedAt.IsZero() || j.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
	if j.Input.Origin != input.Origin {
		t.Errorf("origin = %q, want %q", j.Input.Origin, input.Origin)
	}
}

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusDone, true},
		{StatusError, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStatusCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusRunning, StatusDone, true},
		{StatusRunning, StatusError, true},
		{StatusPending, StatusDone, false},
		{StatusPending, StatusError, false},
		{StatusRunning, StatusPending, false},
		{StatusDone, StatusRunning, false},
		{StatusDone, StatusError, false},
		{StatusError, StatusRunning, false},
		{StatusError, StatusDone, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s → %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestPlanOutputValid(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"markdown title", "# Outing Plan\n\nDay 1.", true},
		{"leading whitespace", "\n\n  # Outing Plan\n", true},
		{"empty", "", false},
		{"whitespace only", "   \n\t ", false},
		{"no marker", "Outing Plan\n", false},
		{"marker not first", "preamble\n# Outing Plan\n", false},
		{"hash without space", "#Outing Plan\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := PlanOutput{Content: tt.content, GeneratedAt: now}
			if got := o.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
