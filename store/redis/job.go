package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	plangen "github.com/vapodego/aibabyapp-project-sub001"
	"github.com/vapodego/aibabyapp-project-sub001/id"
	"github.com/vapodego/aibabyapp-project-sub001/job"
)

// txRetries bounds the number of WATCH retries when a concurrent write
// aborts the transaction.
const txRetries = 5

// CreateJob stores a new job and adds it to the ID index.
func (s *Store) CreateJob(ctx context.Context, j *job.Job) error {
	jID := j.ID.String()
	blob, err := encodeJob(j)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, jobKey(jID), blob, 0).Result()
	if err != nil {
		return fmt.Errorf("plangen/redis: create job: %w", err)
	}
	if !ok {
		return plangen.ErrJobAlreadyExists
	}

	if err := s.client.SAdd(ctx, jobIDsKey, jID).Err(); err != nil {
		return fmt.Errorf("plangen/redis: create job index: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	blob, err := s.client.Get(ctx, jobKey(jobID.String())).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, plangen.ErrJobNotFound
		}
		return nil, fmt.Errorf("plangen/redis: get job: %w", err)
	}
	return decodeJob(blob)
}

// UpdateJob applies a partial update to a non-terminal job inside a
// WATCH transaction. A concurrent write aborts the transaction and the
// merge is retried against the fresh document.
func (s *Store) UpdateJob(ctx context.Context, jobID id.JobID, upd job.Update) error {
	return s.mutate(ctx, jobID, func(j *job.Job) error {
		if j.Status.Terminal() {
			return plangen.ErrJobTerminal
		}
		applyUpdate(j, upd)
		return nil
	})
}

// ClaimJob atomically moves a pending job to running at stage one. The
// WATCH transaction guarantees at most one caller wins the claim.
func (s *Store) ClaimJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	var claimed *job.Job
	err := s.mutate(ctx, jobID, func(j *job.Job) error {
		if j.Status != job.StatusPending {
			return plangen.ErrJobNotClaimable
		}
		j.Status = job.StatusRunning
		j.Stage = job.StageCalling
		claimed = j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// ListStalled returns non-terminal jobs not updated since the cutoff,
// oldest first.
func (s *Store) ListStalled(ctx context.Context, olderThan time.Duration) ([]*job.Job, error) {
	ids, err := s.client.SMembers(ctx, jobIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("plangen/redis: list stalled smembers: %w", err)
	}

	cutoff := time.Now().UTC().Add(-olderThan)
	var stalled []*job.Job
	for _, jID := range ids {
		blob, getErr := s.client.Get(ctx, jobKey(jID)).Bytes()
		if getErr != nil {
			continue // skip missing
		}
		j, decErr := decodeJob(blob)
		if decErr != nil {
			s.logger.Warn("skipping undecodable job", "job_id", jID, "error", decErr)
			continue
		}
		if j.Status.Terminal() {
			continue
		}
		if j.UpdatedAt.Before(cutoff) {
			stalled = append(stalled, j)
		}
	}

	sort.Slice(stalled, func(i, k int) bool {
		return stalled[i].UpdatedAt.Before(stalled[k].UpdatedAt)
	})
	return stalled, nil
}

// ── helpers ──

// mutate runs a read-modify-write cycle on one job under WATCH. The fn
// mutates the decoded job in place; a returned error aborts the write.
func (s *Store) mutate(ctx context.Context, jobID id.JobID, fn func(*job.Job) error) error {
	key := jobKey(jobID.String())

	txn := func(tx *goredis.Tx) error {
		blob, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				return plangen.ErrJobNotFound
			}
			return fmt.Errorf("plangen/redis: mutate get: %w", err)
		}

		j, err := decodeJob(blob)
		if err != nil {
			return err
		}
		if err := fn(j); err != nil {
			return err
		}
		j.UpdatedAt = time.Now().UTC()

		out, err := encodeJob(j)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	for i := 0; i < txRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("plangen/redis: mutate %s: transaction retries exhausted", jobID)
}

// applyUpdate merges a partial update into the job. Output and Error
// stay mutually exclusive.
func applyUpdate(j *job.Job, upd job.Update) {
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
}

type jobBlob struct {
	ID        string         `msgpack:"id"`
	Status    string         `msgpack:"status"`
	Stage     int            `msgpack:"stage"`
	Input     planInputBlob  `msgpack:"input"`
	Output    *outputBlob    `msgpack:"output,omitempty"`
	Error     *errorBlob     `msgpack:"error,omitempty"`
	Metrics   metricsBlob    `msgpack:"metrics"`
	CreatedAt time.Time      `msgpack:"created_at"`
	UpdatedAt time.Time      `msgpack:"updated_at"`
}

type planInputBlob struct {
	Origin         string   `msgpack:"origin"`
	StartDate      string   `msgpack:"start_date,omitempty"`
	EndDate        string   `msgpack:"end_date,omitempty"`
	Interests      []string `msgpack:"interests,omitempty"`
	ChildAgeMonths int      `msgpack:"child_age_months,omitempty"`
	Spots          []string `msgpack:"spots,omitempty"`
}

type outputBlob struct {
	Content     string    `msgpack:"content"`
	GeneratedAt time.Time `msgpack:"generated_at"`
}

type errorBlob struct {
	Code    string    `msgpack:"code"`
	Message string    `msgpack:"message"`
	At      time.Time `msgpack:"at"`
}

type metricsBlob struct {
	Attempts int `msgpack:"attempts"`
	Calls    int `msgpack:"calls"`
}

func encodeJob(j *job.Job) ([]byte, error) {
	b := jobBlob{
		ID:     j.ID.String(),
		Status: string(j.Status),
		Stage:  j.Stage,
		Input: planInputBlob{
			Origin:         j.Input.Origin,
			StartDate:      j.Input.StartDate,
			EndDate:        j.Input.EndDate,
			Interests:      j.Input.Interests,
			ChildAgeMonths: j.Input.ChildAgeMonths,
			Spots:          j.Input.Spots,
		},
		Metrics:   metricsBlob{Attempts: j.Metrics.Attempts, Calls: j.Metrics.Calls},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	if j.Output != nil {
		b.Output = &outputBlob{Content: j.Output.Content, GeneratedAt: j.Output.GeneratedAt}
	}
	if j.Error != nil {
		b.Error = &errorBlob{Code: j.Error.Code, Message: j.Error.Message, At: j.Error.At}
	}

	out, err := msgpack.Marshal(&b)
	if err != nil {
		return nil, fmt.Errorf("plangen/redis: encode job: %w", err)
	}
	return out, nil
}

func decodeJob(blob []byte) (*job.Job, error) {
	var b jobBlob
	if err := msgpack.Unmarshal(blob, &b); err != nil {
		return nil, fmt.Errorf("plangen/redis: decode job: %w", err)
	}

	parsedID, err := id.ParseJobID(b.ID)
	if err != nil {
		return nil, fmt.Errorf("plangen/redis: parse job id %q: %w", b.ID, err)
	}

	j := &job.Job{
		Entity: plangen.Entity{
			CreatedAt: b.CreatedAt,
			UpdatedAt: b.UpdatedAt,
		},
		ID:     parsedID,
		Status: job.Status(b.Status),
		Stage:  b.Stage,
		Input: job.PlanInput{
			Origin:         b.Input.Origin,
			StartDate:      b.Input.StartDate,
			EndDate:        b.Input.EndDate,
			Interests:      b.Input.Interests,
			ChildAgeMonths: b.Input.ChildAgeMonths,
			Spots:          b.Input.Spots,
		},
		Metrics: job.Metrics{Attempts: b.Metrics.Attempts, Calls: b.Metrics.Calls},
	}
	if b.Output != nil {
		j.Output = &job.PlanOutput{Content: b.Output.Content, GeneratedAt: b.Output.GeneratedAt}
	}
	if b.Error != nil {
		j.Error = &job.JobError{Code: b.Error.Code, Message: b.Error.Message, At: b.Error.At}
	}
	return j, nil
}
