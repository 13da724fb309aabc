package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	plangen "github.com/vapodego/aibabyapp-project-sub001"
	"github.com/vapodego/aibabyapp-project-sub001/id"
	"github.com/vapodego/aibabyapp-project-sub001/job"
)

// CreateJob persists a new job in pending state.
func (s *Store) CreateJob(ctx context.Context, j *job.Job) error {
	m := toJobModel(j)
	_, err := s.db.Collection(colJobs).InsertOne(ctx, m)
	if err != nil {
		if isDuplicateKey(err) {
			return plangen.ErrJobAlreadyExists
		}
		return fmt.Errorf("plangen/mongo: create job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	col := s.db.Collection(colJobs)
	var m jobModel
	err := col.FindOne(ctx, bson.M{"_id": jobID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, plangen.ErrJobNotFound
		}
		return nil, fmt.Errorf("plangen/mongo: get job: %w", err)
	}
	return fromJobModel(&m)
}

// UpdateJob applies a partial update to a non-terminal job. The filter
// excludes terminal documents, so a terminal job is never rewritten.
func (s *Store) UpdateJob(ctx context.Context, jobID id.JobID, upd job.Update) error {
	set := bson.M{"updated_at": now()}
	unset := bson.M{}

	if upd.Status != nil {
		set["status"] = string(*upd.Status)
	}
	if upd.Stage != nil {
		set["stage"] = *upd.Stage
	}
	if upd.Output != nil {
		set["output"] = toOutputModel(upd.Output)
		unset["error"] = ""
	}
	if upd.Error != nil {
		set["error"] = toErrorModel(upd.Error)
		unset["output"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if upd.AttemptsDelta != 0 || upd.CallsDelta != 0 {
		inc := bson.M{}
		if upd.AttemptsDelta != 0 {
			inc["metrics.attempts"] = upd.AttemptsDelta
		}
		if upd.CallsDelta != 0 {
			inc["metrics.calls"] = upd.CallsDelta
		}
		update["$inc"] = inc
	}

	filter := bson.M{
		"_id":    jobID.String(),
		"status": bson.M{"$nin": terminalStatuses},
	}

	col := s.db.Collection(colJobs)
	res, err := col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("plangen/mongo: update job: %w", err)
	}
	if res.MatchedCount == 0 {
		return s.missReason(ctx, jobID)
	}
	return nil
}

// ClaimJob atomically moves a pending job to running at stage one. The
// conditional update guarantees at most one caller wins the claim.
func (s *Store) ClaimJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	filter := bson.M{
		"_id":    jobID.String(),
		"status": string(job.StatusPending),
	}
	update := bson.M{
		"$set": bson.M{
			"status":     string(job.StatusRunning),
			"stage":      job.StageCalling,
			"updated_at": now(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	col := s.db.Collection(colJobs)
	var m jobModel
	err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, s.claimMissReason(ctx, jobID)
		}
		return nil, fmt.Errorf("plangen/mongo: claim job: %w", err)
	}
	return fromJobModel(&m)
}

// ListStalled returns non-terminal jobs not updated since the cutoff,
// oldest first.
func (s *Store) ListStalled(ctx context.Context, olderThan time.Duration) ([]*job.Job, error) {
	cutoff := now().Add(-olderThan)
	filter := bson.M{
		"status":     bson.M{"$nin": terminalStatuses},
		"updated_at": bson.M{"$lt": cutoff},
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}})

	col := s.db.Collection(colJobs)
	cursor, err := col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("plangen/mongo: list stalled: %w", err)
	}
	defer cursor.Close(ctx)

	var models []jobModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("plangen/mongo: list stalled decode: %w", err)
	}

	jobs := make([]*job.Job, 0, len(models))
	for i := range models {
		j, convErr := fromJobModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("plangen/mongo: list stalled convert: %w", convErr)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// missReason disambiguates an update that matched nothing: the job is
// either absent or already terminal.
func (s *Store) missReason(ctx context.Context, jobID id.JobID) error {
	col := s.db.Collection(colJobs)
	err := col.FindOne(ctx, bson.M{"_id": jobID.String()}).Err()
	if err != nil {
		if isNoDocuments(err) {
			return plangen.ErrJobNotFound
		}
		return fmt.Errorf("plangen/mongo: update miss lookup: %w", err)
	}
	return plangen.ErrJobTerminal
}

// claimMissReason disambiguates a claim that matched nothing: the job
// is either absent or no longer pending.
func (s *Store) claimMissReason(ctx context.Context, jobID id.JobID) error {
	col := s.db.Collection(colJobs)
	err := col.FindOne(ctx, bson.M{"_id": jobID.String()}).Err()
	if err != nil {
		if isNoDocuments(err) {
			return plangen.ErrJobNotFound
		}
		return fmt.Errorf("plangen/mongo: claim miss lookup: %w", err)
	}
	return plangen.ErrJobNotClaimable
}
