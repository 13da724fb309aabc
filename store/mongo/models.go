package mongo

import (
	"fmt"
	"time"

	plangen "github.com/vapodego/aibabyapp-project-sub001"
	"github.com/vapodego/aibabyapp-project-sub001/id"
	"github.com/vapodego/aibabyapp-project-sub001/job"
)

type jobModel struct {
	ID        string           `bson:"_id"`
	Status    string           `bson:"status"`
	Stage     int              `bson:"stage"`
	Input     planInputModel   `bson:"input"`
	Output    *planOutputModel `bson:"output,omitempty"`
	Error     *jobErrorModel   `bson:"error,omitempty"`
	Metrics   metricsModel     `bson:"metrics"`
	CreatedAt time.Time        `bson:"created_at"`
	UpdatedAt time.Time        `bson:"updated_at"`
}

type planInputModel struct {
	Origin         string   `bson:"origin"`
	StartDate      string   `bson:"start_date,omitempty"`
	EndDate        string   `bson:"end_date,omitempty"`
	Interests      []string `bson:"interests,omitempty"`
	ChildAgeMonths int      `bson:"child_age_months,omitempty"`
	Spots          []string `bson:"spots,omitempty"`
}

type planOutputModel struct {
	Content     string    `bson:"content"`
	GeneratedAt time.Time `bson:"generated_at"`
}

type jobErrorModel struct {
	Code    string    `bson:"code"`
	Message string    `bson:"message"`
	At      time.Time `bson:"at"`
}

type metricsModel struct {
	Attempts int `bson:"attempts"`
	Calls    int `bson:"calls"`
}

func toJobModel(j *job.Job) *jobModel {
	m := &jobModel{
		ID:     j.ID.String(),
		Status: string(j.Status),
		Stage:  j.Stage,
		Input: planInputModel{
			Origin:         j.Input.Origin,
			StartDate:      j.Input.StartDate,
			EndDate:        j.Input.EndDate,
			Interests:      j.Input.Interests,
			ChildAgeMonths: j.Input.ChildAgeMonths,
			Spots:          j.Input.Spots,
		},
		Metrics: metricsModel{
			Attempts: j.Metrics.Attempts,
			Calls:    j.Metrics.Calls,
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	if j.Output != nil {
		m.Output = toOutputModel(j.Output)
	}
	if j.Error != nil {
		m.Error = toErrorModel(j.Error)
	}
	return m
}

func fromJobModel(m *jobModel) (*job.Job, error) {
	parsedID, err := id.ParseJobID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("plangen/mongo: parse job id %q: %w", m.ID, err)
	}

	j := &job.Job{
		Entity: plangen.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:     parsedID,
		Status: job.Status(m.Status),
		Stage:  m.Stage,
		Input: job.PlanInput{
			Origin:         m.Input.Origin,
			StartDate:      m.Input.StartDate,
			EndDate:        m.Input.EndDate,
			Interests:      m.Input.Interests,
			ChildAgeMonths: m.Input.ChildAgeMonths,
			Spots:          m.Input.Spots,
		},
		Metrics: job.Metrics{
			Attempts: m.Metrics.Attempts,
			Calls:    m.Metrics.Calls,
		},
	}

	if m.Output != nil {
		j.Output = &job.PlanOutput{
			Content:     m.Output.Content,
			GeneratedAt: m.Output.GeneratedAt,
		}
	}
	if m.Error != nil {
		j.Error = &job.JobError{
			Code:    m.Error.Code,
			Message: m.Error.Message,
			At:      m.Error.At,
		}
	}

	return j, nil
}

func toOutputModel(o *job.PlanOutput) *planOutputModel {
	return &planOutputModel{
		Content:     o.Content,
		GeneratedAt: o.GeneratedAt,
	}
}

func toErrorModel(e *job.JobError) *jobErrorModel {
	return &jobErrorModel{
		Code:    e.Code,
		Message: e.Message,
		At:      e.At,
	}
}
