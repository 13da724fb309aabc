package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	plangen "github.com/vapodego/aibabyapp-project-sub001"
	"github.com/vapodego/aibabyapp-project-sub001/event"
	"github.com/vapodego/aibabyapp-project-sub001/id"
	"github.com/vapodego/aibabyapp-project-sub001/job"
)

// SubmitRequest is the plan submission payload.
type SubmitRequest struct {
	Origin         string   `json:"origin" binding:"required"`
	StartDate      string   `json:"startDate"`
	EndDate        string   `json:"endDate"`
	Interests      []string `json:"interests"`
	ChildAgeMonths int      `json:"childAgeMonths"`
}

// SubmitResponse acknowledges an accepted submission.
type SubmitResponse struct {
	JobID    string `json:"jobId"`
	Status   string `json:"status"`
	CheckRef string `json:"checkRef"`
}

// StatusResponse reports the current state of a job.
type StatusResponse struct {
	JobID     string         `json:"jobId"`
	Status    job.Status     `json:"status"`
	Stage     int            `json:"stage"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	HasOutput bool           `json:"hasOutput"`
	Error     *job.JobError  `json:"error,omitempty"`
	Metrics   job.Metrics    `json:"metrics"`
}

// submitJob validates the submission, resolves eligible spots, creates
// the pending job, and publishes the dispatch event. A publish failure
// leaves the job pending for the liveness sweeper to report.
func (a *API) submitJob(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := job.PlanInput{
		Origin:         req.Origin,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Interests:      req.Interests,
		ChildAgeMonths: req.ChildAgeMonths,
	}

	spots, err := a.resolver.Resolve(c.Request.Context(), input)
	if err != nil {
		a.logger.Error("spot resolution failed", "origin", req.Origin, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "spot resolution failed"})
		return
	}
	if len(spots) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no eligible spots for this submission"})
		return
	}
	for _, s := range spots {
		input.Spots = append(input.Spots, s.Name)
	}

	j := job.New(input)
	if err := a.store.CreateJob(c.Request.Context(), j); err != nil {
		a.logger.Error("job creation failed", "job_id", j.ID.String(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "job creation failed"})
		return
	}

	if err := a.bus.Publish(event.JobCreated{JobID: j.ID}); err != nil {
		a.logger.Warn("dispatch publish failed, job stays pending",
			"job_id", j.ID.String(), "error", err)
	}

	c.JSON(http.StatusAccepted, SubmitResponse{
		JobID:    j.ID.String(),
		Status:   "accepted",
		CheckRef: "/jobs?jobId=" + j.ID.String(),
	})
}

// getJob returns the job's status document, or the raw markdown plan
// when format=raw is requested and the job is done.
func (a *API) getJob(c *gin.Context) {
	raw := c.Query("jobId")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "jobId is required"})
		return
	}
	jobID, err := id.ParseJobID(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	j, err := a.store.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, plangen.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		a.logger.Error("job lookup failed", "job_id", jobID.String(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "job lookup failed"})
		return
	}

	if c.Query("format") == "raw" && j.Status == job.StatusDone && j.Output != nil {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(j.Output.Content))
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		JobID:     j.ID.String(),
		Status:    j.Status,
		Stage:     j.Stage,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
		HasOutput: j.Output != nil,
		Error:     j.Error,
		Metrics:   j.Metrics,
	})
}
