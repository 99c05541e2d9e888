// internal/workers/scoring/lead-score/handler.go
package leadscore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"leadgen-workers/internal/common/errors"
	"leadgen-workers/internal/common/logger"
	"leadgen-workers/internal/common/metrics"
	"leadgen-workers/internal/common/validation"
	"leadgen-workers/internal/models"
	"leadgen-workers/internal/scoring/leadfit"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "score-lead"
)

type Handler struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		redis:  redisClient,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// GetInputSchema describes the job variables this worker accepts.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"leadId":   {Type: "string"},
			"lead":     {Type: "object"},
			"criteria": {Type: "object"},
		},
		AdditionalProperties: true,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var rawVars map[string]interface{}
	if err := json.Unmarshal([]byte(job.Variables), &rawVars); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse variables: %v", err))
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "PARSE_ERROR").Inc()
		return
	}
	if result := validation.ValidateInput(rawVars, GetInputSchema()); !result.Valid {
		h.failJob(client, job, string(errors.ErrCodeInvalidJobInput), strings.Join(result.GetErrorMessages(), "; "))
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.ErrCodeInvalidJobInput)).Inc()
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "PARSE_ERROR").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		code := "SCORING_FAILED"
		if stdErr, ok := err.(*errors.StandardError); ok {
			code = string(stdErr.Code)
		}
		h.failJob(client, job, code, err.Error())
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	lead := input.Lead
	if lead == nil {
		if input.LeadID == "" {
			return nil, errors.NewInvalidJobInputError("either lead or leadId is required")
		}
		fetched, err := h.getLead(ctx, input.LeadID)
		if err != nil {
			return nil, err
		}
		lead = fetched
	}

	scores := leadfit.Score(*lead, input.Criteria)

	h.logger.Info("lead scored", map[string]interface{}{
		"leadId":  lead.ID,
		"overall": scores.Overall,
	})

	return &Output{
		LeadID: lead.ID,
		Scores: scores,
	}, nil
}

func (h *Handler) getLead(ctx context.Context, leadID string) (*models.Lead, error) {
	cacheKey := "lead:" + leadID
	if h.redis != nil {
		if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			var lead models.Lead
			if err := json.Unmarshal([]byte(val), &lead); err == nil {
				return &lead, nil
			}
		}
	}

	row := h.db.QueryRowContext(ctx, `
		SELECT id, company_name, email, website, contact_person, phone,
		       description, industry, location, company_size,
		       match_reasons, discovery_confidence
		FROM leads WHERE id = $1`, leadID)

	var lead models.Lead
	var email, website, contactPerson, phone, description, industry, location, companySize sql.NullString
	var matchReasons []byte
	var confidence sql.NullFloat64
	err := row.Scan(
		&lead.ID, &lead.CompanyName, &email, &website,
		&contactPerson, &phone, &description,
		&industry, &location, &companySize,
		&matchReasons, &confidence,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewLeadNotFoundError(leadID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_lead", err)
	}

	lead.Email = email.String
	lead.Website = website.String
	lead.ContactPerson = contactPerson.String
	lead.Phone = phone.String
	lead.Description = description.String
	lead.Industry = industry.String
	lead.Location = location.String
	lead.CompanySize = companySize.String
	if len(matchReasons) > 0 {
		if err := json.Unmarshal(matchReasons, &lead.MatchReasons); err != nil {
			lead.MatchReasons = nil
		}
	}
	if confidence.Valid {
		lead.DiscoveryConfidence = &confidence.Float64
	}

	if h.redis != nil {
		data, _ := json.Marshal(lead)
		h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL)
	}

	return &lead, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

// Execute runs the scoring outside a Camunda job, for direct and test usage.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
