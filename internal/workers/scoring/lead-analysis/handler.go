// internal/workers/scoring/lead-analysis/handler.go
package leadanalysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"leadgen-workers/internal/common/errors"
	"leadgen-workers/internal/common/logger"
	"leadgen-workers/internal/common/metrics"
	"leadgen-workers/internal/models"
	"leadgen-workers/internal/scoring/leadfit"
	"leadgen-workers/internal/scoring/report"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "lead-analysis-report"
)

// AlertPublisher is satisfied by aws.SNSClient.
type AlertPublisher interface {
	PublishToTopic(ctx context.Context, topicARN, subject, message string) (string, error)
}

type Handler struct {
	config    *Config
	db        *sql.DB
	redis     *redis.Client
	publisher AlertPublisher
	logger    logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, publisher AlertPublisher, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		db:        db,
		redis:     redisClient,
		publisher: publisher,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		code := string(errors.ErrCodeReportBuildFailed)
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
	if input.Scores != nil {
		scores = *input.Scores
	}

	analysisReport := report.BuildLeadAnalysisReport(*lead, scores, input.Similar, input.Criteria)

	output := &Output{Report: analysisReport}
	if h.shouldAlert(scores.Overall) {
		output.AlertPublished = h.publishHotLeadAlert(ctx, lead, scores)
	}

	h.logger.Info("analysis report built", map[string]interface{}{
		"leadId":         analysisReport.LeadID,
		"reportId":       analysisReport.ReportID,
		"overall":        scores.Overall,
		"alertPublished": output.AlertPublished,
	})

	return output, nil
}

func (h *Handler) shouldAlert(overall float64) bool {
	return h.publisher != nil &&
		h.config.HotLeadTopicARN != "" &&
		overall > h.config.HotLeadThreshold
}

// publishHotLeadAlert notifies sales about a high-scoring lead. A publish
// failure is logged but never fails the job; the report is still the result.
func (h *Handler) publishHotLeadAlert(ctx context.Context, lead *models.Lead, scores models.ScoreVector) bool {
	payload, err := json.Marshal(map[string]interface{}{
		"leadId":      lead.ID,
		"companyName": lead.CompanyName,
		"overall":     scores.Overall,
		"industry":    lead.Industry,
		"location":    lead.Location,
	})
	if err != nil {
		return false
	}

	subject := fmt.Sprintf("高分线索: %s", lead.CompanyName)
	messageID, err := h.publisher.PublishToTopic(ctx, h.config.HotLeadTopicARN, subject, string(payload))
	if err != nil {
		h.logger.Warn("hot lead alert failed", map[string]interface{}{
			"leadId": lead.ID,
			"error":  err.Error(),
		})
		return false
	}

	h.logger.Info("hot lead alert published", map[string]interface{}{
		"leadId":    lead.ID,
		"messageId": messageID,
	})
	return true
}

func (h *Handler) getLead(ctx context.Context, leadID string) (*models.Lead, error) {
	cacheKey := "lead:" + leadID

	if h.redis != nil {
		if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			var lead models.Lead
			if err := json.Unmarshal([]byte(cached), &lead); err == nil {
				return &lead, nil
			}
		}
	}

	query := `
		SELECT id, company_name, email, website, contact_person, phone,
		       description, industry, location, company_size,
		       match_reasons, discovery_confidence
		FROM leads
		WHERE id = $1`

	var lead models.Lead
	var email, website, contactPerson, phone, description, industry, location, companySize sql.NullString
	var matchReasons []byte
	var confidence sql.NullFloat64

	err := h.db.QueryRowContext(ctx, query, leadID).Scan(
		&lead.ID, &lead.CompanyName, &email, &website, &contactPerson, &phone,
		&description, &industry, &location, &companySize,
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
		_ = json.Unmarshal(matchReasons, &lead.MatchReasons)
	}
	if confidence.Valid {
		lead.DiscoveryConfidence = &confidence.Float64
	}

	if h.redis != nil {
		if data, err := json.Marshal(lead); err == nil {
			h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL)
		}
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

// Execute builds the report outside a Camunda job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
