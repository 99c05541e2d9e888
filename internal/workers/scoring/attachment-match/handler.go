// internal/workers/scoring/attachment-match/handler.go
package attachmentmatch

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"leadgen-workers/internal/common/errors"
	"leadgen-workers/internal/common/genai"
	"leadgen-workers/internal/common/logger"
	"leadgen-workers/internal/common/metrics"
	"leadgen-workers/internal/models"
	"leadgen-workers/internal/scoring/attachment"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "match-attachments"
)

// KeywordExtractor is satisfied by genai.Client and by test fakes.
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, email models.EmailContent) ([]string, error)
}

type Handler struct {
	config    *Config
	db        *sql.DB
	redis     *redis.Client
	extractor KeywordExtractor
	logger    logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, extractor KeywordExtractor, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		db:        db,
		redis:     redisClient,
		extractor: extractor,
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
		code := string(errors.ErrCodeScoringFailed)
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
	if input.Email.Subject == "" && input.Email.Body == "" {
		return nil, errors.NewInvalidJobInputError("email subject or body is required")
	}

	materials := input.Materials
	if len(materials) == 0 && input.OwnerID != "" {
		loaded, err := h.getMaterials(ctx, input.OwnerID)
		if err != nil {
			return nil, err
		}
		materials = loaded
	}

	rec := attachment.MatchAttachments(ctx, input.Email, materials, h.cachedExtractor())
	if rec.Degraded {
		metrics.AttachmentMatchDegraded.Inc()
	}

	h.logger.Info("attachment matching done", map[string]interface{}{
		"leadId":         input.LeadID,
		"totalMaterials": rec.TotalMaterials,
		"matches":        len(rec.Matches),
		"degraded":       rec.Degraded,
	})

	return &Output{LeadID: input.LeadID, Recommendation: rec}, nil
}

// cachedExtractor wraps the AI extractor in a redis cache keyed on the email
// content, so re-runs of the same process instance do not spend another AI
// call. Cache failures fall through to the live call.
func (h *Handler) cachedExtractor() attachment.ExtractorFunc {
	if h.extractor == nil {
		return nil
	}

	return func(ctx context.Context, email models.EmailContent) ([]string, error) {
		cacheKey := keywordCacheKey(email)

		if h.redis != nil {
			if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
				var keywords []string
				if err := json.Unmarshal([]byte(cached), &keywords); err == nil && len(keywords) > 0 {
					h.logger.Debug("keyword cache hit", map[string]interface{}{"key": cacheKey})
					return keywords, nil
				}
			}
		}

		keywords, err := h.extractor.ExtractKeywords(ctx, email)
		if err != nil {
			reason := "extraction_failed"
			if err == genai.ErrExtractionTimeout {
				reason = "extraction_timeout"
			}
			metrics.KeywordExtractionFallbacks.WithLabelValues(reason).Inc()
			h.logger.Warn("keyword extraction failed, falling back to rules", map[string]interface{}{
				"error": err.Error(),
			})
			return nil, err
		}

		if h.redis != nil {
			if data, err := json.Marshal(keywords); err == nil {
				h.redis.Set(ctx, cacheKey, data, h.config.KeywordCacheTTL)
			}
		}

		return keywords, nil
	}
}

func keywordCacheKey(email models.EmailContent) string {
	sum := sha256.Sum256([]byte(email.Subject + "\n" + email.Body))
	return "keywords:" + hex.EncodeToString(sum[:16])
}

func (h *Handler) getMaterials(ctx context.Context, ownerID string) ([]models.Material, error) {
	query := `
		SELECT id, file_name, file_type, description, keywords, storage_key
		FROM materials
		WHERE owner_id = $1
		ORDER BY created_at DESC`

	rows, err := h.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewQueryTimeoutError("get_materials")
		}
		return nil, errors.NewQueryExecutionFailedError("get_materials", err)
	}
	defer rows.Close()

	var materials []models.Material
	for rows.Next() {
		var m models.Material
		var description, storageKey sql.NullString
		var keywordsRaw []byte
		if err := rows.Scan(&m.ID, &m.FileName, &m.FileType, &description, &keywordsRaw, &storageKey); err != nil {
			return nil, errors.NewQueryExecutionFailedError("get_materials", err)
		}
		m.Description = description.String
		m.StorageKey = storageKey.String
		if len(keywordsRaw) > 0 {
			if err := json.Unmarshal(keywordsRaw, &m.Keywords); err != nil {
				h.logger.Warn("material has malformed keywords", map[string]interface{}{
					"materialId": m.ID,
				})
			}
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_materials", err)
	}

	if len(materials) == 0 {
		return nil, errors.NewMaterialNotFoundError(ownerID)
	}

	return materials, nil
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
		"errorMessage": strings.TrimSpace(errorMessage),
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

// Execute runs the matching outside a Camunda job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
