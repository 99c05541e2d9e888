// internal/workers/scoring/similar-leads/handler.go
package similarleads

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"leadgen-workers/internal/common/errors"
	"leadgen-workers/internal/common/logger"
	"leadgen-workers/internal/common/metrics"
	"leadgen-workers/internal/models"
	"leadgen-workers/internal/scoring/similarity"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	TaskType = "find-similar-leads"
)

type Handler struct {
	config *Config
	es     *elasticsearch.Client
	logger logger.Logger
}

func NewHandler(config *Config, es *elasticsearch.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		es:     es,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		code := string(errors.ErrCodeSimilaritySearchFailed)
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
	if input.Target.ID == "" && input.Target.CompanyName == "" {
		return nil, errors.NewInvalidJobInputError("target lead is required")
	}

	pool := input.Pool
	if len(pool) == 0 {
		fetched, err := h.searchCandidates(ctx, input.Target)
		if err != nil {
			return nil, err
		}
		pool = fetched
	}

	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = h.config.MaxResultsDefault
	}
	similar := similarity.FindSimilar(input.Target, pool, maxResults)

	h.logger.Info("similar leads computed", map[string]interface{}{
		"targetId":  input.Target.ID,
		"poolSize":  len(pool),
		"resultLen": len(similar),
	})

	return &Output{
		TargetID: input.Target.ID,
		Similar:  similar,
		PoolSize: len(pool),
	}, nil
}

// searchCandidates pulls a rough candidate set from the leads index. The query
// only needs recall, the in-process similarity ranking does the precision work.
func (h *Handler) searchCandidates(ctx context.Context, target models.Lead) ([]models.Lead, error) {
	should := []interface{}{}
	if target.Industry != "" {
		should = append(should, map[string]interface{}{
			"match": map[string]interface{}{"industry": target.Industry},
		})
	}
	if target.Location != "" {
		should = append(should, map[string]interface{}{
			"match": map[string]interface{}{"location": target.Location},
		})
	}
	if target.Description != "" {
		should = append(should, map[string]interface{}{
			"match": map[string]interface{}{"description": target.Description},
		})
	}

	boolQuery := map[string]interface{}{
		"should":               should,
		"minimum_should_match": 1,
	}
	if target.ID != "" {
		boolQuery["must_not"] = []interface{}{
			map[string]interface{}{
				"term": map[string]interface{}{"_id": target.ID},
			},
		}
	}

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	}
	body, _ := json.Marshal(queryBody)

	size := h.config.CandidatePoolSize
	req := esapi.SearchRequest{
		Index: []string{h.config.LeadsIndex},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, h.es)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewSearchTimeoutError("similar_leads")
		}
		return nil, errors.NewSimilaritySearchFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == 404 {
			return nil, errors.NewIndexNotFoundError(h.config.LeadsIndex)
		}
		return nil, errors.NewSimilaritySearchFailedError(fmt.Errorf("search status %s", res.Status()))
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				ID     string      `json:"_id"`
				Source models.Lead `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, errors.NewSimilaritySearchFailedError(err)
	}

	leads := make([]models.Lead, 0, len(searchResult.Hits.Hits))
	for _, hit := range searchResult.Hits.Hits {
		lead := hit.Source
		if lead.ID == "" {
			lead.ID = hit.ID
		}
		leads = append(leads, lead)
	}

	return leads, nil
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

// Execute runs the similarity search outside a Camunda job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
