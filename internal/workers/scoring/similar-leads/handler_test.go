// internal/workers/scoring/similar-leads/handler_test.go
package similarleads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leadgen-workers/internal/common/errors"
	"leadgen-workers/internal/common/logger"
	"leadgen-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

func createTestConfig() *Config {
	return &Config{
		LeadsIndex:        "leads",
		CandidatePoolSize: 50,
		MaxResultsDefault: 5,
		Timeout:           5 * time.Second,
	}
}

func targetLead() models.Lead {
	return models.Lead{
		ID:          "lead-1",
		CompanyName: "云启科技",
		Industry:    "科技",
		Location:    "北京",
		CompanySize: "11-50人",
		Website:     "https://yunqi.tech",
		Description: "企业流程自动化平台",
	}
}

func TestExecute_WithInlinePool(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, newTestLogger(t))

	pool := []models.Lead{
		{
			ID:          "lead-2",
			CompanyName: "云启科技分公司",
			Industry:    "科技",
			Location:    "北京",
			CompanySize: "11-50人",
			Website:     "https://cloud.yunqi.tech",
		},
		{
			ID:          "lead-3",
			CompanyName: "东北重工",
			Industry:    "制造",
			Location:    "沈阳",
			CompanySize: "1000人以上",
		},
	}

	output, err := handler.Execute(context.Background(), &Input{
		Target: targetLead(),
		Pool:   pool,
	})

	require.NoError(t, err)
	assert.Equal(t, "lead-1", output.TargetID)
	assert.Equal(t, 2, output.PoolSize)
	require.Len(t, output.Similar, 1)
	assert.Equal(t, "lead-2", output.Similar[0].Lead.ID)
	assert.Greater(t, output.Similar[0].Similarity, 0.3)
}

func TestExecute_ConfiguredResultCapApplies(t *testing.T) {
	cfg := createTestConfig()
	cfg.MaxResultsDefault = 2
	handler := NewHandler(cfg, nil, newTestLogger(t))

	var pool []models.Lead
	for _, id := range []string{"lead-2", "lead-3", "lead-4", "lead-5"} {
		pool = append(pool, models.Lead{
			ID:          id,
			CompanyName: "云启科技" + id,
			Industry:    "科技",
			Location:    "北京",
			CompanySize: "11-50人",
		})
	}

	// no maxResults in the input, the worker config cap takes over
	output, err := handler.Execute(context.Background(), &Input{
		Target: targetLead(),
		Pool:   pool,
	})

	require.NoError(t, err)
	assert.Len(t, output.Similar, 2)

	// an explicit input value still wins over the config default
	output, err = handler.Execute(context.Background(), &Input{
		Target:     targetLead(),
		Pool:       pool,
		MaxResults: 3,
	})

	require.NoError(t, err)
	assert.Len(t, output.Similar, 3)
}

func TestExecute_PoolExcludesTarget(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, newTestLogger(t))

	target := targetLead()
	output, err := handler.Execute(context.Background(), &Input{
		Target: target,
		Pool:   []models.Lead{target},
	})

	require.NoError(t, err)
	assert.Empty(t, output.Similar)
}

func TestExecute_MissingTarget(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, newTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{})
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidJobInput, stdErr.Code)
}

func TestExecute_FetchesCandidatesFromElasticsearch(t *testing.T) {
	var capturedQuery map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&capturedQuery))

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"hits": {
				"hits": [
					{
						"_id": "lead-2",
						"_source": {
							"companyName": "云启科技分公司",
							"industry": "科技",
							"location": "北京",
							"companySize": "11-50人"
						}
					},
					{
						"_id": "lead-3",
						"_source": {
							"id": "lead-3",
							"companyName": "东北重工",
							"industry": "制造",
							"location": "沈阳"
						}
					}
				]
			}
		}`))
	}))
	defer server.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)

	handler := NewHandler(createTestConfig(), es, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Target: targetLead()})
	require.NoError(t, err)

	assert.Equal(t, 2, output.PoolSize)
	require.Len(t, output.Similar, 1)
	// the _id fallback must fill the lead ID when the source omits it
	assert.Equal(t, "lead-2", output.Similar[0].Lead.ID)

	boolQuery := capturedQuery["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.NotEmpty(t, boolQuery["should"])
	assert.NotEmpty(t, boolQuery["must_not"])
}

func TestExecute_SearchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "boom"}`))
	}))
	defer server.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)

	handler := NewHandler(createTestConfig(), es, newTestLogger(t))

	_, err = handler.Execute(context.Background(), &Input{Target: targetLead()})
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeSimilaritySearchFailed, stdErr.Code)
}

func TestExecute_IndexNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"type": "index_not_found_exception"}}`))
	}))
	defer server.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)

	handler := NewHandler(createTestConfig(), es, newTestLogger(t))

	_, err = handler.Execute(context.Background(), &Input{Target: targetLead()})
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeIndexNotFound, stdErr.Code)
}
