// internal/workers/scoring/lead-analysis/handler_test.go
package leadanalysis

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"leadgen-workers/internal/common/errors"
	"leadgen-workers/internal/common/logger"
	"leadgen-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
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

type fakePublisher struct {
	err      error
	topicARN string
	subject  string
	message  string
	calls    int
}

func (f *fakePublisher) PublishToTopic(ctx context.Context, topicARN, subject, message string) (string, error) {
	f.calls++
	f.topicARN = topicARN
	f.subject = subject
	f.message = message
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

func createTestConfig() *Config {
	return &Config{
		CacheTTL:         5 * time.Minute,
		Timeout:          5 * time.Second,
		HotLeadThreshold: 0.8,
		HotLeadTopicARN:  "arn:aws:sns:us-east-1:000000000000:hot-leads",
	}
}

func hotLead() *models.Lead {
	return &models.Lead{
		ID:            "lead-1",
		CompanyName:   "云启科技",
		Email:         "sales@yunqi.example.com",
		Website:       "https://yunqi.example.com",
		ContactPerson: "王敏",
		Phone:         "+86-10-1234-5678",
		Description:   "企业流程自动化平台",
		Industry:      "Technology",
		Location:      "Beijing",
		CompanySize:   "11-50人",
	}
}

func matchingCriteria() models.SearchCriteria {
	return models.SearchCriteria{
		Industry:    "Technology",
		Location:    "Beijing",
		CompanySize: "11-50人",
	}
}

func TestExecute_HotLeadPublishesAlert(t *testing.T) {
	publisher := &fakePublisher{}
	h := NewHandler(createTestConfig(), nil, nil, publisher, newTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{
		Lead:     hotLead(),
		Criteria: matchingCriteria(),
	})

	require.NoError(t, err)
	assert.True(t, output.AlertPublished)
	assert.Equal(t, 1, publisher.calls)
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:hot-leads", publisher.topicARN)
	assert.Contains(t, publisher.subject, "云启科技")
	assert.Contains(t, publisher.message, "lead-1")

	assert.Equal(t, "lead-1", output.Report.LeadID)
	assert.NotEmpty(t, output.Report.ReportID)
	assert.NotEmpty(t, output.Report.Recommendations)
	assert.NotEmpty(t, output.Report.NextActions)
}

func TestExecute_PublishFailureDoesNotFailJob(t *testing.T) {
	publisher := &fakePublisher{err: assert.AnError}
	h := NewHandler(createTestConfig(), nil, nil, publisher, newTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{
		Lead:     hotLead(),
		Criteria: matchingCriteria(),
	})

	require.NoError(t, err)
	assert.False(t, output.AlertPublished)
	assert.Equal(t, 1, publisher.calls)
	assert.NotEmpty(t, output.Report.ReportID)
}

func TestExecute_NoAlertBelowThreshold(t *testing.T) {
	publisher := &fakePublisher{}
	h := NewHandler(createTestConfig(), nil, nil, publisher, newTestLogger(t))

	weak := &models.Lead{ID: "lead-9", CompanyName: "东北重工", Industry: "制造", Location: "沈阳"}
	output, err := h.Execute(context.Background(), &Input{
		Lead:     weak,
		Criteria: matchingCriteria(),
	})

	require.NoError(t, err)
	assert.False(t, output.AlertPublished)
	assert.Equal(t, 0, publisher.calls)
	assert.NotEmpty(t, output.Report.RiskFactors)
}

func TestExecute_NoPublisherConfigured(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, nil, nil, newTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{
		Lead:     hotLead(),
		Criteria: matchingCriteria(),
	})

	require.NoError(t, err)
	assert.False(t, output.AlertPublished)
}

func TestExecute_UsesPrecomputedScores(t *testing.T) {
	publisher := &fakePublisher{}
	h := NewHandler(createTestConfig(), nil, nil, publisher, newTestLogger(t))

	precomputed := &models.ScoreVector{
		Overall:      0.3,
		Industry:     0.3,
		Location:     0.3,
		CompanySize:  0.3,
		Engagement:   0.3,
		AIConfidence: 0.3,
	}

	output, err := h.Execute(context.Background(), &Input{
		Lead:     hotLead(),
		Criteria: matchingCriteria(),
		Scores:   precomputed,
	})

	require.NoError(t, err)
	assert.Equal(t, *precomputed, output.Report.Scores)
	// the injected low score keeps an otherwise hot lead below the threshold
	assert.Equal(t, 0, publisher.calls)
}

func TestExecute_IncludesSimilarLeads(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, nil, nil, newTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{
		Lead:     hotLead(),
		Criteria: matchingCriteria(),
		Similar: []models.SimilarCompany{
			{Lead: models.Lead{ID: "lead-2", CompanyName: "云启分公司"}, Similarity: 0.9},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"lead-2"}, output.Report.SimilarLeadIDs)
}

func TestExecute_FetchesLeadFromDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "company_name", "email", "website", "contact_person", "phone",
		"description", "industry", "location", "company_size",
		"match_reasons", "discovery_confidence",
	}).AddRow(
		"lead-7", "云启科技", "sales@yunqi.example.com", "https://yunqi.example.com",
		"王敏", "+86-10-1234-5678", "企业流程自动化平台", "Technology", "Beijing",
		"11-50人", []byte(`["industry match"]`), 0.9,
	)

	mock.ExpectQuery("SELECT id, company_name").
		WithArgs("lead-7").
		WillReturnRows(rows)

	h := NewHandler(createTestConfig(), db, nil, nil, newTestLogger(t))

	output, execErr := h.Execute(context.Background(), &Input{
		LeadID:   "lead-7",
		Criteria: matchingCriteria(),
	})

	require.NoError(t, execErr)
	assert.Equal(t, "lead-7", output.Report.LeadID)
	assert.Equal(t, "云启科技", output.Report.CompanyName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_LeadNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, company_name").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	h := NewHandler(createTestConfig(), db, nil, nil, newTestLogger(t))

	_, execErr := h.Execute(context.Background(), &Input{LeadID: "missing"})
	require.Error(t, execErr)

	stdErr, ok := execErr.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeLeadNotFound, stdErr.Code)
}

func TestExecute_MissingInput(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, nil, nil, newTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{})
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidJobInput, stdErr.Code)
}
