// internal/workers/scoring/attachment-match/handler_test.go
package attachmentmatch

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"leadgen-workers/internal/common/errors"
	"leadgen-workers/internal/common/logger"
	"leadgen-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
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

type fakeExtractor struct {
	keywords []string
	err      error
	calls    int
}

func (f *fakeExtractor) ExtractKeywords(ctx context.Context, email models.EmailContent) ([]string, error) {
	f.calls++
	return f.keywords, f.err
}

func createTestConfig() *Config {
	return &Config{
		KeywordCacheTTL: time.Hour,
		Timeout:         5 * time.Second,
	}
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testEmail() models.EmailContent {
	return models.EmailContent{
		Subject:      "关于贵司询价的回复",
		Body:         "附上我们的价格与报价说明，期待合作。",
		CustomerName: "云启科技",
		Industry:     "科技",
	}
}

func testMaterials() []models.Material {
	return []models.Material{
		{ID: "m1", FileName: "产品定价方案.xlsx", FileType: "excel"},
		{ID: "m2", FileName: "公司简介.pdf", FileType: "pdf"},
	}
}

func TestExecute_WithInlineMaterials(t *testing.T) {
	extractor := &fakeExtractor{keywords: []string{"价格", "报价"}}
	h := NewHandler(createTestConfig(), nil, nil, extractor, newTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{
		LeadID:    "lead-1",
		Email:     testEmail(),
		Materials: testMaterials(),
	})

	require.NoError(t, err)
	assert.Equal(t, "lead-1", output.LeadID)
	assert.Equal(t, 1, extractor.calls)

	rec := output.Recommendation
	assert.Equal(t, 2, rec.TotalMaterials)
	assert.False(t, rec.Degraded)
	require.NotEmpty(t, rec.Matches)
	assert.Equal(t, "m1", rec.Matches[0].Material.ID)
	assert.Equal(t, models.ConfidenceHigh, rec.Matches[0].Confidence)
	assert.NotEmpty(t, rec.Matches[0].MatchReasons)
}

func TestExecute_KeywordCacheHit(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()

	email := testEmail()
	cached, _ := json.Marshal([]string{"价格", "报价"})
	redisMock.ExpectGet(keywordCacheKey(email)).SetVal(string(cached))

	extractor := &fakeExtractor{keywords: []string{"should-not-be-used"}}
	h := NewHandler(createTestConfig(), nil, redisClient, extractor, newTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{
		Email:     email,
		Materials: testMaterials(),
	})

	require.NoError(t, err)
	assert.Equal(t, 0, extractor.calls)
	require.NotEmpty(t, output.Recommendation.Matches)
	assert.Equal(t, "m1", output.Recommendation.Matches[0].Material.ID)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestExecute_CachesExtractedKeywords(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()

	email := testEmail()
	keywords := []string{"价格"}
	data, _ := json.Marshal(keywords)

	redisMock.ExpectGet(keywordCacheKey(email)).RedisNil()
	redisMock.ExpectSet(keywordCacheKey(email), data, time.Hour).SetVal("OK")

	extractor := &fakeExtractor{keywords: keywords}
	h := NewHandler(createTestConfig(), nil, redisClient, extractor, newTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{
		Email:     email,
		Materials: testMaterials(),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, extractor.calls)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestExecute_ExtractionFailureFallsBack(t *testing.T) {
	extractor := &fakeExtractor{err: assert.AnError}
	h := NewHandler(createTestConfig(), nil, nil, extractor, newTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{
		Email: models.EmailContent{
			Subject:      "产品介绍",
			Body:         "希望了解贵司的自动化产品。",
			CustomerName: "云启科技",
		},
		Materials: testMaterials(),
	})

	require.NoError(t, err)
	// rule-based keywords still drive a ranked result
	assert.False(t, output.Recommendation.Degraded)
	assert.NotEmpty(t, output.Recommendation.Summary)
}

func TestExecute_LoadsMaterialsFromDatabase(t *testing.T) {
	db, mock := setupMockDB(t)

	keywordsJSON, _ := json.Marshal([]string{"报价", "价格表"})
	rows := sqlmock.NewRows([]string{"id", "file_name", "file_type", "description", "keywords", "storage_key"}).
		AddRow("m1", "产品定价方案.xlsx", "excel", "最新价格表", keywordsJSON, "materials/m1.xlsx").
		AddRow("m2", "公司简介.pdf", "pdf", nil, nil, nil)

	mock.ExpectQuery("SELECT id, file_name, file_type").
		WithArgs("owner-1").
		WillReturnRows(rows)

	extractor := &fakeExtractor{keywords: []string{"价格", "报价"}}
	h := NewHandler(createTestConfig(), db, nil, extractor, newTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{
		Email:   testEmail(),
		OwnerID: "owner-1",
	})

	require.NoError(t, err)
	assert.Equal(t, 2, output.Recommendation.TotalMaterials)
	require.NotEmpty(t, output.Recommendation.Matches)
	assert.Equal(t, "m1", output.Recommendation.Matches[0].Material.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_EmptyLibrary(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT id, file_name, file_type").
		WithArgs("owner-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "file_name", "file_type", "description", "keywords", "storage_key"}))

	h := NewHandler(createTestConfig(), db, nil, &fakeExtractor{}, newTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{
		Email:   testEmail(),
		OwnerID: "owner-2",
	})

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeMaterialNotFound, stdErr.Code)
}

func TestExecute_MissingEmail(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, nil, &fakeExtractor{}, newTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Materials: testMaterials()})
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidJobInput, stdErr.Code)
}
