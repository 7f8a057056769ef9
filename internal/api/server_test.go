package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairtrial-bias-server/internal/domain"
	"github.com/fairtrial-bias-server/internal/preprocess"
)

type stubDetector struct {
	verdict *domain.BiasVerdict
	err     error
	calls   int
}

func (s *stubDetector) DetectBias(ctx context.Context, meta *domain.TrialMetadata) (*domain.BiasVerdict, error) {
	s.calls++
	return s.verdict, s.err
}

type stubProvider struct {
	artifact *domain.ModelArtifact
	err      error
}

func (s *stubProvider) Current() (*domain.ModelArtifact, error) { return s.artifact, s.err }
func (s *stubProvider) Retrain(context.Context) (*domain.ModelArtifact, error) {
	return s.artifact, s.err
}

type memoryRepo struct {
	records map[string]*domain.VerdictRecord
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[string]*domain.VerdictRecord)}
}

func (m *memoryRepo) Save(_ context.Context, record *domain.VerdictRecord) error {
	if record.ID == "" {
		record.ID = "v-" + record.TrialID
	}
	m.records[record.ID] = record
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*domain.VerdictRecord, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func (m *memoryRepo) ListRecent(_ context.Context, limit int) ([]*domain.VerdictRecord, error) {
	var out []*domain.VerdictRecord
	for _, r := range m.records {
		if len(out) >= limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

func acceptVerdict() *domain.BiasVerdict {
	return &domain.BiasVerdict{
		Decision:        domain.ACCEPT,
		FairnessScore:   0.92,
		BiasProbability: 0.07,
		Recommendations: []string{"Trial meets fairness criteria"},
	}
}

type serverFixture struct {
	server   *Server
	detector *stubDetector
	provider *stubProvider
	repo     *memoryRepo
}

func newFixture(t *testing.T, mutate func(*domain.Config)) *serverFixture {
	t.Helper()
	cfg := &domain.Config{
		Logging: domain.LoggingConfig{Level: "info"},
		API: domain.APIConfig{
			AnalyzeRatePerSecond: 1000,
			AnalyzeRateBurst:     1000,
			VerdictCacheSize:     16,
			MaxUploadBytes:       1 << 20,
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	detector := &stubDetector{verdict: acceptVerdict()}
	provider := &stubProvider{artifact: &domain.ModelArtifact{FeatureNames: []string{"a", "b"}}}
	repo := newMemoryRepo()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	server, err := NewServer(cfg, preprocess.NewCSVPreprocessor(), detector, provider, repo, logger)
	require.NoError(t, err)
	return &serverFixture{server: server, detector: detector, provider: provider, repo: repo}
}

const analyzeCSV = "age,gender,ethnicity\n34,Male,White\n45,Female,Black\n29,Female,Asian\n"

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t, nil)

	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["model_ready"])
}

func TestAnalyzeMultipartUpload(t *testing.T) {
	f := newFixture(t, nil)

	body, contentType := multipartUpload(t, "trial.csv", analyzeCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trials/analyze", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		VerdictID string             `json:"verdict_id"`
		TrialID   string             `json:"trial_id"`
		Verdict   domain.BiasVerdict `json:"verdict"`
		Cached    bool               `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.ACCEPT, resp.Verdict.Decision)
	assert.False(t, resp.Cached)
	assert.Len(t, resp.TrialID, 16)

	// The verdict was persisted for audit.
	record, err := f.repo.GetByID(context.Background(), resp.VerdictID)
	require.NoError(t, err)
	assert.Equal(t, "trial.csv", record.Filename)
}

func TestAnalyzeCachesByContentHash(t *testing.T) {
	f := newFixture(t, nil)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/trials/analyze", bytes.NewBufferString(analyzeCSV))
		w := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(w, req)
		return w
	}

	first := send()
	require.Equal(t, http.StatusOK, first.Code)
	second := send()
	require.Equal(t, http.StatusOK, second.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["cached"])
	assert.Equal(t, 1, f.detector.calls)
}

func TestAnalyzeParseErrorReturns400(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trials/analyze", bytes.NewBufferString("not,tabular\n"))
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.ErrCodeParse, body["code"])
}

func TestAnalyzeModelNotReadyReturns503(t *testing.T) {
	f := newFixture(t, nil)
	f.detector.verdict = nil
	f.detector.err = domain.NewModelNotReadyError("training in progress")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trials/analyze", bytes.NewBufferString(analyzeCSV))
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "5", w.Header().Get("Retry-After"))
}

func TestAnalyzeFeatureMismatchReturns500(t *testing.T) {
	f := newFixture(t, nil)
	f.detector.verdict = nil
	f.detector.err = domain.NewFeatureMismatchError(5, 19)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trials/analyze", bytes.NewBufferString(analyzeCSV))
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.ErrCodeFeatureMismatch, body["code"])
}

func TestAnalyzeRateLimit(t *testing.T) {
	f := newFixture(t, func(cfg *domain.Config) {
		cfg.API.AnalyzeRatePerSecond = 0.001
		cfg.API.AnalyzeRateBurst = 1
	})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/trials/analyze", bytes.NewBufferString(analyzeCSV))
		w := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
	}

	assert.Equal(t, http.StatusOK, statuses[0])
	assert.Equal(t, http.StatusTooManyRequests, statuses[1])
	assert.Equal(t, http.StatusTooManyRequests, statuses[2])
}

func TestModelInfoEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	f.provider.artifact.Evaluation = domain.EvaluationReport{Accuracy: 0.97}

	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/model", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		FeatureCount int                     `json:"feature_count"`
		Evaluation   domain.EvaluationReport `json:"evaluation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.FeatureCount)
	assert.InDelta(t, 0.97, body.Evaluation.Accuracy, 1e-9)
}

func TestModelInfoNotReadyReturns503(t *testing.T) {
	f := newFixture(t, nil)
	f.provider.artifact = nil
	f.provider.err = domain.NewModelNotReadyError("not loaded")

	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/model", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRetrainEndpointPurgesCache(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trials/analyze", bytes.NewBufferString(analyzeCSV))
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, f.detector.calls)

	w = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/model/retrain", nil))
	require.Equal(t, http.StatusOK, w.Code)

	// Same content is re-scored against the new model.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/trials/analyze", bytes.NewBufferString(analyzeCSV))
	w = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, f.detector.calls)
}

func TestGetVerdictNotFound(t *testing.T) {
	f := newFixture(t, nil)

	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/verdicts/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListVerdictsValidatesLimit(t *testing.T) {
	f := newFixture(t, nil)

	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/verdicts?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/verdicts?limit=10", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Count)
}
