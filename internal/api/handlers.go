package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fairtrial-bias-server/internal/domain"
)

func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	modelReady := true
	if _, err := s.provider.Current(); err != nil {
		modelReady = false
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      status,
		"model_ready": modelReady,
		"timestamp":   time.Now().UTC(),
	})
}

// handleAnalyze accepts an uploaded participant file (multipart field
// "file", or the raw request body), scores it, persists the verdict,
// and returns the full report. Identical content is served from cache.
func (s *Server) handleAnalyze(c *gin.Context) {
	content, filename, err := s.readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(c, err.Error()))
		return
	}

	meta, err := s.preprocessor.Preprocess(content, filename)
	if err != nil {
		s.writeDomainError(c, err)
		return
	}

	if record, ok := s.cache.Get(meta.RawDataHash); ok {
		c.JSON(http.StatusOK, analyzeResponse(record, true))
		return
	}

	verdict, err := s.detector.DetectBias(c.Request.Context(), meta)
	if err != nil {
		s.writeDomainError(c, err)
		return
	}

	record := &domain.VerdictRecord{
		TrialID:     meta.TrialID,
		Filename:    meta.Filename,
		RawDataHash: meta.RawDataHash,
		Verdict:     *verdict,
	}
	if err := s.verdicts.Save(c.Request.Context(), record); err != nil {
		// The verdict is still valid; losing the audit row is logged,
		// not surfaced.
		s.logger.WithError(err).WithField("trial_id", meta.TrialID).Error("Failed to persist verdict")
	}
	s.cache.Add(meta.RawDataHash, record)

	c.JSON(http.StatusOK, analyzeResponse(record, false))
}

func (s *Server) readUpload(c *gin.Context) ([]byte, string, error) {
	maxBytes := s.cfg.API.MaxUploadBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return nil, "", err
		}
		return content, file.Filename, nil
	}

	content, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, "", err
	}
	filename := c.Query("filename")
	if filename == "" {
		filename = "upload.csv"
	}
	return content, filename, nil
}

func (s *Server) handleModelInfo(c *gin.Context) {
	artifact, err := s.provider.Current()
	if err != nil {
		s.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"feature_count": artifact.FeatureCount(),
		"feature_names": artifact.FeatureNames,
		"evaluation":    artifact.Evaluation,
	})
}

func (s *Server) handleRetrain(c *gin.Context) {
	start := time.Now()
	artifact, err := s.provider.Retrain(c.Request.Context())
	if err != nil {
		s.logger.WithError(err).Error("Retrain failed")
		c.JSON(http.StatusInternalServerError, errorBody(c, "retraining failed"))
		return
	}
	s.cache.Purge()

	s.logger.WithFields(logrus.Fields{
		"accuracy":    artifact.Evaluation.Accuracy,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Model retrained")

	c.JSON(http.StatusOK, gin.H{
		"status":     "retrained",
		"evaluation": artifact.Evaluation,
	})
}

func (s *Server) handleGetVerdict(c *gin.Context) {
	record, err := s.verdicts.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorBody(c, "verdict not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(c, "failed to load verdict"))
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleListVerdicts(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 200 {
			c.JSON(http.StatusBadRequest, errorBody(c, "limit must be an integer in [1,200]"))
			return
		}
		limit = parsed
	}

	records, err := s.verdicts.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(c, "failed to list verdicts"))
		return
	}
	if records == nil {
		records = []*domain.VerdictRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"verdicts": records, "count": len(records)})
}

// writeDomainError maps the error taxonomy onto HTTP status codes:
// parse errors are the client's fault, a missing model is retryable,
// and a feature mismatch is a server-side configuration bug.
func (s *Server) writeDomainError(c *gin.Context, err error) {
	var parseErr *domain.ParseError
	var notReady *domain.ModelNotReadyError
	var mismatch *domain.FeatureMismatchError

	switch {
	case errors.As(err, &parseErr):
		body := errorBody(c, parseErr.Error())
		body["code"] = domain.ErrCodeParse
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &notReady):
		body := errorBody(c, notReady.Error())
		body["code"] = domain.ErrCodeModelNotReady
		c.Header("Retry-After", "5")
		c.JSON(http.StatusServiceUnavailable, body)
	case errors.As(err, &mismatch):
		s.logger.WithError(err).Error("Feature schema mismatch")
		body := errorBody(c, mismatch.Error())
		body["code"] = domain.ErrCodeFeatureMismatch
		c.JSON(http.StatusInternalServerError, body)
	default:
		s.logger.WithError(err).Error("Unhandled detection error")
		body := errorBody(c, "internal error")
		body["code"] = domain.ErrCodeInternal
		c.JSON(http.StatusInternalServerError, body)
	}
}

func errorBody(c *gin.Context, message string) gin.H {
	return gin.H{
		"error":          message,
		"correlation_id": c.GetString("correlation_id"),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}
}

func analyzeResponse(record *domain.VerdictRecord, cached bool) gin.H {
	return gin.H{
		"verdict_id": record.ID,
		"trial_id":   record.TrialID,
		"verdict":    record.Verdict,
		"cached":     cached,
	}
}
