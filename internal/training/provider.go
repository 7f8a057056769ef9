package training

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/fairtrial-bias-server/internal/domain"
)

// Provider owns the serve-time model lifecycle. The artifact loads
// lazily on first use and is held behind an atomic pointer: concurrent
// scoring reads it without locks, and Retrain builds a replacement
// fully off to the side before a single swap. Retrains are serialized.
type Provider struct {
	cfg    domain.ModelConfig
	logger *logrus.Logger

	current atomic.Pointer[domain.ModelArtifact]

	mu     sync.Mutex // guards initialization and retraining
	primed bool
}

// NewProvider creates a Provider. No training or loading happens until
// Ensure, Current, or Retrain is called.
func NewProvider(cfg domain.ModelConfig, logger *logrus.Logger) *Provider {
	return &Provider{cfg: cfg, logger: logger}
}

var _ domain.ModelProvider = (*Provider)(nil)

// Ensure makes the model available: it loads a complete persisted
// artifact set if one exists, otherwise trains from scratch and saves.
func (p *Provider) Ensure(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.primed {
		return nil
	}

	if r, err := Load(p.cfg.Dir); err == nil {
		p.logger.WithFields(logrus.Fields{
			"dir":      p.cfg.Dir,
			"features": len(r.FeatureNames),
			"accuracy": r.Evaluation.Accuracy,
		}).Info("Loaded model artifacts from disk")
		p.current.Store(r.Artifact())
		p.primed = true
		return nil
	} else {
		p.logger.WithError(err).Warn("No usable model artifacts on disk, training from scratch")
	}

	if err := p.trainAndSwapLocked(ctx); err != nil {
		return err
	}
	p.primed = true
	return nil
}

// Current returns the loaded artifact, or a ModelNotReadyError if
// neither Ensure nor Retrain has completed yet.
func (p *Provider) Current() (*domain.ModelArtifact, error) {
	if a := p.current.Load(); a != nil {
		return a, nil
	}
	return nil, domain.NewModelNotReadyError("model artifact not yet loaded or trained")
}

// Retrain builds a fresh artifact, persists it, and swaps it in.
// Concurrent retrain requests queue behind the mutex; in-flight scoring
// keeps reading the previous artifact until the swap.
func (p *Provider) Retrain(ctx context.Context) (*domain.ModelArtifact, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.trainAndSwapLocked(ctx); err != nil {
		return nil, err
	}
	p.primed = true
	return p.current.Load(), nil
}

func (p *Provider) trainAndSwapLocked(ctx context.Context) error {
	result, err := Train(ctx, p.cfg, p.logger)
	if err != nil {
		return err
	}
	if err := Save(p.cfg.Dir, result); err != nil {
		p.logger.WithError(err).Error("Failed to persist model artifacts")
		return err
	}
	p.current.Store(result.Artifact())
	return nil
}
