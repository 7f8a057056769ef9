package training

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fairtrial-bias-server/internal/domain"
	"github.com/fairtrial-bias-server/internal/features"
	"github.com/fairtrial-bias-server/internal/ml"
)

const (
	trainFraction = 0.70
	valFraction   = 0.15

	// Soft-voting weights favoring the boosted model.
	ensembleBoostWeight  = 0.7
	ensembleForestWeight = 0.3

	defaultSyntheticSamples = 5000
	defaultContamination    = 0.09
	defaultBoostingRounds   = 200
	defaultLearningRate     = 0.05
	defaultMaxDepth         = 6
	defaultForestTrees      = 100
	earlyStoppingRounds     = 20
	boostingSubsample       = 0.8
)

// Train runs the full pipeline: synthetic data generation, stratified
// 70/15/15 split, scaler fit on train only, isolation forest and
// ensemble fits with early stopping on validation, and a held-out
// test-set evaluation.
func Train(ctx context.Context, cfg domain.ModelConfig, logger *logrus.Logger) (*Result, error) {
	cfg = withTrainingDefaults(cfg)
	start := time.Now()

	logger.WithFields(logrus.Fields{
		"samples":       cfg.SyntheticSamples,
		"seed":          cfg.Seed,
		"contamination": cfg.Contamination,
	}).Info("Starting model training")

	metas, labels := GenerateSyntheticTrials(cfg.SyntheticSamples, cfg.Seed)
	X := make([][]float64, len(metas))
	for i, meta := range metas {
		X[i] = features.Extract(meta)
	}

	trainIdx, valIdx, testIdx := ml.StratifiedThreeWaySplit(labels, trainFraction, valFraction, cfg.Seed)
	Xtrain, ytrain := ml.Gather(X, labels, trainIdx)
	Xval, yval := ml.Gather(X, labels, valIdx)
	Xtest, ytest := ml.Gather(X, labels, testIdx)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scaler := ml.NewStandardScaler()
	XtrainS, err := scaler.FitTransform(Xtrain)
	if err != nil {
		return nil, fmt.Errorf("fitting scaler: %w", err)
	}
	XvalS := scaler.Transform(Xval)
	XtestS := scaler.Transform(Xtest)

	outlier := ml.NewIsolationForest(
		ml.WithContamination(cfg.Contamination),
		ml.WithIsoRandomState(cfg.Seed),
	)
	if err := outlier.Fit(XtrainS); err != nil {
		return nil, fmt.Errorf("fitting isolation forest: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gbm := ml.NewGradientBoosting(
		ml.WithRounds(cfg.BoostingRounds),
		ml.WithLearningRate(cfg.LearningRate),
		ml.WithBoostingMaxDepth(cfg.MaxDepth),
		ml.WithSubsample(boostingSubsample),
		ml.WithEarlyStopping(earlyStoppingRounds),
		ml.WithBoostingRandomState(cfg.Seed),
	)
	if err := gbm.Fit(XtrainS, ytrain, XvalS, yval); err != nil {
		return nil, fmt.Errorf("fitting gradient boosting: %w", err)
	}
	logger.WithField("rounds", len(gbm.Trees)).Debug("Gradient boosting converged")

	forest := ml.NewRandomForest(
		ml.WithNEstimators(cfg.ForestTrees),
		ml.WithForestMaxDepth(cfg.MaxDepth+2),
		ml.WithForestRandomState(cfg.Seed),
	)
	if err := forest.Fit(XtrainS, ytrain); err != nil {
		return nil, fmt.Errorf("fitting random forest: %w", err)
	}

	ensemble := ml.NewVotingEnsemble(gbm, forest, ensembleBoostWeight, ensembleForestWeight)

	probs := make([]float64, len(XtestS))
	for i, x := range XtestS {
		probs[i] = ensemble.PredictProbability(x)
	}
	cm := ml.Confusion(ytest, probs)
	eval := domain.EvaluationReport{
		Accuracy:        cm.Accuracy(),
		Precision:       cm.Precision(),
		Recall:          cm.Recall(),
		F1:              cm.F1(),
		TruePositives:   cm.TruePositives,
		TrueNegatives:   cm.TrueNegatives,
		FalsePositives:  cm.FalsePositives,
		FalseNegatives:  cm.FalseNegatives,
		TrainedAt:       time.Now().UTC(),
		TrainingSamples: len(trainIdx),
	}

	logger.WithFields(logrus.Fields{
		"accuracy":    eval.Accuracy,
		"precision":   eval.Precision,
		"recall":      eval.Recall,
		"f1":          eval.F1,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Model training complete")

	return &Result{
		Scaler:       scaler,
		Outlier:      outlier,
		Ensemble:     ensemble,
		FeatureNames: append([]string(nil), features.Names...),
		Evaluation:   eval,
	}, nil
}

func withTrainingDefaults(cfg domain.ModelConfig) domain.ModelConfig {
	if cfg.SyntheticSamples <= 0 {
		cfg.SyntheticSamples = defaultSyntheticSamples
	}
	if cfg.Contamination <= 0 {
		cfg.Contamination = defaultContamination
	}
	if cfg.BoostingRounds <= 0 {
		cfg.BoostingRounds = defaultBoostingRounds
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = defaultLearningRate
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaultMaxDepth
	}
	if cfg.ForestTrees <= 0 {
		cfg.ForestTrees = defaultForestTrees
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	return cfg
}
