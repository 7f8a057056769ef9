package domain

import "context"

// Preprocessor converts raw uploaded bytes into structured trial
// metadata. It is a pure function of its input and fails with a
// *ParseError when the content is not tabular participant data.
type Preprocessor interface {
	Preprocess(content []byte, filename string) (*TrialMetadata, error)
}

// BiasDetector assigns a fairness verdict to trial metadata. It fails
// with *ModelNotReadyError before a model artifact exists and with
// *FeatureMismatchError when the extracted vector does not match the
// artifact's declared feature count.
type BiasDetector interface {
	DetectBias(ctx context.Context, metadata *TrialMetadata) (*BiasVerdict, error)
}

// ModelProvider owns the "train once, serve many" lifecycle of the
// model artifact. Current returns the loaded artifact or a
// *ModelNotReadyError; Retrain builds a fresh artifact off to the side
// and atomically swaps it in, so in-flight scoring never observes a
// half-updated model.
type ModelProvider interface {
	Current() (*ModelArtifact, error)
	Retrain(ctx context.Context) (*ModelArtifact, error)
}

// VerdictRepository persists completed verdicts for audit.
type VerdictRepository interface {
	Save(ctx context.Context, record *VerdictRecord) error
	GetByID(ctx context.Context, id string) (*VerdictRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*VerdictRecord, error)
}
