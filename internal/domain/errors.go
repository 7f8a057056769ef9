package domain

import "fmt"

// Error codes for different failure scenarios
const (
	ErrCodeParse           = "PARSE_ERROR"
	ErrCodeModelNotReady   = "MODEL_NOT_READY"
	ErrCodeFeatureMismatch = "FEATURE_MISMATCH"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// ParseError indicates that uploaded content could not be interpreted as
// tabular participant data. It is always surfaced to the caller; the
// pipeline never substitutes synthetic defaults for unparseable input.
type ParseError struct {
	Filename string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: cannot parse %q as tabular trial data: %s", ErrCodeParse, e.Filename, e.Reason)
}

// NewParseError creates a ParseError for the given file and reason.
func NewParseError(filename, reason string) *ParseError {
	return &ParseError{Filename: filename, Reason: reason}
}

// ModelNotReadyError indicates that scoring was requested before the
// training pipeline produced or loaded a model artifact. The condition
// is retryable: callers should wait for training to finish and retry.
type ModelNotReadyError struct {
	Reason string
}

func (e *ModelNotReadyError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCodeModelNotReady, e.Reason)
}

// NewModelNotReadyError creates a ModelNotReadyError.
func NewModelNotReadyError(reason string) *ModelNotReadyError {
	return &ModelNotReadyError{Reason: reason}
}

// FeatureMismatchError indicates that the feature extractor and the
// trained model disagree on the feature schema. This is a fatal
// configuration bug and must never be silently coerced.
type FeatureMismatchError struct {
	Got  int
	Want int
}

func (e *FeatureMismatchError) Error() string {
	return fmt.Sprintf("%s: extracted %d features but the model artifact declares %d", ErrCodeFeatureMismatch, e.Got, e.Want)
}

// NewFeatureMismatchError creates a FeatureMismatchError.
func NewFeatureMismatchError(got, want int) *FeatureMismatchError {
	return &FeatureMismatchError{Got: got, Want: want}
}
