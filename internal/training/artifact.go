package training

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fairtrial-bias-server/internal/ml"
)

// Artifact file names inside the model directory. All five are required
// together; a partial set is treated as no artifact at all.
const (
	scalerFile       = "scaler.gob"
	outlierFile      = "isolation_forest.gob"
	ensembleFile     = "ensemble.gob"
	featureNamesFile = "feature_names.json"
	metricsFile      = "metrics.json"
)

// Save serializes the trained models to dir. Each file is written to a
// temporary name and renamed into place, so a crash mid-save never
// leaves a truncated artifact behind.
func Save(dir string, r *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}
	if err := writeGob(filepath.Join(dir, scalerFile), r.Scaler); err != nil {
		return err
	}
	if err := writeGob(filepath.Join(dir, outlierFile), r.Outlier); err != nil {
		return err
	}
	if err := writeGob(filepath.Join(dir, ensembleFile), r.Ensemble); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, featureNamesFile), r.FeatureNames); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, metricsFile), r.Evaluation)
}

// Load reads a complete artifact set from dir. Any missing or corrupt
// file fails the whole load; callers retrain rather than running with
// partial state.
func Load(dir string) (*Result, error) {
	r := &Result{
		Scaler:   &ml.StandardScaler{},
		Outlier:  &ml.IsolationForest{},
		Ensemble: &ml.VotingEnsemble{},
	}
	if err := readGob(filepath.Join(dir, scalerFile), r.Scaler); err != nil {
		return nil, err
	}
	if err := readGob(filepath.Join(dir, outlierFile), r.Outlier); err != nil {
		return nil, err
	}
	if err := readGob(filepath.Join(dir, ensembleFile), r.Ensemble); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, featureNamesFile), &r.FeatureNames); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, metricsFile), &r.Evaluation); err != nil {
		return nil, err
	}
	if len(r.FeatureNames) == 0 {
		return nil, fmt.Errorf("loading model artifact: empty feature name list in %s", featureNamesFile)
	}
	return r, nil
}

func writeGob(path string, v any) error {
	return writeAtomic(path, func(f *os.File) error {
		return gob.NewEncoder(f).Encode(v)
	})
}

func writeJSON(path string, v any) error {
	return writeAtomic(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

func writeAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp artifact file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming %s into place: %w", filepath.Base(path), err)
	}
	return nil
}

func readGob(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return nil
}
