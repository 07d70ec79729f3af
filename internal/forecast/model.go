package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/AreTaj/Migraine-Navigator/internal/models"
)

// occurrenceGate is the hurdle threshold: below this occurrence probability
// the regressor is skipped and predicted pain reports as zero.
const occurrenceGate = 0.2

// ModelArtifact is the exported form of a trained linear model: feature
// order, standardization parameters and coefficients.
type ModelArtifact struct {
	Features     []string  `json:"features"`
	Means        []float64 `json:"means"`
	Scales       []float64 `json:"scales"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

func loadArtifact(path string) (*ModelArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a ModelArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse model artifact %s: %w", filepath.Base(path), err)
	}
	n := len(a.Features)
	if n == 0 || len(a.Means) != n || len(a.Scales) != n || len(a.Coefficients) != n {
		return nil, fmt.Errorf("model artifact %s: inconsistent dimensions", filepath.Base(path))
	}
	return &a, nil
}

// score standardizes the vector per the artifact and applies the linear model.
func (a *ModelArtifact) score(v *FeatureVector) (float64, error) {
	cols, err := v.Columns(a.Features)
	if err != nil {
		return 0, err
	}
	z := a.Intercept
	for i, x := range cols {
		scale := a.Scales[i]
		if scale == 0 {
			scale = 1
		}
		z += a.Coefficients[i] * ((x - a.Means[i]) / scale)
	}
	return z, nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// StatisticalPredictor is the trained hurdle model: a logistic occurrence
// classifier gated in front of a linear log-pain regressor. Artifacts are
// loaded lazily on first use and cached for the process lifetime.
type StatisticalPredictor struct {
	dir string

	once       sync.Once
	classifier *ModelArtifact
	regressor  *ModelArtifact
	loadErr    error
}

// NewStatisticalPredictor creates a predictor reading classifier.json and
// regressor.json from dir. No I/O happens until the first Predict call.
func NewStatisticalPredictor(dir string) *StatisticalPredictor {
	return &StatisticalPredictor{dir: dir}
}

func (s *StatisticalPredictor) load() error {
	s.once.Do(func() {
		c, err := loadArtifact(filepath.Join(s.dir, "classifier.json"))
		if err != nil {
			s.loadErr = fmt.Errorf("%w: %v", ErrModelUnavailable, err)
			return
		}
		r, err := loadArtifact(filepath.Join(s.dir, "regressor.json"))
		if err != nil {
			s.loadErr = fmt.Errorf("%w: %v", ErrModelUnavailable, err)
			return
		}
		s.classifier = c
		s.regressor = r
	})
	return s.loadErr
}

// Available reports whether the model artifacts load cleanly.
func (s *StatisticalPredictor) Available() bool {
	return s.load() == nil
}

// Predict returns the occurrence probability (0-1) and the predicted pain
// level (0-10). Pain is zero whenever probability does not clear the hurdle
// gate; the regressor predicts log1p(pain), inverted here.
func (s *StatisticalPredictor) Predict(v *FeatureVector) (prob, pain float64, err error) {
	if err := s.load(); err != nil {
		return 0, 0, err
	}

	z, err := s.classifier.score(v)
	if err != nil {
		return 0, 0, err
	}
	prob = sigmoid(z)

	if prob <= occurrenceGate {
		return prob, 0, nil
	}

	logPain, err := s.regressor.score(v)
	if err != nil {
		return 0, 0, err
	}
	pain = models.ClampPain(math.Expm1(logPain))
	return prob, pain, nil
}
