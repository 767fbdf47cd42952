package pipeline

import (
	"path/filepath"
	"sync"

	"inflation-dashboard/internal/data"
	"inflation-dashboard/internal/ml"

	"github.com/rs/zerolog/log"
)

// Paths locates the input files.
type Paths struct {
	Data  string
	Model string
	XTest string
	YTest string
}

// Files returns every input path.
func (p Paths) Files() []string {
	return []string{p.Data, p.Model, p.XTest, p.YTest}
}

type cached[T any] struct {
	loaded bool
	value  T
	err    error
}

// Sources memoizes the expensive loads across pipeline runs. A failed load
// is cached too, so a broken model artifact is reported on every run until
// the file changes and Invalidate is called.
type Sources struct {
	paths   Paths
	metrics Metrics

	mu      sync.Mutex
	dataset cached[*data.Dataset]
	model   cached[*ml.Model]
	testSet cached[*data.TestSet]
}

// NewSources creates an empty cache. metrics may be nil.
func NewSources(paths Paths, metrics Metrics) *Sources {
	return &Sources{paths: paths, metrics: metrics}
}

func (s *Sources) Paths() Paths {
	return s.paths
}

// Dataset returns the merged dataset, loading it on first use.
func (s *Sources) Dataset() (*data.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dataset.loaded {
		ds, err := data.LoadDataset(s.paths.Data)
		s.dataset = cached[*data.Dataset]{loaded: true, value: ds, err: err}
		if s.metrics != nil {
			s.metrics.DatasetLoaded(err)
		}
		if err != nil {
			log.Error().Err(err).Str("path", s.paths.Data).Msg("Failed to load merged dataset")
		}
	}
	return s.dataset.value, s.dataset.err
}

// Model returns the normalized model artifact, loading it on first use.
func (s *Sources) Model() (*ml.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.model.loaded {
		model, err := ml.LoadModel(s.paths.Model)
		s.model = cached[*ml.Model]{loaded: true, value: model, err: err}
		if err != nil {
			if s.metrics != nil {
				s.metrics.ModelLoadFailed()
			}
			log.Error().Err(err).Str("path", s.paths.Model).Msg("Failed to load model")
		}
	}
	if s.model.err == nil && s.metrics != nil {
		s.metrics.ModelServed(s.model.value.Info.LoadedAt)
	}
	return s.model.value, s.model.err
}

// TestSet returns the fixed x_test/y_test pair, loading it on first use.
func (s *Sources) TestSet() (*data.TestSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.testSet.loaded {
		ts, err := data.LoadTestSet(s.paths.XTest, s.paths.YTest)
		s.testSet = cached[*data.TestSet]{loaded: true, value: ts, err: err}
		if err != nil {
			log.Error().Err(err).Msg("Failed to load test set")
		}
	}
	return s.testSet.value, s.testSet.err
}

// Invalidate drops whatever was loaded from path and reports whether path
// is one of the inputs.
func (s *Sources) Invalidate(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	hit := false
	switch {
	case samePath(path, s.paths.Data):
		s.dataset = cached[*data.Dataset]{}
		hit = true
	case samePath(path, s.paths.Model):
		s.model = cached[*ml.Model]{}
		hit = true
	}
	if samePath(path, s.paths.XTest) || samePath(path, s.paths.YTest) {
		s.testSet = cached[*data.TestSet]{}
		hit = true
	}

	if hit {
		log.Info().Str("path", path).Msg("Input changed, cache invalidated")
	}
	return hit
}

// InvalidateAll forces every input to be reloaded on next use.
func (s *Sources) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dataset = cached[*data.Dataset]{}
	s.model = cached[*ml.Model]{}
	s.testSet = cached[*data.TestSet]{}
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
