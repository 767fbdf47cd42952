package ml

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// ArtifactKind distinguishes the two on-disk shapes of a trained model.
type ArtifactKind int

const (
	// KindBareEstimator is an estimator serialized on its own.
	KindBareEstimator ArtifactKind = iota
	// KindSearchResult wraps the estimator chosen by a hyperparameter search
	// together with its winning parameters.
	KindSearchResult
)

func (k ArtifactKind) String() string {
	switch k {
	case KindSearchResult:
		return "search result"
	default:
		return "bare estimator"
	}
}

// ErrModelUnavailable is returned when no usable model was loaded.
var ErrModelUnavailable = errors.New("model unavailable")

// Importance is the resolved importance capability of a model. The zero
// value means the estimator does not expose importances.
type Importance struct {
	scores []float64
}

// Available reports whether the estimator exposes importances.
func (i Importance) Available() bool {
	return i.scores != nil
}

// Scores returns importances aligned with the training feature order.
func (i Importance) Scores() []float64 {
	return i.scores
}

// ModelInfo describes the artifact file a model came from.
type ModelInfo struct {
	Path     string    `json:"path"`
	ModTime  time.Time `json:"mod_time"`
	SHA256   string    `json:"sha256"`
	Size     int64     `json:"size"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Model is a loaded artifact normalized to one representation.
type Model struct {
	Kind       ArtifactKind
	Estimator  Estimator
	BestParams map[string]any
	Importance Importance
	Info       ModelInfo
}

// BestParamsAvailable is false for bare estimators.
func (m *Model) BestParamsAvailable() bool {
	return m.Kind == KindSearchResult && m.BestParams != nil
}

// BestParamsSummary renders best parameters for display.
func (m *Model) BestParamsSummary() string {
	if !m.BestParamsAvailable() {
		return "not available"
	}
	data, err := json.Marshal(m.BestParams)
	if err != nil {
		return fmt.Sprintf("%v", m.BestParams)
	}
	return string(data)
}

type searchArtifact struct {
	BestEstimator json.RawMessage `json:"best_estimator"`
	BestParams    map[string]any  `json:"best_params"`
}

// LoadModel reads and normalizes a model artifact from disk.
func LoadModel(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	model, err := DecodeModel(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", path, err)
	}

	sum := sha256.Sum256(raw)
	model.Info = ModelInfo{
		Path:     path,
		SHA256:   hex.EncodeToString(sum[:]),
		Size:     int64(len(raw)),
		LoadedAt: time.Now(),
	}
	if info, err := os.Stat(path); err == nil {
		model.Info.ModTime = info.ModTime()
	}

	log.Info().
		Str("model_path", path).
		Str("kind", model.Kind.String()).
		Str("estimator", model.Estimator.Type()).
		Int("features", model.Estimator.NumFeatures()).
		Bool("importances", model.Importance.Available()).
		Msg("Model loaded successfully")

	return model, nil
}

// DecodeModel parses an artifact. An object with a "best_estimator" key is a
// search result; anything else is decoded as a bare estimator.
func DecodeModel(r io.Reader) (*Model, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("artifact is not a JSON object: %w", err)
	}

	model := &Model{Kind: KindBareEstimator}
	estimatorRaw := json.RawMessage(raw)

	if _, ok := fields["best_estimator"]; ok {
		var search searchArtifact
		if err := json.Unmarshal(raw, &search); err != nil {
			return nil, fmt.Errorf("decode search result: %w", err)
		}
		model.Kind = KindSearchResult
		model.BestParams = search.BestParams
		if model.BestParams == nil {
			model.BestParams = map[string]any{}
		}
		estimatorRaw = search.BestEstimator
	}

	est, err := decodeEstimator(estimatorRaw)
	if err != nil {
		return nil, err
	}
	model.Estimator = est

	if p, ok := est.(ImportanceProvider); ok {
		if scores := p.FeatureImportances(); scores != nil {
			model.Importance = Importance{scores: scores}
		}
	}

	return model, nil
}
