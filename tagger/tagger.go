package tagger

import (
	"github.com/rs/zerolog"
	"tokensmith.com/stl/crf"
	"tokensmith.com/stl/dataset"
	"tokensmith.com/stl/features"
	"tokensmith.com/stl/logger"
	"tokensmith.com/stl/types"
)

// LabelConfidence pairs a predicted label with the marginal probability the
// model assigned to that exact label at that token position.
type LabelConfidence struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Distribution is the full marginal view flattened across all examples: two
// parallel per-token sequences of candidate labels and their probabilities.
type Distribution struct {
	Labels        [][]string  `json:"labels"`
	Probabilities [][]float64 `json:"probabilities"`
}

// SequenceTagger wraps the CRF behind a fit/predict contract and routes all
// features through a binner fitted once on the first training call.
type SequenceTagger struct {
	clf       *crf.Model
	binner    *features.Binner
	extractor features.Extractor
	config    types.ModelConfig
	resources features.Resources
	stlLogger zerolog.Logger
}

func New(cfg types.ModelConfig, extractor features.Extractor, resources features.Resources) *SequenceTagger {
	cfg = cfg.Normalized()
	t := &SequenceTagger{
		extractor: extractor,
		config:    cfg,
		resources: resources,
		stlLogger: logger.NewLogger("SequenceTagger"),
	}
	t.setupModel()
	return t
}

func (t *SequenceTagger) setupModel() {
	t.binner = features.NewBinner(t.config.Params.NumStd, t.config.Params.SizeStd)
	t.clf = crf.New(crf.Params{
		Epochs: t.config.Params.Epochs,
		Seed:   t.config.Params.Seed,
	})
}

// Fit trains the underlying model and returns the receiver for chaining.
func (t *SequenceTagger) Fit(examples []types.Example, y [][]string) (*SequenceTagger, error) {
	X, err := t.ExtractFeatures(examples, true)
	if err != nil {
		return t, err
	}
	defer X.Close()
	if err := t.clf.Fit(X, y); err != nil {
		return t, err
	}
	return t, nil
}

// Predict delegates straight to the model, no post-processing.
func (t *SequenceTagger) Predict(examples []types.Example) ([][]string, error) {
	X, err := t.ExtractFeatures(examples, false)
	if err != nil {
		return nil, err
	}
	defer X.Close()
	return t.clf.Predict(X)
}

// PredictProba returns, per token, the predicted label and the marginal mass
// on that label, so confidences are always consistent with Predict.
func (t *SequenceTagger) PredictProba(examples []types.Example) ([][]LabelConfidence, error) {
	X, err := t.ExtractFeatures(examples, false)
	if err != nil {
		return nil, err
	}
	defer X.Close()

	seq, err := t.clf.Predict(X)
	if err != nil {
		return nil, err
	}
	marginals, err := t.clf.PredictMarginals(X)
	if err != nil {
		return nil, err
	}

	result := make([][]LabelConfidence, len(seq))
	for i, labels := range seq {
		pairs := make([]LabelConfidence, len(labels))
		for j, tag := range labels {
			pairs[j] = LabelConfidence{
				Label:      tag,
				Confidence: marginals[i][j][tag],
			}
		}
		result[i] = pairs
	}
	return result, nil
}

// PredictDistribution exposes the complete marginal for every token,
// flattened across all examples into position-aligned parallel sequences.
func (t *SequenceTagger) PredictDistribution(examples []types.Example) (*Distribution, error) {
	X, err := t.ExtractFeatures(examples, false)
	if err != nil {
		return nil, err
	}
	defer X.Close()

	marginals, err := t.clf.PredictMarginals(X)
	if err != nil {
		return nil, err
	}

	classes := t.clf.Encoder().Classes
	dist := &Distribution{}
	for _, exampleMarginals := range marginals {
		for _, tokenDist := range exampleMarginals {
			labels := make([]string, len(classes))
			probs := make([]float64, len(classes))
			for s, class := range classes {
				labels[s] = class
				probs[s] = tokenDist[class]
			}
			dist.Labels = append(dist.Labels, labels)
			dist.Probabilities = append(dist.Probabilities, probs)
		}
	}
	return dist, nil
}

// ExtractFeatures runs the example extractor and routes the result through
// the binner. The binner is fitted only when fit is true (training); every
// later call reuses the fitted state read-only.
func (t *SequenceTagger) ExtractFeatures(examples []types.Example, fit bool) (dataset.Dataset, error) {
	raw, err := dataset.New(&t.config)
	if err != nil {
		return nil, err
	}
	defer raw.Close()
	for _, example := range examples {
		if err := raw.Append(t.extractor(example, &t.config, t.resources)); err != nil {
			return nil, err
		}
	}
	if fit {
		return t.binner.FitTransform(raw)
	}
	return t.binner.Transform(raw)
}

// IsSerializable reports that the tagger cannot be persisted through generic
// object serialization; use Dump/Load, which go through the model's own
// best-weights checkpoint.
func (t *SequenceTagger) IsSerializable() bool {
	return false
}
