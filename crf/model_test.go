package crf

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"tokensmith.com/stl/dataset"
	"tokensmith.com/stl/types"
)

// trainingCorpus is small but fully separable: the word alone determines the
// label, so a correct trainer reaches zero training error.
func trainingCorpus(t *testing.T) (dataset.Dataset, [][]string) {
	t.Helper()
	sentences := [][]string{
		{"the", "dog", "runs"},
		{"the", "cat", "sleeps"},
		{"a", "dog", "sleeps"},
		{"a", "cat", "runs"},
		{"the", "dog", "sleeps"},
	}
	labels := [][]string{
		{"DET", "NOUN", "VERB"},
		{"DET", "NOUN", "VERB"},
		{"DET", "NOUN", "VERB"},
		{"DET", "NOUN", "VERB"},
		{"DET", "NOUN", "VERB"},
	}
	ds := dataset.NewInMemory()
	for _, sentence := range sentences {
		seq := make(dataset.Sequence, len(sentence))
		for i, word := range sentence {
			seq[i] = types.Token{"word": types.Cat(word)}
		}
		require.NoError(t, ds.Append(seq))
	}
	return ds, labels
}

func fitModel(t *testing.T) (*Model, dataset.Dataset, [][]string) {
	t.Helper()
	ds, labels := trainingCorpus(t)
	model := New(Params{Epochs: 10, Seed: 42})
	require.NoError(t, model.Fit(ds, labels))
	return model, ds, labels
}

func TestFitAndPredict(t *testing.T) {
	model, ds, labels := fitModel(t)

	predictions, err := model.Predict(ds)
	require.NoError(t, err)
	require.Equal(t, labels, predictions, "separable corpus must be labeled exactly")
}

func TestPredictMarginals(t *testing.T) {
	model, ds, _ := fitModel(t)

	predictions, err := model.Predict(ds)
	require.NoError(t, err)
	marginals, err := model.PredictMarginals(ds)
	require.NoError(t, err)
	require.Len(t, marginals, ds.Len())

	for i, seq := range marginals {
		for pos, tokenMarginals := range seq {
			require.Len(t, tokenMarginals, len(model.Encoder().Classes))
			sum := 0.0
			best, bestLabel := math.Inf(-1), ""
			for label, p := range tokenMarginals {
				require.GreaterOrEqual(t, p, 0.0)
				require.LessOrEqual(t, p, 1.0+1e-9)
				sum += p
				if p > best {
					best, bestLabel = p, label
				}
			}
			require.InDelta(t, 1.0, sum, 1e-6, "marginals of sequence %d token %d must sum to 1", i, pos)
			require.Equal(t, predictions[i][pos], bestLabel,
				"on a separable corpus the marginal argmax agrees with Viterbi")
		}
	}
}

func TestPredictBeforeFit(t *testing.T) {
	model := New(Params{})
	ds, _ := trainingCorpus(t)

	_, err := model.Predict(ds)
	require.ErrorIs(t, err, ErrNotFitted)
	_, err = model.PredictMarginals(ds)
	require.ErrorIs(t, err, ErrNotFitted)
}

func TestFitRejectsMismatchedLabels(t *testing.T) {
	ds, labels := trainingCorpus(t)
	model := New(Params{})

	require.Error(t, model.Fit(ds, labels[:len(labels)-1]))

	broken := make([][]string, len(labels))
	copy(broken, labels)
	broken[0] = []string{"DET"}
	require.Error(t, model.Fit(ds, broken))
}

func TestUnknownFeaturesAreSkipped(t *testing.T) {
	model, _, _ := fitModel(t)

	unseen := dataset.NewInMemory()
	require.NoError(t, unseen.Append(dataset.Sequence{
		{"word": types.Cat("zebra"), "shape": types.Cat("xxxxx")},
	}))
	predictions, err := model.Predict(unseen)
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	require.Len(t, predictions[0], 1)
	require.Contains(t, model.Encoder().Classes, predictions[0][0])
}

func TestParamsRoundTrip(t *testing.T) {
	model := New(Params{Epochs: 7, Seed: 13})
	require.Equal(t, map[string]interface{}{"epochs": 7, "seed": int64(13)}, model.GetParams())

	require.NoError(t, model.SetParams(map[string]interface{}{"epochs": 3, "seed": float64(5)}))
	require.Equal(t, map[string]interface{}{"epochs": 3, "seed": int64(5)}, model.GetParams())

	require.Error(t, model.SetParams(map[string]interface{}{"epochs": "many"}))
}

func TestSetParamsResetsModel(t *testing.T) {
	model, ds, _ := fitModel(t)

	require.NoError(t, model.SetParams(map[string]interface{}{"epochs": 5}))
	_, err := model.Predict(ds)
	require.ErrorIs(t, err, ErrNotFitted)
}

func TestWeightsRoundTrip(t *testing.T) {
	model, ds, _ := fitModel(t)
	want, err := model.Predict(ds)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "best_crf_wts.json")
	require.NoError(t, model.SaveBestWeights(path))

	restored := New(Params{})
	features, classes := model.Encoder().FeatsAndClasses()
	restored.BuildParams(features, classes)
	require.NoError(t, restored.LoadBestWeights(path))

	got, err := restored.Predict(ds)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadBestWeightsGuards(t *testing.T) {
	model, _, _ := fitModel(t)
	path := filepath.Join(t.TempDir(), "best_crf_wts.json")
	require.NoError(t, model.SaveBestWeights(path))

	// No encoder rebuilt yet.
	bare := New(Params{})
	require.Error(t, bare.LoadBestWeights(path))

	// Rebuilt against a different vocabulary.
	mismatched := New(Params{})
	mismatched.BuildParams(map[string]int{"word|other": 0}, []string{"X", "Y"})
	require.Error(t, mismatched.LoadBestWeights(path))
}

func TestSaveBestWeightsBeforeFit(t *testing.T) {
	model := New(Params{})
	err := model.SaveBestWeights(filepath.Join(t.TempDir(), "best_crf_wts.json"))
	require.ErrorIs(t, err, ErrNotFitted)
}
