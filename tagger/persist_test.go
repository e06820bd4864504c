package tagger

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/stretchr/testify/require"
	"tokensmith.com/stl/crf"
	"tokensmith.com/stl/features"
)

func TestTaggerDumpLoad(t *testing.T) {
	tgr, examples, _ := trainedTagger(t)
	want, err := tgr.Predict(examples)
	require.NoError(t, err)

	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	require.NoError(t, tgr.Dump(modelPath))
	require.FileExists(t, modelPath)
	require.FileExists(t, filepath.Join(dir, BestWeightsFile))

	restored := New(testConfig(), features.QueryExtractor, nil)
	require.NoError(t, restored.Load(modelPath))

	got, err := restored.Predict(examples)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestTaggerDumpIsStable(t *testing.T) {
	tgr, _, _ := trainedTagger(t)

	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	require.NoError(t, tgr.Dump(modelPath))

	restored := New(testConfig(), features.QueryExtractor, nil)
	require.NoError(t, restored.Load(modelPath))

	secondDir := t.TempDir()
	require.NoError(t, restored.Dump(filepath.Join(secondDir, "model.json")))

	// A load/dump round trip must not change the weights checkpoint.
	first, err := ioutil.ReadFile(filepath.Join(dir, BestWeightsFile))
	require.NoError(t, err)
	second, err := ioutil.ReadFile(filepath.Join(secondDir, BestWeightsFile))
	require.NoError(t, err)
	require.True(t, jsonpatch.Equal(first, second), "weights checkpoints differ after round trip")
}

func TestTaggerDumpBeforeFit(t *testing.T) {
	tgr := New(testConfig(), features.QueryExtractor, nil)
	err := tgr.Dump(filepath.Join(t.TempDir(), "model.json"))
	require.ErrorIs(t, err, crf.ErrNotFitted)
}

func TestTaggerLoadMissingMetadata(t *testing.T) {
	tgr := New(testConfig(), features.QueryExtractor, nil)
	missing := filepath.Join(t.TempDir(), "model.json")

	err := tgr.Load(missing)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	require.Equal(t, "SequenceTagger", loadErr.Component)
	require.Equal(t, missing, loadErr.Path)
}

func TestTaggerLoadMissingWeights(t *testing.T) {
	tgr, _, _ := trainedTagger(t)

	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	require.NoError(t, tgr.Dump(modelPath))
	weightsPath := filepath.Join(dir, BestWeightsFile)
	require.NoError(t, os.Remove(weightsPath))

	restored := New(testConfig(), features.QueryExtractor, nil)
	err := restored.Load(modelPath)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	require.Equal(t, weightsPath, loadErr.Path)
}
