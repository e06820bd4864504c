package tagger

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"tokensmith.com/stl/crf"
	"tokensmith.com/stl/features"
)

// BestWeightsFile is the sibling file holding the model's weight checkpoint,
// named deterministically relative to the model path.
const BestWeightsFile = "best_crf_wts.json"

const componentName = "SequenceTagger"

// metadata is what lives at the model path itself: everything needed to
// rebuild the encoder vocabulary and binner before weights can be applied.
type metadata struct {
	Features map[string]int      `json:"features"`
	Classes  []string            `json:"classes"`
	Binner   features.BinnerState `json:"binner"`
}

func bestWeightsPath(modelPath string) string {
	return filepath.Join(filepath.Dir(modelPath), BestWeightsFile)
}

// Dump writes the vocabulary/binner metadata at path and the best-weights
// checkpoint to the deterministic sibling file.
func (t *SequenceTagger) Dump(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	enc := t.clf.Encoder()
	if enc == nil {
		return crf.ErrNotFitted
	}
	feats, classes := enc.FeatsAndClasses()
	meta := metadata{
		Features: feats,
		Classes:  classes,
		Binner:   t.binner.State(),
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := ioutil.WriteFile(path, b, 0644); err != nil {
		return err
	}
	return t.clf.SaveBestWeights(bestWeightsPath(path))
}

// Load rebuilds the encoder vocabulary and binner from the metadata file,
// then applies the best-weights checkpoint. Missing files surface as a
// LoadError, not a raw fs error.
func (t *SequenceTagger) Load(path string) error {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return &LoadError{Component: componentName, Path: path, Err: err}
	}
	var meta metadata
	if err := json.Unmarshal(buf, &meta); err != nil {
		return err
	}
	t.binner = features.RestoreBinner(meta.Binner)
	t.clf.BuildParams(meta.Features, meta.Classes)
	wtsPath := bestWeightsPath(path)
	if err := t.clf.LoadBestWeights(wtsPath); err != nil {
		if os.IsNotExist(err) {
			return &LoadError{Component: componentName, Path: wtsPath, Err: err}
		}
		return err
	}
	return nil
}
