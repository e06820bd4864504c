package crf

import (
	"sort"
	"tokensmith.com/stl/types"
	"tokensmith.com/stl/utils"
)

// Encoder owns the feature and label vocabularies of a fitted model. It must
// be reconstructed before persisted weights can be applied; the weights file
// only carries a checksum of it.
type Encoder struct {
	Features map[string]int
	Classes  []string

	classIndex map[string]int
}

func NewEncoder() *Encoder {
	return &Encoder{
		Features:   make(map[string]int),
		classIndex: make(map[string]int),
	}
}

func RestoreEncoder(features map[string]int, classes []string) *Encoder {
	enc := &Encoder{
		Features:   features,
		Classes:    classes,
		classIndex: make(map[string]int, len(classes)),
	}
	for i, class := range classes {
		enc.classIndex[class] = i
	}
	return enc
}

func (enc *Encoder) addFeature(feat string) int {
	idx, ok := enc.Features[feat]
	if ok {
		return idx
	}
	idx = len(enc.Features)
	enc.Features[feat] = idx
	return idx
}

func (enc *Encoder) addClass(label string) int {
	idx, ok := enc.classIndex[label]
	if ok {
		return idx
	}
	idx = len(enc.Classes)
	enc.Classes = append(enc.Classes, label)
	enc.classIndex[label] = idx
	return idx
}

func (enc *Encoder) FeatureIndex(feat string) (int, bool) {
	idx, ok := enc.Features[feat]
	return idx, ok
}

func (enc *Encoder) ClassIndex(label string) (int, bool) {
	idx, ok := enc.classIndex[label]
	return idx, ok
}

func (enc *Encoder) FeatsAndClasses() (map[string]int, []string) {
	return enc.Features, enc.Classes
}

// Checksum hashes the vocabulary so a weights snapshot can detect being
// loaded against the wrong encoder.
func (enc *Encoder) Checksum() uint64 {
	names := make([]string, 0, len(enc.Features)+len(enc.Classes))
	for feat := range enc.Features {
		names = append(names, feat)
	}
	sort.Strings(names)
	names = append(names, enc.Classes...)
	return utils.HashStrings(names)
}

// tokenFeatures flattens one token's feature dictionary into the model's
// string feature space, sorted for determinism.
func tokenFeatures(token types.Token) []string {
	feats := make([]string, 0, len(token))
	for name, value := range token {
		feats = append(feats, name+"|"+value.String())
	}
	sort.Strings(feats)
	return feats
}
