package features

import (
	"strings"
	"tokensmith.com/stl/dataset"
	"tokensmith.com/stl/types"
)

// Resources carries side data (gazetteers and the like) an extractor may use.
type Resources map[string]interface{}

// Extractor maps one example to per-token feature dictionaries. It must be
// deterministic so that binning fit/transform symmetry holds across training
// and inference.
type Extractor func(ex types.Example, cfg *types.ModelConfig, res Resources) dataset.Sequence

// QueryExtractor is the default extractor for query examples. Which feature
// groups it emits is driven by the model config's feature list.
func QueryExtractor(ex types.Example, cfg *types.ModelConfig, _ Resources) dataset.Sequence {
	seq := make(dataset.Sequence, 0, len(ex.Tokens))
	for i, word := range ex.Tokens {
		token := types.Token{}
		lower := strings.ToLower(word)
		if cfg.CheckFeature(types.FeatureWord) {
			token["word"] = types.Cat(lower)
		}
		if cfg.CheckFeature(types.FeatureLength) {
			token["len"] = types.Num(float64(len(word)))
		}
		if cfg.CheckFeature(types.FeaturePosition) {
			token["pos"] = types.Num(float64(i))
			if i == 0 {
				token["start"] = types.Cat("true")
			}
			if i == len(ex.Tokens)-1 {
				token["end"] = types.Cat("true")
			}
		}
		if cfg.CheckFeature(types.FeaturePrefix) {
			token["prefix"] = types.Cat(prefix(lower, 3))
		}
		if cfg.CheckFeature(types.FeatureSuffix) {
			token["suffix"] = types.Cat(suffix(lower, 3))
		}
		if len(token) == 0 {
			// A token must never be empty or sequence alignment breaks
			token["word"] = types.Cat(lower)
		}
		seq = append(seq, token)
	}
	return seq
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func suffix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
