package crf

import (
	"fmt"
)

// Params is the generic key-value parameter surface of the model.
type Params struct {
	Epochs int   `json:"epochs"`
	Seed   int64 `json:"seed"`
}

const defaultEpochs = 10

func (p Params) normalized() Params {
	if p.Epochs <= 0 {
		p.Epochs = defaultEpochs
	}
	return p
}

func (m *Model) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"epochs": m.params.Epochs,
		"seed":   m.params.Seed,
	}
}

// SetParams resets the model to an untrained state with new parameters,
// mirroring the source contract where setting params rebuilds the classifier.
func (m *Model) SetParams(params map[string]interface{}) error {
	next := Params{}
	if v, ok := params["epochs"]; ok {
		epochs, err := asInt(v)
		if err != nil {
			return err
		}
		next.Epochs = epochs
	}
	if v, ok := params["seed"]; ok {
		seed, err := asInt(v)
		if err != nil {
			return err
		}
		next.Seed = int64(seed)
	}
	*m = Model{params: next.normalized()}
	return nil
}

func asInt(v interface{}) (int, error) {
	switch typed := v.(type) {
	case int:
		return typed, nil
	case int64:
		return int(typed), nil
	case float64:
		return int(typed), nil
	}
	return 0, fmt.Errorf("invalid integer parameter value %v", v)
}
