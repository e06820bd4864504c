package crf

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
)

// checkpoint is the best-weights snapshot format. It carries no vocabulary,
// only a checksum of it: the encoder must be rebuilt before loading.
type checkpoint struct {
	VocabChecksum uint64      `json:"vocab_checksum"`
	Initial       []float64   `json:"initial_weights"`
	Final         []float64   `json:"final_weights"`
	Emissions     [][]float64 `json:"emission_weights"`
	Transitions   [][]float64 `json:"transition_weights"`
}

// BuildParams reconstructs the encoder and weight shapes from a persisted
// vocabulary, the required step before LoadBestWeights.
func (m *Model) BuildParams(features map[string]int, classes []string) {
	m.encoder = RestoreEncoder(features, classes)
	m.allocate()
	m.fitted = false
}

func (m *Model) SaveBestWeights(path string) error {
	if !m.fitted {
		return ErrNotFitted
	}
	snapshot := checkpoint{
		VocabChecksum: m.encoder.Checksum(),
		Initial:       m.initial,
		Final:         m.final,
		Emissions:     m.emissions,
		Transitions:   m.transitions,
	}
	b, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, b, 0644)
}

func (m *Model) LoadBestWeights(path string) error {
	if m.encoder == nil {
		return fmt.Errorf("cannot load weights before encoder vocabulary is rebuilt")
	}
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	var snapshot checkpoint
	if err := json.Unmarshal(buf, &snapshot); err != nil {
		return fmt.Errorf("failed to decode weights snapshot: %w", err)
	}
	if snapshot.VocabChecksum != m.encoder.Checksum() {
		return fmt.Errorf("weights snapshot at %s does not match the rebuilt vocabulary", path)
	}
	numStates := len(m.encoder.Classes)
	numFeats := len(m.encoder.Features)
	if len(snapshot.Initial) != numStates ||
		len(snapshot.Final) != numStates ||
		len(snapshot.Emissions) != numFeats ||
		len(snapshot.Transitions) != numStates {
		return fmt.Errorf("weights snapshot at %s has wrong dimensions", path)
	}
	m.initial = snapshot.Initial
	m.final = snapshot.Final
	m.emissions = snapshot.Emissions
	m.transitions = snapshot.Transitions
	m.fitted = true
	return nil
}
