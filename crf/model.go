package crf

import (
	"errors"
	"fmt"
	"math/rand"
	"tokensmith.com/stl/dataset"
)

// ErrNotFitted is returned by inference calls made before Fit or a weights
// load has completed.
var ErrNotFitted = errors.New("model not initialized: no trained weights available")

// Model is a linear-chain CRF over string-encoded token features: per-state
// emission weights, state-to-state transition weights and initial/final state
// weights. Decoding is Viterbi; marginals come from forward-backward. Training
// is an averaged structured perceptron, which keeps the fit/predict contract
// self-contained without an external optimizer.
type Model struct {
	encoder *Encoder
	params  Params

	emissions   [][]float64 // [featIdx][stateIdx]
	transitions [][]float64 // [fromState][toState]
	initial     []float64
	final       []float64
	fitted      bool
}

func New(params Params) *Model {
	return &Model{params: params.normalized()}
}

// Encoder returns the fitted vocabulary holder, nil before fit/load.
func (m *Model) Encoder() *Encoder {
	return m.encoder
}

func (m *Model) SetEncoder(enc *Encoder) {
	m.encoder = enc
}

// Fit trains weights on encoded sequences and their label sequences. Disk
// backed datasets are materialized here: the trainer shuffles between epochs
// and needs random access.
func (m *Model) Fit(ds dataset.Dataset, y [][]string) error {
	if ds.Len() != len(y) {
		return fmt.Errorf("got %d feature sequences for %d label sequences", ds.Len(), len(y))
	}

	encoder := NewEncoder()
	encoded := make([][][]int, 0, ds.Len())
	labels := make([][]int, 0, len(y))
	err := ds.Each(func(i int, seq dataset.Sequence) error {
		if len(seq) != len(y[i]) {
			return fmt.Errorf("sequence %d has %d tokens but %d labels", i, len(seq), len(y[i]))
		}
		seqFeats := make([][]int, len(seq))
		seqLabels := make([]int, len(seq))
		for t, token := range seq {
			feats := tokenFeatures(token)
			idxs := make([]int, len(feats))
			for j, feat := range feats {
				idxs[j] = encoder.addFeature(feat)
			}
			seqFeats[t] = idxs
			seqLabels[t] = encoder.addClass(y[i][t])
		}
		encoded = append(encoded, seqFeats)
		labels = append(labels, seqLabels)
		return nil
	})
	if err != nil {
		return err
	}
	if len(encoded) == 0 {
		return errors.New("cannot fit on an empty dataset")
	}

	m.encoder = encoder
	m.allocate()
	m.train(encoded, labels)
	m.fitted = true
	return nil
}

// Predict runs Viterbi decoding over every sequence.
func (m *Model) Predict(ds dataset.Dataset) ([][]string, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	out := make([][]string, 0, ds.Len())
	err := ds.Each(func(_ int, seq dataset.Sequence) error {
		encoded := m.encodeSequence(seq)
		states := m.viterbi(encoded)
		labels := make([]string, len(states))
		for t, s := range states {
			labels[t] = m.encoder.Classes[s]
		}
		out = append(out, labels)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PredictMarginals returns, for every token of every sequence, the full
// label-to-probability mapping from forward-backward inference.
func (m *Model) PredictMarginals(ds dataset.Dataset) ([][]map[string]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	out := make([][]map[string]float64, 0, ds.Len())
	err := ds.Each(func(_ int, seq dataset.Sequence) error {
		encoded := m.encodeSequence(seq)
		out = append(out, m.marginals(encoded))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Model) allocate() {
	numStates := len(m.encoder.Classes)
	numFeats := len(m.encoder.Features)
	m.emissions = newMatrix(numFeats, numStates)
	m.transitions = newMatrix(numStates, numStates)
	m.initial = make([]float64, numStates)
	m.final = make([]float64, numStates)
}

func (m *Model) train(encoded [][][]int, labels [][]int) {
	numStates := len(m.encoder.Classes)
	numFeats := len(m.encoder.Features)

	// Averaged perceptron: u accumulates step-weighted updates so the final
	// averaged weights are w - u/c without storing per-epoch snapshots.
	uEmissions := newMatrix(numFeats, numStates)
	uTransitions := newMatrix(numStates, numStates)
	uInitial := make([]float64, numStates)
	uFinal := make([]float64, numStates)
	c := 1.0

	rng := rand.New(rand.NewSource(m.params.Seed))
	order := make([]int, len(encoded))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < m.params.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
		for _, idx := range order {
			seq, gold := encoded[idx], labels[idx]
			predicted := m.viterbi(seq)
			for t := range seq {
				if predicted[t] == gold[t] && (t == 0 || predicted[t-1] == gold[t-1]) {
					continue
				}
				for _, f := range seq[t] {
					m.emissions[f][gold[t]] += 1
					m.emissions[f][predicted[t]] -= 1
					uEmissions[f][gold[t]] += c
					uEmissions[f][predicted[t]] -= c
				}
				if t == 0 {
					m.initial[gold[t]] += 1
					m.initial[predicted[t]] -= 1
					uInitial[gold[t]] += c
					uInitial[predicted[t]] -= c
				} else {
					m.transitions[gold[t-1]][gold[t]] += 1
					m.transitions[predicted[t-1]][predicted[t]] -= 1
					uTransitions[gold[t-1]][gold[t]] += c
					uTransitions[predicted[t-1]][predicted[t]] -= c
				}
				if t == len(seq)-1 {
					m.final[gold[t]] += 1
					m.final[predicted[t]] -= 1
					uFinal[gold[t]] += c
					uFinal[predicted[t]] -= c
				}
			}
			c++
		}
	}

	for f := range m.emissions {
		for s := range m.emissions[f] {
			m.emissions[f][s] -= uEmissions[f][s] / c
		}
	}
	for p := range m.transitions {
		for s := range m.transitions[p] {
			m.transitions[p][s] -= uTransitions[p][s] / c
		}
	}
	for s := range m.initial {
		m.initial[s] -= uInitial[s] / c
		m.final[s] -= uFinal[s] / c
	}
}

// encodeSequence maps tokens into known feature indices; unseen features are
// silently dropped.
func (m *Model) encodeSequence(seq dataset.Sequence) [][]int {
	encoded := make([][]int, len(seq))
	for t, token := range seq {
		feats := tokenFeatures(token)
		idxs := make([]int, 0, len(feats))
		for _, feat := range feats {
			if idx, ok := m.encoder.FeatureIndex(feat); ok {
				idxs = append(idxs, idx)
			}
		}
		encoded[t] = idxs
	}
	return encoded
}

func (m *Model) emissionScore(feats []int, state int) float64 {
	score := 0.0
	for _, f := range feats {
		score += m.emissions[f][state]
	}
	return score
}

func (m *Model) viterbi(seq [][]int) []int {
	numStates := len(m.encoder.Classes)
	if len(seq) == 0 {
		return nil
	}

	delta := newMatrix(len(seq), numStates)
	backptr := make([][]int, len(seq))
	for t := range backptr {
		backptr[t] = make([]int, numStates)
	}

	for s := 0; s < numStates; s++ {
		delta[0][s] = m.initial[s] + m.emissionScore(seq[0], s)
	}
	for t := 1; t < len(seq); t++ {
		for s := 0; s < numStates; s++ {
			best, bestPrev := delta[t-1][0]+m.transitions[0][s], 0
			for p := 1; p < numStates; p++ {
				if w := delta[t-1][p] + m.transitions[p][s]; w > best {
					best, bestPrev = w, p
				}
			}
			delta[t][s] = best + m.emissionScore(seq[t], s)
			backptr[t][s] = bestPrev
		}
	}

	last := len(seq) - 1
	bestState := 0
	bestScore := delta[last][0] + m.final[0]
	for s := 1; s < numStates; s++ {
		if w := delta[last][s] + m.final[s]; w > bestScore {
			bestScore, bestState = w, s
		}
	}

	states := make([]int, len(seq))
	states[last] = bestState
	for t := last; t > 0; t-- {
		states[t-1] = backptr[t][states[t]]
	}
	return states
}

func newMatrix(rows, cols int) [][]float64 {
	matrix := make([][]float64, rows)
	for i := range matrix {
		matrix[i] = make([]float64, cols)
	}
	return matrix
}
