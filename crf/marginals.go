package crf

import (
	"math"
)

// marginals runs forward-backward in log space and returns per-token label
// probability distributions.
func (m *Model) marginals(seq [][]int) []map[string]float64 {
	numStates := len(m.encoder.Classes)
	if len(seq) == 0 {
		return nil
	}

	alpha := newMatrix(len(seq), numStates)
	beta := newMatrix(len(seq), numStates)
	work := make([]float64, numStates)

	for s := 0; s < numStates; s++ {
		alpha[0][s] = m.initial[s] + m.emissionScore(seq[0], s)
	}
	for t := 1; t < len(seq); t++ {
		for s := 0; s < numStates; s++ {
			for p := 0; p < numStates; p++ {
				work[p] = alpha[t-1][p] + m.transitions[p][s]
			}
			alpha[t][s] = logSumExp(work) + m.emissionScore(seq[t], s)
		}
	}

	last := len(seq) - 1
	for s := 0; s < numStates; s++ {
		beta[last][s] = m.final[s]
	}
	for t := last - 1; t >= 0; t-- {
		for p := 0; p < numStates; p++ {
			for s := 0; s < numStates; s++ {
				work[s] = m.transitions[p][s] + m.emissionScore(seq[t+1], s) + beta[t+1][s]
			}
			beta[t][p] = logSumExp(work)
		}
	}

	for s := 0; s < numStates; s++ {
		work[s] = alpha[last][s] + m.final[s]
	}
	logZ := logSumExp(work)

	result := make([]map[string]float64, len(seq))
	for t := range seq {
		dist := make(map[string]float64, numStates)
		for s := 0; s < numStates; s++ {
			dist[m.encoder.Classes[s]] = math.Exp(alpha[t][s] + beta[t][s] - logZ)
		}
		result[t] = dist
	}
	return result
}

func logSumExp(values []float64) float64 {
	max := math.Inf(-1)
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	if math.IsInf(max, -1) {
		return max
	}
	sum := 0.0
	for _, v := range values {
		sum += math.Exp(v - max)
	}
	return max + math.Log(sum)
}
