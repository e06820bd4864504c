package features

import (
	"math"
	"sort"
)

// Standard deviations at or below this are treated as zero: constant features
// collapse to a single boundary instead of producing meaningless micro-bins.
const zeroStd = 1e-20

// Mapper discretizes one numeric feature into buckets derived from the
// feature's own mean and standard deviation, so the bucketing scheme is
// scale-invariant across heterogeneous features. With numStd = 2 and
// sizeStd = 0.5 the buckets look like:
//
//	bucket 0: (-INF, mean - std * 2)
//	bucket 1: [mean - std * 2, mean - std * 1.5)
//	...
//	bucket 9: [mean + std * 2, INF)
type Mapper struct {
	numStd  float64
	sizeStd float64

	values []float64
	mean   float64
	std    float64
	bins   []float64
	fitted bool
}

func NewMapper(numStd, sizeStd float64) *Mapper {
	return &Mapper{
		numStd:  numStd,
		sizeStd: sizeStd,
	}
}

// AddValue collects one observation. Only storage, no statistics yet.
func (m *Mapper) AddValue(value float64) {
	m.values = append(m.values, value)
}

// Fit computes population mean/std over everything collected so far and lays
// out the bin boundaries. Refitting after more AddValue calls recomputes over
// the full history, not just the latest batch.
func (m *Mapper) Fit() {
	m.mean = mean(m.values)
	m.std = stddev(m.values, m.mean)

	rangeStart := m.mean - m.std*m.numStd
	numBin := 2 * int(m.numStd/m.sizeStd)
	bins := []float64{rangeStart}

	for numBin > 0 && m.std > zeroStd {
		rangeStart += m.std * m.sizeStd
		bins = append(bins, rangeStart)
		numBin--
	}
	m.bins = bins
	m.fitted = true
}

// MapBucket returns the index of the first boundary strictly greater than the
// value, i.e. how many boundaries are <= value. Values below the lowest
// boundary map to 0, values above the highest map to len(boundaries).
func (m *Mapper) MapBucket(value float64) int {
	return sort.Search(len(m.bins), func(i int) bool {
		return m.bins[i] > value
	})
}

// Boundaries returns a copy of the fitted bin boundaries, nil before Fit.
func (m *Mapper) Boundaries() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.bins))
	copy(out, m.bins)
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
