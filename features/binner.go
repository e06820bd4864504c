package features

import (
	"errors"
	"tokensmith.com/stl/dataset"
	"tokensmith.com/stl/types"
)

// ErrNotFitted is returned when a transform is requested before Fit.
var ErrNotFitted = errors.New("model not initialized: fit must be called first")

// Binner converts features with numeric values to bucket indices, one Mapper
// per feature name. Non-numeric values pass through untouched; numeric values
// whose name was never seen as numeric during fit are dropped.
type Binner struct {
	numStd  float64
	sizeStd float64
	mappers map[string]*Mapper
	fitted  bool
}

func NewBinner(numStd, sizeStd float64) *Binner {
	return &Binner{
		numStd:  numStd,
		sizeStd: sizeStd,
		mappers: make(map[string]*Mapper),
	}
}

// Fit collects every numeric observation per feature name, then fits every
// mapper exactly once. Observations accumulate in a transient builder map so
// no partially fitted mapper is ever visible.
func (b *Binner) Fit(ds dataset.Dataset) error {
	observed := make(map[string][]float64)
	err := ds.Each(func(_ int, seq dataset.Sequence) error {
		for _, token := range seq {
			for name, value := range token {
				num, ok := value.Numeric()
				if !ok {
					// Non numeric values are not collected
					continue
				}
				observed[name] = append(observed[name], num)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for name, values := range observed {
		mapper := NewMapper(b.numStd, b.sizeStd)
		for _, v := range values {
			mapper.AddValue(v)
		}
		mapper.Fit()
		b.mappers[name] = mapper
	}
	b.fitted = true
	return nil
}

// Transform produces a fresh dataset of the same backing and shape with
// numeric values replaced by their bucket index. It never mutates binner
// state, so repeated transforms after one fit yield identical output.
func (b *Binner) Transform(ds dataset.Dataset) (dataset.Dataset, error) {
	if !b.fitted {
		return nil, ErrNotFitted
	}
	out, err := ds.Fresh()
	if err != nil {
		return nil, err
	}
	err = ds.Each(func(_ int, seq dataset.Sequence) error {
		newSeq := make(dataset.Sequence, 0, len(seq))
		for _, token := range seq {
			newToken := make(types.Token, len(token))
			for name, value := range token {
				num, ok := value.Numeric()
				if !ok {
					// Non numeric values keep their name and value as is
					newToken[name] = value
					continue
				}
				mapper, ok := b.mappers[name]
				if !ok {
					// Numeric in this dataset but never numeric during fit:
					// dropped, not passed through.
					continue
				}
				newToken[name] = types.Num(float64(mapper.MapBucket(num)))
			}
			newSeq = append(newSeq, newToken)
		}
		return out.Append(newSeq)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FitTransform runs Fit and Transform on the same dataset.
func (b *Binner) FitTransform(ds dataset.Dataset) (dataset.Dataset, error) {
	if err := b.Fit(ds); err != nil {
		return nil, err
	}
	return b.Transform(ds)
}

// Fitted reports whether Fit has completed.
func (b *Binner) Fitted() bool {
	return b.fitted
}

// Mapper exposes the fitted mapper for a feature name, if any.
func (b *Binner) Mapper(name string) (*Mapper, bool) {
	m, ok := b.mappers[name]
	return m, ok
}
