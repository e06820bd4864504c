package features

// MapperState is the serializable fitted state of a Mapper. The raw
// observation history is deliberately not part of it: a restored mapper is
// read-only.
type MapperState struct {
	Mean       float64   `json:"mean"`
	Std        float64   `json:"std"`
	Boundaries []float64 `json:"boundaries"`
}

type BinnerState struct {
	NumStd  float64                `json:"num_std"`
	SizeStd float64                `json:"size_std"`
	Mappers map[string]MapperState `json:"mappers"`
}

func (b *Binner) State() BinnerState {
	state := BinnerState{
		NumStd:  b.numStd,
		SizeStd: b.sizeStd,
		Mappers: make(map[string]MapperState, len(b.mappers)),
	}
	for name, mapper := range b.mappers {
		state.Mappers[name] = MapperState{
			Mean:       mapper.mean,
			Std:        mapper.std,
			Boundaries: mapper.Boundaries(),
		}
	}
	return state
}

func RestoreBinner(state BinnerState) *Binner {
	binner := NewBinner(state.NumStd, state.SizeStd)
	for name, ms := range state.Mappers {
		mapper := NewMapper(state.NumStd, state.SizeStd)
		mapper.mean = ms.Mean
		mapper.std = ms.Std
		mapper.bins = ms.Boundaries
		mapper.fitted = true
		binner.mappers[name] = mapper
	}
	binner.fitted = true
	return binner
}
