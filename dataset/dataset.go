package dataset

import (
	"tokensmith.com/stl/types"
)

// Sequence is the per-token feature dictionaries of a single example.
type Sequence = []types.Token

// Dataset is an ordered collection of Sequences. The two implementations
// (in-memory and disk-backed) share one append/iterate contract so feature
// binning works against either. Fresh returns an empty dataset of the same
// representation, which transforms use to keep input and output backings
// aligned.
type Dataset interface {
	Append(seq Sequence) error
	Len() int
	Each(fn func(i int, seq Sequence) error) error
	Fresh() (Dataset, error)
	Close() error
}

type memoryDataset struct {
	sequences []Sequence
}

func NewInMemory() Dataset {
	return &memoryDataset{}
}

func (ds *memoryDataset) Append(seq Sequence) error {
	ds.sequences = append(ds.sequences, seq)
	return nil
}

func (ds *memoryDataset) Len() int {
	return len(ds.sequences)
}

func (ds *memoryDataset) Each(fn func(i int, seq Sequence) error) error {
	for i, seq := range ds.sequences {
		if err := fn(i, seq); err != nil {
			return err
		}
	}
	return nil
}

func (ds *memoryDataset) Fresh() (Dataset, error) {
	return NewInMemory(), nil
}

func (ds *memoryDataset) Close() error {
	return nil
}

// New picks the dataset backing configured for the model.
func New(cfg *types.ModelConfig) (Dataset, error) {
	if cfg != nil && cfg.DatasetBacking == types.BackingDisk {
		return NewFileBacked(cfg.ScratchDir)
	}
	return NewInMemory(), nil
}
