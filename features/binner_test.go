package features

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"tokensmith.com/stl/dataset"
	"tokensmith.com/stl/types"
)

func buildDataset(t *testing.T, sequences ...dataset.Sequence) dataset.Dataset {
	t.Helper()
	ds := dataset.NewInMemory()
	for _, seq := range sequences {
		require.NoError(t, ds.Append(seq))
	}
	return ds
}

func collect(t *testing.T, ds dataset.Dataset) []dataset.Sequence {
	t.Helper()
	var out []dataset.Sequence
	err := ds.Each(func(_ int, seq dataset.Sequence) error {
		out = append(out, seq)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestBinnerFitTransform(t *testing.T) {
	ds := buildDataset(t,
		dataset.Sequence{{"len": types.Num(1), "pos": types.Cat("NN")}},
		dataset.Sequence{{"len": types.Num(5), "pos": types.Cat("NN")}},
	)

	binner := NewBinner(2, 0.5)
	binned, err := binner.FitTransform(ds)
	require.NoError(t, err)

	// len values 1 and 5: mean = 3, std = 2, so the boundaries are the
	// integers -1..7 and the buckets come out exactly.
	expected := []dataset.Sequence{
		{{"len": types.Num(3), "pos": types.Cat("NN")}},
		{{"len": types.Num(7), "pos": types.Cat("NN")}},
	}
	if diff := cmp.Diff(expected, collect(t, binned), cmp.AllowUnexported(types.Value{})); diff != "" {
		t.Errorf("unexpected binned dataset (-want +got):\n%s", diff)
	}
}

func TestBinnerFileBackedDataset(t *testing.T) {
	sequences := []dataset.Sequence{
		{{"len": types.Num(1), "pos": types.Cat("NN")}},
		{{"len": types.Num(5), "pos": types.Cat("NN")}},
	}

	memory := buildDataset(t, sequences...)
	memoryBinner := NewBinner(2, 0.5)
	wantDS, err := memoryBinner.FitTransform(memory)
	require.NoError(t, err)
	want := collect(t, wantDS)

	disk, err := dataset.NewFileBacked(t.TempDir())
	require.NoError(t, err)
	defer disk.Close()
	for _, seq := range sequences {
		require.NoError(t, disk.Append(seq))
	}

	diskBinner := NewBinner(2, 0.5)
	binned, err := diskBinner.FitTransform(disk)
	require.NoError(t, err)
	defer binned.Close()

	// file-backed in, file-backed out
	fresh, err := dataset.NewFileBacked(t.TempDir())
	require.NoError(t, err)
	defer fresh.Close()
	require.IsType(t, fresh, binned)

	if diff := cmp.Diff(want, collect(t, binned), cmp.AllowUnexported(types.Value{})); diff != "" {
		t.Errorf("disk-backed binning disagrees with in-memory (-memory +disk):\n%s", diff)
	}
}

func TestBinnerTransformBeforeFit(t *testing.T) {
	ds := buildDataset(t, dataset.Sequence{{"len": types.Num(1)}})

	binner := NewBinner(2, 0.5)
	_, err := binner.Transform(ds)
	require.ErrorIs(t, err, ErrNotFitted)
	require.False(t, binner.Fitted())
}

func TestBinnerDropsUnseenNumeric(t *testing.T) {
	train := buildDataset(t,
		dataset.Sequence{{"len": types.Num(1)}},
		dataset.Sequence{{"len": types.Num(5)}},
	)
	binner := NewBinner(2, 0.5)
	require.NoError(t, binner.Fit(train))

	test := buildDataset(t, dataset.Sequence{{
		"len":   types.Num(1),
		"width": types.Num(9),
		"pos":   types.Cat("VB"),
	}})
	binned, err := binner.Transform(test)
	require.NoError(t, err)

	sequences := collect(t, binned)
	require.Len(t, sequences, 1)
	token := sequences[0][0]
	require.NotContains(t, token, "width", "numeric feature unseen during fit must be dropped")
	require.Contains(t, token, "len")
	require.Contains(t, token, "pos")
	require.Equal(t, types.Cat("VB"), token["pos"])
}

func TestBinnerCoercesNumericStrings(t *testing.T) {
	ds := buildDataset(t,
		dataset.Sequence{{"len": types.Cat("1")}},
		dataset.Sequence{{"len": types.Num(5)}},
	)
	binner := NewBinner(2, 0.5)
	binned, err := binner.FitTransform(ds)
	require.NoError(t, err)

	sequences := collect(t, binned)
	require.Equal(t, types.Num(3), sequences[0][0]["len"], `"1" bins the same as 1`)
	require.Equal(t, types.Num(7), sequences[1][0]["len"])
}

func TestBinnerTransformIdempotent(t *testing.T) {
	ds := buildDataset(t,
		dataset.Sequence{{"len": types.Num(1), "pos": types.Cat("NN")}},
		dataset.Sequence{{"len": types.Num(2), "pos": types.Cat("VB")}},
		dataset.Sequence{{"len": types.Num(9), "pos": types.Cat("NN")}},
	)
	binner := NewBinner(2, 0.5)
	require.NoError(t, binner.Fit(ds))

	first, err := binner.Transform(ds)
	require.NoError(t, err)
	second, err := binner.Transform(ds)
	require.NoError(t, err)

	if diff := cmp.Diff(collect(t, first), collect(t, second), cmp.AllowUnexported(types.Value{})); diff != "" {
		t.Errorf("repeated transforms disagree (-first +second):\n%s", diff)
	}
}

func TestBinnerExtremeValuesLandInEdgeBuckets(t *testing.T) {
	train := buildDataset(t,
		dataset.Sequence{{"len": types.Num(1)}},
		dataset.Sequence{{"len": types.Num(5)}},
	)
	binner := NewBinner(2, 0.5)
	require.NoError(t, binner.Fit(train))

	mapper, ok := binner.Mapper("len")
	require.True(t, ok)

	test := buildDataset(t, dataset.Sequence{
		{"len": types.Num(-1000)},
		{"len": types.Num(1000)},
	})
	binned, err := binner.Transform(test)
	require.NoError(t, err)

	sequences := collect(t, binned)
	require.Equal(t, types.Num(0), sequences[0][0]["len"], "far below the range is bucket 0")
	require.Equal(t, types.Num(float64(len(mapper.Boundaries()))), sequences[0][1]["len"],
		"far above the range is the last bucket")
}
