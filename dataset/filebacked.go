package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
)

// fileBackedDataset keeps sequences as JSON lines in a scratch file and
// materializes them lazily on iteration. Append and Each must not be
// interleaved; fit must finish before any transform starts, which is the
// contract the binner already follows.
type fileBackedDataset struct {
	dir    string
	file   *os.File
	writer *bufio.Writer
	length int
}

func NewFileBacked(dir string) (Dataset, error) {
	f, err := ioutil.TempFile(dir, "stl-dataset-*.jsonl")
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset scratch file: %w", err)
	}
	return &fileBackedDataset{
		dir:    dir,
		file:   f,
		writer: bufio.NewWriter(f),
	}, nil
}

func (ds *fileBackedDataset) Append(seq Sequence) error {
	b, err := json.Marshal(seq)
	if err != nil {
		return err
	}
	if _, err := ds.writer.Write(b); err != nil {
		return err
	}
	if err := ds.writer.WriteByte('\n'); err != nil {
		return err
	}
	ds.length++
	return nil
}

func (ds *fileBackedDataset) Len() int {
	return ds.length
}

func (ds *fileBackedDataset) Each(fn func(i int, seq Sequence) error) error {
	if err := ds.writer.Flush(); err != nil {
		return err
	}
	f, err := os.Open(ds.file.Name())
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for i := 0; ; i++ {
		line, err := r.ReadBytes('\n')
		if len(line) == 0 && err == io.EOF {
			return nil
		}
		if err != nil && err != io.EOF {
			return err
		}
		var seq Sequence
		if err := json.Unmarshal(line, &seq); err != nil {
			return err
		}
		if err := fn(i, seq); err != nil {
			return err
		}
	}
}

func (ds *fileBackedDataset) Fresh() (Dataset, error) {
	return NewFileBacked(ds.dir)
}

func (ds *fileBackedDataset) Close() error {
	name := ds.file.Name()
	if err := ds.file.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}
