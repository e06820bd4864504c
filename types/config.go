package types

import (
	"errors"
	"gopkg.in/yaml.v3"
	"io/ioutil"
	"os"
	"path"
	"strings"
	"sync"
	"tokensmith.com/stl/logger"
)

const (
	// example types
	ExampleTypeQuery = "query"

	// dataset backing
	BackingMemory = "memory"
	BackingDisk   = "disk"

	// feature groups understood by the default extractor
	FeatureWord     = "word"
	FeatureLength   = "length"
	FeaturePosition = "position"
	FeaturePrefix   = "prefix"
	FeatureSuffix   = "suffix"
)

const (
	DefaultNumStd  = 2
	DefaultSizeStd = 0.5
	DefaultEpochs  = 10
)

type ModelParams struct {
	NumStd  float64 `yaml:"num_std" json:"num_std"`
	SizeStd float64 `yaml:"size_std" json:"size_std"`
	Epochs  int     `yaml:"epochs" json:"epochs"`
	Seed    int64   `yaml:"seed" json:"seed"`
}

type ModelConfig struct {
	Name           string      `json:"name"`
	FilePath       string      `json:"file_path"`
	ExampleType    string      `yaml:"example_type" json:"example_type"`
	Features       []string    `yaml:"features" json:"features"`
	Params         ModelParams `yaml:"params" json:"params"`
	DatasetBacking string      `yaml:"dataset_backing" json:"dataset_backing"`
	ScratchDir     string      `yaml:"scratch_dir" json:"scratch_dir"`
}

func (cfg ModelConfig) CheckFeature(featureName string) bool {
	for _, feat := range cfg.Features {
		if feat == featureName {
			return true
		}
	}

	return false
}

// Normalized fills in default hyperparameters for fields the yaml left empty.
func (cfg ModelConfig) Normalized() ModelConfig {
	if cfg.Params.NumStd == 0 {
		cfg.Params.NumStd = DefaultNumStd
	}
	if cfg.Params.SizeStd == 0 {
		cfg.Params.SizeStd = DefaultSizeStd
	}
	if cfg.Params.Epochs == 0 {
		cfg.Params.Epochs = DefaultEpochs
	}
	if cfg.ExampleType == "" {
		cfg.ExampleType = ExampleTypeQuery
	}
	if cfg.DatasetBacking == "" {
		cfg.DatasetBacking = BackingMemory
	}
	return cfg
}

func LoadModelConfigs(dirPath string) ([]ModelConfig, error) {
	stlLogger := logger.NewLogger("LoadModelConfigs")

	files, err := ioutil.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	configChan := make(chan ModelConfig, len(files))
	for _, f := range files {
		// Skip dirs and non-yaml files
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}

		wg.Add(1)
		go func(file os.FileInfo) {
			defer wg.Done()
			cfg := ModelConfig{
				Name:     strings.Split(file.Name(), ".yaml")[0],
				FilePath: path.Join(dirPath, file.Name()),
			}
			buf, err := ioutil.ReadFile(cfg.FilePath)
			if err != nil {
				stlLogger.Err(err)
				return
			}
			if err := yaml.Unmarshal(buf, &cfg); err != nil {
				stlLogger.Err(err)
				return
			}

			cfg = cfg.Normalized()
			if cfg.DatasetBacking != BackingMemory && cfg.DatasetBacking != BackingDisk {
				stlLogger.Err(errors.New("wrong dataset backing"))
				return
			}

			configChan <- cfg
		}(f)
	}

	go func() {
		wg.Wait()
		close(configChan)
	}()

	configs := make([]ModelConfig, 0, len(configChan))
	for cfg := range configChan {
		configs = append(configs, cfg)
	}
	return configs, nil
}
