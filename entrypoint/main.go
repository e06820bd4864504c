package main

import (
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"net/http"
	"os"
	"time"
	"tokensmith.com/stl/api"
	"tokensmith.com/stl/features"
	"tokensmith.com/stl/logger"
	"tokensmith.com/stl/tagger"
	"tokensmith.com/stl/types"
	"tokensmith.com/stl/worker"
)

type Config struct {
	ConfigPath    string `envconfig:"STL_CONFIG_PATH" required:"true"`
	ModelPath     string `envconfig:"STL_MODEL_PATH" required:"true"`
	ModelName     string `envconfig:"STL_MODEL_NAME" default:"default"`
	RestAPIActive bool   `envconfig:"STL_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string `envconfig:"STL_REST_API_PORT" default:"10000"`
}

const taggerStartMaxRetries = 5

func main() {
	logger.SetupLogging()
	stlLogger := logger.NewLogger("Main")
	fatalErrLogger := stlLogger.Fatal().Caller()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fatalErrLogger.Err(err).Msg("Failed to read environment")
		os.Exit(1)
	}

	// Load the tagger with retries: config and checkpoint files may land a
	// moment after the container starts.
	taggerChannel := make(chan *tagger.SequenceTagger)
	go func() {
		for retry := 0; retry < taggerStartMaxRetries; retry++ {
			cfgs, err := types.LoadModelConfigs(config.ConfigPath)
			if err != nil {
				stlLogger.Err(err).Msg("Failed to load model configurations. Retrying in 5 sec")
				time.Sleep(5 * time.Second)
				continue
			}
			stlLogger.Info().Msgf("Loaded %d model configurations", len(cfgs))

			cfg, ok := findConfig(cfgs, config.ModelName)
			if !ok {
				stlLogger.Error().Msgf("No model configuration named %q. Retrying in 5 sec", config.ModelName)
				time.Sleep(5 * time.Second)
				continue
			}

			tgr := tagger.New(cfg, features.QueryExtractor, nil)
			if err := tgr.Load(config.ModelPath); err != nil {
				stlLogger.Err(err).Msg("Failed to load tagger checkpoint. Retrying in 5 sec")
				time.Sleep(5 * time.Second)
				continue
			}
			stlLogger.Info().Msg("Tagger loaded")
			taggerChannel <- tgr
			return
		}
		fatalErrLogger.Msg("Could not load tagger after 5 retries, exiting")
		os.Exit(1)
	}()

	// block until the tagger loads
	tgr := <-taggerChannel

	if config.RestAPIActive {
		go func() {
			stlLogger.Info().Msg("Starting API service")
			apiRequest := &api.Request{
				Tagger: tgr,
			}
			http.HandleFunc("/", apiRequest.TagData)
			host := fmt.Sprintf(":%s", config.RestAPIPort)
			stlLogger.Info().Msgf("REST API on %s", host)
			err := http.ListenAndServe(host, nil)
			fatalErrLogger.Err(err).Msg("REST API stopped with error")
		}()
	}

	stlLogger.Info().Msg("Start STL Worker")
	for {
		rmqWorker, err := worker.New(tgr)
		if err != nil {
			stlLogger.Fatal().Err(err).Msg("Could not initialize RMQ worker")
			os.Exit(1)
		}
		err = rmqWorker.StartWorker()
		if err != nil {
			stlLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
			time.Sleep(5 * time.Second)
		}
	}
}

func findConfig(cfgs []types.ModelConfig, name string) (types.ModelConfig, bool) {
	for _, cfg := range cfgs {
		if cfg.Name == name {
			return cfg, true
		}
	}
	return types.ModelConfig{}, false
}
