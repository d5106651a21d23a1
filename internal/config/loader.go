package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/opera-sds/granulewatch/internal/cmr"
)

// configName is the config file name without extension.
const configName = ".granulewatch"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for granulewatch settings.
const envPrefix = "GRANULEWATCH"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("cmr.base_url", cmr.DefaultBaseURL)
	viperCfg.SetDefault("cmr.page_size", cmr.DefaultPageSize)
	viperCfg.SetDefault("cmr.max_attempts", cmr.DefaultMaxAttempts)
	viperCfg.SetDefault("cmr.request_interval", cmr.DefaultRequestInterval)
	viperCfg.SetDefault("cmr.timeout", cmr.DefaultTimeout)
	viperCfg.SetDefault("cmr.user_agent", "")

	viperCfg.SetDefault("mapper.workers", DefaultMapperWorkers)
	viperCfg.SetDefault("mapper.concept_id", cmr.RTCConceptID)
	viperCfg.SetDefault("mapper.results_path", DefaultMapperResultsPath)
	viperCfg.SetDefault("mapper.missing_path", DefaultMapperMissingPath)

	viperCfg.SetDefault("latency.collections", DefaultLatencyCollections())
	viperCfg.SetDefault("latency.temporal_days", DefaultLatencyTemporalDays)
	viperCfg.SetDefault("latency.revision_days", DefaultLatencyRevisionDays)

	viperCfg.SetDefault("daily.collections", DefaultDailyCollections())
	viperCfg.SetDefault("daily.days", DefaultDailyDays)

	viperCfg.SetDefault("dupes.output_dir", DefaultDupesOutputDir)
	viperCfg.SetDefault("dupes.remove_landsat9", DefaultDupesRemoveLandsat9)
}
