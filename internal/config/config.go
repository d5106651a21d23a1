package config

import (
	"errors"
	"time"

	"github.com/opera-sds/granulewatch/internal/cmr"
	"github.com/opera-sds/granulewatch/internal/dupes"
)

// Config is the top-level configuration struct for granulewatch.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	CMR     CMRConfig     `mapstructure:"cmr"`
	Mapper  MapperConfig  `mapstructure:"mapper"`
	Latency LatencyConfig `mapstructure:"latency"`
	Daily   DailyConfig   `mapstructure:"daily"`
	Dupes   DupesConfig   `mapstructure:"dupes"`
}

// CMRConfig holds archive client settings.
type CMRConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	PageSize        int           `mapstructure:"page_size"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	RequestInterval time.Duration `mapstructure:"request_interval"`
	Timeout         time.Duration `mapstructure:"timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
}

// MapperConfig holds granule mapping settings.
type MapperConfig struct {
	Workers     int    `mapstructure:"workers"`
	ConceptID   string `mapstructure:"concept_id"`
	ResultsPath string `mapstructure:"results_path"`
	MissingPath string `mapstructure:"missing_path"`
}

// LatencyConfig holds production latency report settings.
type LatencyConfig struct {
	Collections  []string `mapstructure:"collections"`
	TemporalDays int      `mapstructure:"temporal_days"`
	RevisionDays int      `mapstructure:"revision_days"`
}

// DailyConfig holds daily product count settings.
type DailyConfig struct {
	Collections []string `mapstructure:"collections"`
	Days        int      `mapstructure:"days"`
}

// DupesConfig holds duplicate analysis settings.
type DupesConfig struct {
	OutputDir      string `mapstructure:"output_dir"`
	RemoveLandsat9 bool   `mapstructure:"remove_landsat9"`
}

// Defaults applied when neither the config file nor the environment sets
// a value.
const (
	DefaultMapperWorkers     = 1
	DefaultMapperResultsPath = "rtc_mapping_results.json"
	DefaultMapperMissingPath = "missing_rtc.json"

	DefaultLatencyTemporalDays = 7
	DefaultLatencyRevisionDays = 3

	DefaultDailyDays = 30

	DefaultDupesOutputDir      = "."
	DefaultDupesRemoveLandsat9 = true
)

// DefaultLatencyCollections are the product collections covered by the
// latency report.
func DefaultLatencyCollections() []string {
	return []string{
		"OPERA_L3_DSWX-HLS_V1",
		"OPERA_L3_DSWX-S1_V1",
		cmr.RTCShortName,
		"OPERA_L2_CSLC-S1_V1",
	}
}

// DefaultDailyCollections are the collections counted by the daily report.
func DefaultDailyCollections() []string {
	return []string{
		dupes.HLSL30ShortName,
		dupes.HLSS30ShortName,
		"OPERA_L3_DSWX-HLS_V1",
		"OPERA_L3_DSWX-S1_V1",
		cmr.RTCShortName,
		"OPERA_L2_CSLC-S1_V1",
	}
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidPageSize indicates the archive page size is out of range.
	ErrInvalidPageSize = errors.New("cmr.page_size must be between 1 and 2000")
	// ErrInvalidMaxAttempts indicates the retry attempt count is not positive.
	ErrInvalidMaxAttempts = errors.New("cmr.max_attempts must be positive")
	// ErrInvalidWorkers indicates the mapper worker count is negative.
	ErrInvalidWorkers = errors.New("mapper.workers must be non-negative")
	// ErrInvalidLatencyDays indicates a latency query window is not positive.
	ErrInvalidLatencyDays = errors.New("latency windows must be positive")
	// ErrInvalidDailyDays indicates the daily count window is not positive.
	ErrInvalidDailyDays = errors.New("daily.days must be positive")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.CMR.PageSize < 1 || c.CMR.PageSize > cmr.DefaultPageSize {
		return ErrInvalidPageSize
	}

	if c.CMR.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Mapper.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Latency.TemporalDays < 1 || c.Latency.RevisionDays < 1 {
		return ErrInvalidLatencyDays
	}

	if c.Daily.Days < 1 {
		return ErrInvalidDailyDays
	}

	return nil
}

// ClientConfig converts the archive section to a cmr client configuration.
func (c *Config) ClientConfig() cmr.Config {
	return cmr.Config{
		BaseURL:         c.CMR.BaseURL,
		PageSize:        c.CMR.PageSize,
		MaxAttempts:     c.CMR.MaxAttempts,
		RequestInterval: c.CMR.RequestInterval,
		Timeout:         c.CMR.Timeout,
		UserAgent:       c.CMR.UserAgent,
	}
}
