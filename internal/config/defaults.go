package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultStorageBackend   = "minio"
	DefaultBucket           = "bronze"
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 4
	DefaultMinConns         = 1
	DefaultAPITimeout       = 10 * time.Second
	DefaultMaxRetries       = 3
	DefaultTopN             = 3
	DefaultPause            = 2 * time.Second
	DefaultFetchConcurrency = 4
	DefaultMetricsPort      = 9090
	DefaultMetricsPath      = "/metrics"
)

func (c *PipelineConfig) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultStorageBackend
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = DefaultBucket
	}

	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	if c.Extractor.TopN == 0 {
		c.Extractor.TopN = DefaultTopN
	}
	if c.Extractor.Pause == 0 {
		c.Extractor.Pause = DefaultPause
	}

	if c.Loader.FetchConcurrency == 0 {
		c.Loader.FetchConcurrency = DefaultFetchConcurrency
	}

	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
