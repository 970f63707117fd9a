package config

import "time"

// PipelineConfig is the root configuration for a pipeline run.
type PipelineConfig struct {
	Storage   StorageConfig   `yaml:"storage"`
	Database  DBConfig        `yaml:"database"`
	API       APIConfig       `yaml:"api"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Loader    LoaderConfig    `yaml:"loader"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// StorageConfig selects and configures the object-store backend.
type StorageConfig struct {
	// Backend is "minio" or "gcs".
	Backend string      `yaml:"backend"`
	Bucket  string      `yaml:"bucket"`
	MinIO   MinIOConfig `yaml:"minio"`
	GCS     GCSConfig   `yaml:"gcs"`
}

// MinIOConfig holds S3-compatible endpoint settings.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// GCSConfig holds Google Cloud Storage settings.
type GCSConfig struct {
	ProjectID string `yaml:"project_id"`
}

// DBConfig holds the Postgres connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// APIConfig holds upstream data-API settings.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Key        string        `yaml:"key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// ExtractorConfig holds extraction pacing and selection settings.
type ExtractorConfig struct {
	// TopN is how many symbols from the ranked list feed the
	// per-symbol stages.
	TopN int `yaml:"top_n"`
	// Pause is the mandatory delay between upstream calls within a
	// stage, throttling against the external rate limit.
	Pause time.Duration `yaml:"pause"`
}

// LoaderConfig holds aggregation settings.
type LoaderConfig struct {
	// FetchConcurrency bounds parallel artifact reads during
	// aggregation.
	FetchConcurrency int `yaml:"fetch_concurrency"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
