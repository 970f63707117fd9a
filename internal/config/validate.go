package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *PipelineConfig) Validate() error {
	switch c.Storage.Backend {
	case "minio":
		if c.Storage.MinIO.Endpoint == "" {
			return errors.New("storage.minio.endpoint is required")
		}
	case "gcs":
		if c.Storage.GCS.ProjectID == "" {
			return errors.New("storage.gcs.project_id is required")
		}
	default:
		return fmt.Errorf("storage.backend must be minio or gcs, got %q", c.Storage.Backend)
	}

	if c.Storage.Bucket == "" {
		return errors.New("storage.bucket is required")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.Key == "" {
		return errors.New("api.key is required")
	}

	if c.Extractor.TopN < 1 {
		return errors.New("extractor.top_n must be >= 1")
	}
	if c.Extractor.Pause < 0 {
		return errors.New("extractor.pause must be >= 0")
	}

	if c.Loader.FetchConcurrency < 1 {
		return errors.New("loader.fetch_concurrency must be >= 1")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
